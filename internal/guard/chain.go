// Package guard runs the checks that stand in front of every protected screen.
package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/common/metrics"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/session"
)

// Decision is a guard's verdict. The zero value means continue.
type Decision struct {
	Redirect string
	// Status denies without redirecting when non-zero.
	Status int
}

// Continue reports whether the request may proceed.
func (d Decision) Continue() bool {
	return d.Redirect == "" && d.Status == 0
}

func RedirectTo(url string) Decision {
	return Decision{Redirect: url}
}

// Guard checks one condition for a request and its session.
type Guard interface {
	Name() string
	Check(ctx context.Context, sess *models.Session, r *http.Request) (Decision, error)
}

// Loader renders a protected screen with the session passed explicitly.
type Loader func(w http.ResponseWriter, r *http.Request, sess *models.Session)

// Config lists the guards of a chain. Nil guards are skipped. The run order is
// always registration, then authentication, then role.
type Config struct {
	Registration Guard
	Auth         Guard
	Role         Guard
	SafeDefault  string
}

// Chain runs its guards in order; the first non-continue decision wins.
type Chain struct {
	guards      []Guard
	safeDefault string
	logger      logger.Logger
	errors      *gwerrors.ErrorHandler
}

func NewChain(cfg Config, log logger.Logger, errHandler *gwerrors.ErrorHandler) *Chain {
	c := &Chain{safeDefault: cfg.SafeDefault, logger: log, errors: errHandler}
	if c.safeDefault == "" {
		c.safeDefault = "/login"
	}
	for _, g := range []Guard{cfg.Registration, cfg.Auth, cfg.Role} {
		if g != nil {
			c.guards = append(c.guards, g)
		}
	}
	return c
}

// Run evaluates the chain. Errors and panics resolve to a redirect to the safe
// default, never to continue.
func (c *Chain) Run(ctx context.Context, sess *models.Session, r *http.Request) Decision {
	for _, g := range c.guards {
		d, err := c.check(ctx, g, sess, r)
		if err != nil {
			c.logger.Warn("guard failed, denying", map[string]interface{}{
				"guard": g.Name(),
				"path":  r.URL.Path,
				"error": err.Error(),
			})
			metrics.GuardRedirects.WithLabelValues(g.Name()).Inc()
			return RedirectTo(c.safeDefault)
		}
		if !d.Continue() {
			metrics.GuardRedirects.WithLabelValues(g.Name()).Inc()
			return d
		}
	}
	return Decision{}
}

func (c *Chain) check(ctx context.Context, g Guard, sess *models.Session, r *http.Request) (d Decision, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d, err = Decision{}, fmt.Errorf("guard %s panicked: %v", g.Name(), rec)
		}
	}()
	return g.Check(ctx, sess, r)
}

// Protect wraps loader so it only runs once every guard lets the request through.
func (c *Chain) Protect(loader Loader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if sess == nil {
			WriteRedirect(w, r, c.safeDefault)
			return
		}

		d := c.Run(r.Context(), sess, r)
		switch {
		case d.Redirect != "":
			WriteRedirect(w, r, d.Redirect)
		case d.Status != 0:
			c.errors.Write(w, gwerrors.NewForbiddenError(r.URL.Path))
		default:
			loader(w, r, sess)
		}
	})
}

// WriteRedirect answers with 303 See Other, a Location header and a JSON body
// for clients that do not follow redirects.
func WriteRedirect(w http.ResponseWriter, r *http.Request, url string) {
	w.Header().Set("Location", url)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusSeeOther)
	_ = json.NewEncoder(w).Encode(map[string]string{"redirect": url})
}
