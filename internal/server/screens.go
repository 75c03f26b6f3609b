package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/guard"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/registration"
	"marketplace-gateway/internal/session"
	"marketplace-gateway/internal/upstream"
	"marketplace-gateway/pkg/registry"

	"github.com/go-chi/chi/v5"
)

// DataFetcher loads the upstream data a screen renders.
type DataFetcher interface {
	Get(ctx context.Context, path string, ident upstream.Identity, dst interface{}) (*upstream.Response, error)
}

// ScreenResponse is the body of a screen GET.
type ScreenResponse struct {
	Screen      string          `json:"screen"`
	DisplayName string          `json:"displayName"`
	Role        string          `json:"role,omitempty"`
	Stage       string          `json:"stage,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// Screens builds guarded handlers for registry entries.
type Screens struct {
	api         DataFetcher
	sessions    *session.Manager
	roles       guard.RoleResolver
	poller      *registration.ApprovalPoller
	errors      *gwerrors.ErrorHandler
	logger      logger.Logger
	loginPath   string
	safeDefault string
}

type ScreensConfig struct {
	API         DataFetcher
	Sessions    *session.Manager
	Roles       guard.RoleResolver
	Poller      *registration.ApprovalPoller
	Errors      *gwerrors.ErrorHandler
	Logger      logger.Logger
	LoginPath   string
	SafeDefault string
}

func NewScreens(cfg ScreensConfig) *Screens {
	s := &Screens{
		api:         cfg.API,
		sessions:    cfg.Sessions,
		roles:       cfg.Roles,
		poller:      cfg.Poller,
		errors:      cfg.Errors,
		logger:      cfg.Logger.WithFields(map[string]interface{}{"component": "screens"}),
		loginPath:   cfg.LoginPath,
		safeDefault: cfg.SafeDefault,
	}
	if s.loginPath == "" {
		s.loginPath = "/login"
	}
	return s
}

// Chain builds the guard chain for screen.
func (s *Screens) Chain(screen registry.Screen) (*guard.Chain, error) {
	gc := guard.Config{SafeDefault: s.safeDefault}

	if screen.Flow != "" {
		flow := registration.ByName(screen.Flow)
		if flow == nil {
			return nil, fmt.Errorf("screen %s: unknown registration flow %s", screen.ID, screen.Flow)
		}
		stage := registration.Stage(screen.Stage)
		if !flow.Has(stage) {
			return nil, fmt.Errorf("screen %s: flow %s has no stage %s", screen.ID, screen.Flow, screen.Stage)
		}
		gc.Registration = &guard.RegistrationGuard{
			Flow:       flow,
			Stage:      stage,
			Poller:     s.poller,
			CookieName: s.sessions.CookieName(),
		}
	}

	if screen.RequireAuth {
		gc.Auth = &guard.AuthGuard{LoginPath: s.loginPath}
	}

	if len(screen.Roles) > 0 {
		if s.roles == nil {
			return nil, fmt.Errorf("screen %s: roles configured without a role resolver", screen.ID)
		}
		gc.Role = &guard.RoleGuard{
			Roles:      screen.Roles,
			Resolver:   s.roles,
			DenyPath:   screen.DenyPath,
			CookieName: s.sessions.CookieName(),
		}
	}

	return guard.NewChain(gc, s.logger, s.errors), nil
}

// Handler returns the guarded GET handler for screen.
func (s *Screens) Handler(screen registry.Screen) (http.Handler, error) {
	chain, err := s.Chain(screen)
	if err != nil {
		return nil, err
	}
	return chain.Protect(s.loader(screen)), nil
}

func (s *Screens) loader(screen registry.Screen) guard.Loader {
	return func(w http.ResponseWriter, r *http.Request, sess *models.Session) {
		resp := ScreenResponse{
			Screen:      screen.ID,
			DisplayName: screen.DisplayName,
			Role:        sess.Role(),
			Stage:       string(registration.StageOf(sess)),
		}

		if screen.DataPath != "" {
			path, err := screen.ExpandDataPath(pathParams(r, sess))
			if err != nil {
				s.errors.Write(w, gwerrors.NewNotFoundError("Screen data", err.Error()))
				return
			}

			var data json.RawMessage
			up, err := s.api.Get(r.Context(), path, upstream.IdentityFrom(r, sess, s.sessions.CookieName()), &data)
			upstream.EchoCookies(w, up)
			if err != nil {
				if gwerrors.AsStandard(err).Code == gwerrors.ErrCodeAuthenticationRequired {
					guard.WriteRedirect(w, r, s.loginPath)
					return
				}
				s.logger.Warn("screen data failed", map[string]interface{}{
					"screen": screen.ID,
					"path":   path,
					"error":  err.Error(),
				})
				s.errors.Write(w, err)
				return
			}
			resp.Data = data
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// pathParams merges the session's identity ids with the route's URL params.
// URL params cannot shadow the session ids.
func pathParams(r *http.Request, sess *models.Session) map[string]string {
	params := make(map[string]string)
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			params[key] = rctx.URLParams.Values[i]
		}
	}
	params["userId"] = sess.UserID()
	params["shopId"] = sess.ShopID()
	params["riderId"] = sess.Get(models.SessionRiderID)
	return params
}
