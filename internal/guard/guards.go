package guard

import (
	"context"
	"net/http"

	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/registration"
	"marketplace-gateway/internal/upstream"
)

// RegistrationGuard keeps a session on its current registration stage.
type RegistrationGuard struct {
	Flow  *registration.Flow
	Stage registration.Stage
	// Poller, when set, refreshes a pending rider's approval before checking.
	Poller     *registration.ApprovalPoller
	CookieName string
}

func (g *RegistrationGuard) Name() string { return "registration" }

func (g *RegistrationGuard) Check(ctx context.Context, sess *models.Session, r *http.Request) (Decision, error) {
	if g.Poller != nil && g.Flow == registration.RiderFlow {
		g.Poller.Refresh(ctx, sess, upstream.IdentityFrom(r, sess, g.CookieName))
	}
	redirect, err := g.Flow.Check(sess, g.Stage)
	if err != nil {
		return Decision{}, err
	}
	if redirect == "" || redirect == r.URL.Path {
		return Decision{}, nil
	}
	return RedirectTo(redirect), nil
}

// AuthGuard requires a signed-in user.
type AuthGuard struct {
	LoginPath string
}

func (g *AuthGuard) Name() string { return "auth" }

func (g *AuthGuard) Check(_ context.Context, sess *models.Session, _ *http.Request) (Decision, error) {
	if sess.IsAuthenticated() {
		return Decision{}, nil
	}
	return RedirectTo(g.LoginPath), nil
}

// RoleResolver looks up the role of the session's user.
type RoleResolver interface {
	Resolve(ctx context.Context, sess *models.Session, ident upstream.Identity) (string, error)
}

// RoleGuard admits only the listed roles. Other roles are redirected to
// DenyPath, or refused with 403 when DenyPath is empty.
type RoleGuard struct {
	Roles      []string
	Resolver   RoleResolver
	DenyPath   string
	CookieName string
}

func (g *RoleGuard) Name() string { return "role" }

func (g *RoleGuard) Check(ctx context.Context, sess *models.Session, r *http.Request) (Decision, error) {
	role, err := g.Resolver.Resolve(ctx, sess, upstream.IdentityFrom(r, sess, g.CookieName))
	if err != nil {
		return Decision{}, err
	}
	for _, allowed := range g.Roles {
		if role == allowed {
			return Decision{}, nil
		}
	}
	if g.DenyPath != "" {
		return RedirectTo(g.DenyPath), nil
	}
	return Decision{Status: http.StatusForbidden}, nil
}
