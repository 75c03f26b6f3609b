// Package auth resolves marketplace roles for authenticated sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/upstream"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RoleFetcher is the upstream call the resolver needs.
type RoleFetcher interface {
	Get(ctx context.Context, path string, ident upstream.Identity, dst interface{}) (*upstream.Response, error)
}

// RoleResolver returns a user's role from the session, a shared cache, or upstream.
// Concurrent lookups for one user share a single upstream call.
type RoleResolver struct {
	api    RoleFetcher
	cache  *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger logger.Logger
}

// NewRoleResolver builds a resolver. cache may be nil.
func NewRoleResolver(api RoleFetcher, cache *redis.Client, ttl time.Duration, log logger.Logger) *RoleResolver {
	return &RoleResolver{api: api, cache: cache, ttl: ttl, logger: log}
}

type roleResponse struct {
	Role string `json:"role"`
}

// Resolve returns the role and stores it back in the session.
func (r *RoleResolver) Resolve(ctx context.Context, sess *models.Session, ident upstream.Identity) (string, error) {
	if role := sess.Role(); role != "" {
		return role, nil
	}
	userID := sess.UserID()
	if userID == "" {
		return "", gwerrors.NewAuthenticationError("no user in session")
	}

	if role := r.cached(ctx, userID); role != "" {
		sess.Set(models.SessionRole, role)
		return role, nil
	}

	v, err, _ := r.group.Do(userID, func() (interface{}, error) {
		var out roleResponse
		if _, err := r.api.Get(ctx, "/api/users/"+url.PathEscape(userID)+"/role", ident, &out); err != nil {
			return "", err
		}
		if out.Role == "" {
			return "", gwerrors.NewUpstreamMalformedError(200, errors.New("empty role"))
		}
		r.store(ctx, userID, out.Role)
		return out.Role, nil
	})
	if err != nil {
		return "", fmt.Errorf("resolve role for %s: %w", userID, err)
	}

	role := v.(string)
	sess.Set(models.SessionRole, role)
	return role, nil
}

func (r *RoleResolver) cached(ctx context.Context, userID string) string {
	if r.cache == nil {
		return ""
	}
	role, err := r.cache.Get(ctx, roleKey(userID)).Result()
	if err != nil && err != redis.Nil {
		r.logger.Warn("role cache read failed", map[string]interface{}{"error": err.Error()})
	}
	return role
}

func (r *RoleResolver) store(ctx context.Context, userID, role string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, roleKey(userID), role, r.ttl).Err(); err != nil {
		r.logger.Warn("role cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func roleKey(userID string) string {
	return "role:" + userID
}
