// Package session threads the cookie-referenced session record through requests.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"marketplace-gateway/internal/common/config"
	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/models"

	"github.com/google/uuid"
)

type ctxKey struct{}

// FromContext returns the session placed by Manager.Middleware, or nil.
func FromContext(ctx context.Context) *models.Session {
	sess, _ := ctx.Value(ctxKey{}).(*models.Session)
	return sess
}

// WithSession returns ctx carrying sess.
func WithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// Manager loads, saves and destroys sessions and owns the cookie.
type Manager struct {
	store  Store
	cfg    config.SessionConfig
	logger logger.Logger
	newID  func() string
}

func NewManager(store Store, cfg config.SessionConfig, log logger.Logger) *Manager {
	return &Manager{
		store:  store,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "session"}),
		newID:  func() string { return uuid.NewString() },
	}
}

// CookieName is the gateway session cookie.
func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// Middleware attaches the session to every request. New and dirty sessions are
// saved and the cookie emitted right before the first byte of the response, so
// a visitor keeps the same record from the first request on.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(r)
		sw := &sessionWriter{ResponseWriter: w, m: m, ctx: r.Context(), sess: sess}
		next.ServeHTTP(sw, r.WithContext(WithSession(r.Context(), sess)))
		sw.commit()
	})
}

func (m *Manager) load(r *http.Request) *models.Session {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return models.NewSession(m.newID())
	}

	sess, err := m.store.Load(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warn("session load failed, starting fresh", map[string]interface{}{"error": err.Error()})
		}
		return models.NewSession(m.newID())
	}
	return sess
}

// Save persists sess now and sets the cookie. Handlers call it when the
// response depends on the write having succeeded.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *models.Session) error {
	if err := m.store.Save(ctx, sess); err != nil {
		return gwerrors.NewSessionStoreError(err)
	}
	sess.MarkSaved()
	http.SetCookie(w, m.cookie(sess.ID, int(m.ttl().Seconds())))
	return nil
}

// Destroy removes the session and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *models.Session) error {
	sess.Values = map[string]string{}
	sess.MarkSaved()
	http.SetCookie(w, m.cookie("", -1))
	if err := m.store.Delete(ctx, sess.ID); err != nil {
		return gwerrors.NewSessionStoreError(err)
	}
	return nil
}

func (m *Manager) ttl() time.Duration {
	return config.GetDuration(m.cfg.TTL)
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   m.cfg.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type sessionWriter struct {
	http.ResponseWriter
	m         *Manager
	ctx       context.Context
	sess      *models.Session
	committed bool
}

func (w *sessionWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true
	if !w.sess.Dirty() && !w.sess.IsNew() {
		return
	}
	if err := w.m.Save(w.ctx, w.ResponseWriter, w.sess); err != nil {
		w.m.logger.Error("session save failed", map[string]interface{}{
			"sessionId": w.sess.ID,
			"error":     err.Error(),
		})
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
