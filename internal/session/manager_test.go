package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-gateway/internal/common/config"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newManager(t *testing.T, client *redis.Client) *Manager {
	t.Helper()
	store := NewRedisStore(client, time.Hour)
	return NewManager(store, config.SessionConfig{CookieName: "marketplace_session", TTL: 3600000}, logger.NewTestLogger(t))
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "marketplace_session" {
			return c
		}
	}
	return nil
}

// ==========================
// RedisStore
// ==========================

func TestRedisStore_RoundTrip(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	sess := models.NewSession("abc")
	sess.Set(models.SessionRiderID, "r-1")
	require.NoError(t, store.Save(ctx, sess))
	assert.True(t, mr.Exists("session:abc"))
	assert.Equal(t, time.Hour, mr.TTL("session:abc"))

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "r-1", loaded.Get(models.SessionRiderID))
	assert.False(t, loaded.Dirty())

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// ==========================
// Manager
// ==========================

func TestManager_NewSessionPersistedOnFirstContact(t *testing.T) {
	mr, client := setupRedis(t)
	m := newManager(t, client)

	var id string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r.Context())
		require.NotNil(t, sess)
		id = sess.ID
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signup", nil))

	c := sessionCookie(t, rec)
	require.NotNil(t, c)
	assert.Equal(t, id, c.Value)
	assert.True(t, mr.Exists("session:"+id))
}

func TestManager_CleanStoredSessionNotRewritten(t *testing.T) {
	mr, client := setupRedis(t)
	m := newManager(t, client)

	sess := models.NewSession("kept")
	require.NoError(t, m.store.Save(context.Background(), sess))
	mr.SetTTL("session:kept", time.Minute)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "marketplace_session", Value: "kept"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Nil(t, sessionCookie(t, rec))
	assert.Equal(t, time.Minute, mr.TTL("session:kept"))
}

func TestManager_DirtySessionSavedOnFirstWrite(t *testing.T) {
	_, client := setupRedis(t)
	m := newManager(t, client)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Set(models.SessionRegistrationStage, "credentials")
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rider/register/vehicle-info", nil))

	c := sessionCookie(t, rec)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)

	// the next request continues the same record
	var stage string
	h2 := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stage = FromContext(r.Context()).Get(models.SessionRegistrationStage)
	}))
	req := httptest.NewRequest(http.MethodGet, "/rider/register/credentials", nil)
	req.AddCookie(c)
	h2.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "credentials", stage)
}

func TestManager_UnknownCookieStartsFresh(t *testing.T) {
	_, client := setupRedis(t)
	m := newManager(t, client)

	var got *models.Session
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "marketplace_session", Value: "expired-id"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.NotEqual(t, "expired-id", got.ID)
	assert.True(t, got.IsNew())
}

func TestManager_StoreDownStartsFresh(t *testing.T) {
	mr, client := setupRedis(t)
	m := newManager(t, client)
	mr.Close()

	rec := httptest.NewRecorder()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, FromContext(r.Context()).IsNew())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "marketplace_session", Value: "abc"})
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestManager_Destroy(t *testing.T) {
	mr, client := setupRedis(t)
	m := newManager(t, client)
	ctx := context.Background()

	sess := models.NewSession("gone")
	sess.Set(models.SessionUserID, "u-1")
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), sess))
	require.True(t, mr.Exists("session:gone"))

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Destroy(r.Context(), w, FromContext(r.Context())))
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "marketplace_session", Value: "gone"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, mr.Exists("session:gone"))
	c := sessionCookie(t, rec)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess := models.NewSession("m-1")
	sess.Set(models.SessionUserID, "u-1")
	require.NoError(t, store.Save(ctx, sess))

	// later changes to the caller's copy are not visible until saved
	sess.Set(models.SessionUserID, "u-2")

	loaded, err := store.Load(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", loaded.UserID())

	require.NoError(t, store.Delete(ctx, "m-1"))
	_, err = store.Load(ctx, "m-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
