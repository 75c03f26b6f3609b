// Package flowstest runs form flows against a fake marketplace API.
package flowstest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"marketplace-gateway/internal/common/config"
	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/session"
	"marketplace-gateway/internal/upstream"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const CookieName = "marketplace_session"

// Recorded is one request the fake API received.
type Recorded struct {
	Method string
	Path   string
	Header http.Header
	Form   map[string][]string
	Files  map[string][]string
	Body   []byte
}

// Upstream is a fake marketplace API that records every request.
type Upstream struct {
	Server *httptest.Server

	mu       sync.Mutex
	requests []Recorded
	handler  http.HandlerFunc
}

func newUpstream(t testing.TB, handler http.HandlerFunc) *Upstream {
	u := &Upstream{handler: handler}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Server.Close)
	return u
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	rec := Recorded{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()}
	if err := r.ParseMultipartForm(32 << 20); err == nil {
		rec.Form = r.MultipartForm.Value
		rec.Files = make(map[string][]string)
		for name, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				rec.Files[name] = append(rec.Files[name], fh.Filename)
			}
		}
	} else {
		rec.Body, _ = io.ReadAll(r.Body)
	}

	u.mu.Lock()
	u.requests = append(u.requests, rec)
	handler := u.handler
	u.mu.Unlock()

	if handler == nil {
		JSON(http.StatusOK, `{"success":true}`)(w, r)
		return
	}
	handler(w, r)
}

// SetHandler swaps the response behavior.
func (u *Upstream) SetHandler(h http.HandlerFunc) {
	u.mu.Lock()
	u.handler = h
	u.mu.Unlock()
}

// Requests returns a copy of what was received so far.
func (u *Upstream) Requests() []Recorded {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Recorded(nil), u.requests...)
}

// JSON answers with status and body.
func JSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// Harness wires the real submission stack around a fake upstream.
type Harness struct {
	t         testing.TB
	Upstream  *Upstream
	API       *upstream.Client
	Store     *session.MemoryStore
	Sessions  *session.Manager
	Instances *form.Instances
	Errors    *gwerrors.ErrorHandler
	Handler   *flows.Handler
	Logger    logger.Logger

	deps flows.Dependencies
}

func New(t testing.TB, handler http.HandlerFunc) *Harness {
	t.Helper()
	log := logger.NewTestLogger(t)
	up := newUpstream(t, handler)
	api := upstream.NewClient(up.Server.URL, 2*time.Second, log)

	store := session.NewMemoryStore()
	sessions := session.NewManager(store, config.SessionConfig{CookieName: CookieName, TTL: 3600000}, log)
	instances := form.NewInstances(10*time.Millisecond, time.Hour, log)
	t.Cleanup(instances.Close)

	errHandler := gwerrors.NewErrorHandler(log, true)
	deps := flows.Dependencies{
		Coordinator: form.NewCoordinator(api, log, form.WithDetails(true)),
		Instances:   instances,
		Sessions:    sessions,
		Errors:      errHandler,
		Logger:      log,
	}
	return &Harness{
		t:         t,
		Upstream:  up,
		API:       api,
		Store:     store,
		Sessions:  sessions,
		Instances: instances,
		Errors:    errHandler,
		Logger:    log,
		Handler:   flows.NewHandler(deps),
		deps:      deps,
	}
}

// WithDrafts persists drafts in repo. Call it before Mount.
func (h *Harness) WithDrafts(repo *form.DraftRepository) *Harness {
	h.deps.Drafts = repo
	h.Handler = flows.NewHandler(h.deps)
	return h
}

// Mount serves the submit and draft routes of each flow behind the session middleware.
func (h *Harness) Mount(fs ...flows.Flow) http.Handler {
	r := chi.NewRouter()
	r.Use(h.Sessions.Middleware)
	for _, f := range fs {
		r.Post(f.Route, h.Handler.Submit(f))
		r.Get(f.Route+"/draft", h.Handler.Draft(f))
		r.Delete(f.Route+"/draft", h.Handler.Dismiss(f))
	}
	return r
}

// NewSession stores a session with values and returns its cookie.
func (h *Harness) NewSession(id string, values map[string]string) *http.Cookie {
	h.t.Helper()
	sess := models.NewSession(id)
	for k, v := range values {
		sess.Set(k, v)
	}
	require.NoError(h.t, h.Store.Save(context.Background(), sess))
	return &http.Cookie{Name: CookieName, Value: id}
}

// Session loads the stored session by id.
func (h *Harness) Session(id string) *models.Session {
	h.t.Helper()
	sess, err := h.Store.Load(context.Background(), id)
	require.NoError(h.t, err)
	return sess
}

// Post submits values as multipart/form-data to route.
func (h *Harness) Post(handler http.Handler, route string, cookie *http.Cookie, values map[string]interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	body, contentType, err := form.EncodeMultipart(values)
	require.NoError(h.t, err)

	req := httptest.NewRequest(http.MethodPost, route, body)
	req.Header.Set("Content-Type", contentType)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// Get issues a GET to route.
func (h *Harness) Get(handler http.Handler, route string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, route, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// Decode reads a submit response body.
func Decode(t testing.TB, rec *httptest.ResponseRecorder) flows.Response {
	t.Helper()
	var resp flows.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// Delete issues a DELETE to route.
func (h *Harness) Delete(handler http.Handler, route string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, route, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}
