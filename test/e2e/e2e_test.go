// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-gateway/internal/cart"
	"marketplace-gateway/internal/common/auth"
	"marketplace-gateway/internal/common/config"
	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/registration"
	"marketplace-gateway/internal/server"
	"marketplace-gateway/internal/session"
	"marketplace-gateway/internal/upstream"
	"marketplace-gateway/pkg/registry"
)

// ==========================
// Fake marketplace API
// ==========================

type marketplace struct {
	mu       sync.Mutex
	calls    map[string]int
	handlers map[string]http.HandlerFunc
	forms    map[string]map[string][]string
}

func newMarketplace() *marketplace {
	return &marketplace{
		calls:    map[string]int{},
		handlers: map[string]http.HandlerFunc{},
		forms:    map[string]map[string][]string{},
	}
}

func (m *marketplace) on(method, path string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+" "+path] = h
}

func (m *marketplace) count(method, path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method+" "+path]
}

func (m *marketplace) form(method, path string) map[string][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forms[method+" "+path]
}

func (m *marketplace) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	if err := r.ParseMultipartForm(32 << 20); err == nil {
		m.mu.Lock()
		m.forms[key] = r.MultipartForm.Value
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.calls[key]++
	h, ok := m.handlers[key]
	m.mu.Unlock()

	if !ok {
		respond(http.StatusNotFound, `{"success":false,"message":"not found"}`)(w, r)
		return
	}
	h(w, r)
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// ==========================
// Gateway under test
// ==========================

type gateway struct {
	url    string
	client *http.Client
	api    *marketplace
	store  session.Store
}

// startGateway wires the gateway the way serve does, with Redis-backed
// sessions, drafts, gate and cart on miniredis.
func startGateway(t *testing.T) *gateway {
	t.Helper()
	log := logger.NewTestLogger(t)

	api := newMarketplace()
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		Session: config.SessionConfig{CookieName: "marketplace_session", TTL: 3600000},
		Forms:   config.FormsConfig{DraftTTL: 3600000, ResetDelay: 50, InstanceIdle: 3600000, Gate: "redis"},
	}

	client := upstream.NewClient(apiServer.URL, 5*time.Second, log)
	errHandler := gwerrors.NewErrorHandler(log, true)
	store := session.NewRedisStore(rdb, config.GetDuration(cfg.Session.TTL))
	sessions := session.NewManager(store, cfg.Session, log)
	instances := form.NewInstances(config.GetDuration(cfg.Forms.ResetDelay), config.GetDuration(cfg.Forms.InstanceIdle), log)
	t.Cleanup(instances.Close)

	formFlows, err := server.BuildFlows(cfg, server.FlowDependencies{Sessions: sessions, Instances: instances})
	require.NoError(t, err)

	handler, err := server.NewRouter(log, server.RouterDependencies{
		Sessions: sessions,
		Errors:   errHandler,
		Flows:    formFlows,
		FlowHandler: flows.NewHandler(flows.Dependencies{
			Coordinator: form.NewCoordinator(client, log,
				form.WithGate(form.NewRedisGate(rdb, log)),
				form.WithDetails(true),
			),
			Instances: instances,
			Sessions:  sessions,
			Drafts:    form.NewDraftRepository(rdb, config.GetDuration(cfg.Forms.DraftTTL)),
			Errors:    errHandler,
			Logger:    log,
		}),
		Registry: registry.DefaultScreens(),
		Screens: server.NewScreens(server.ScreensConfig{
			API:      client,
			Sessions: sessions,
			Roles:    auth.NewRoleResolver(client, rdb, time.Minute, log),
			Poller:   registration.NewApprovalPoller(client, log),
			Errors:   errHandler,
			Logger:   log,
		}),
		Cart:   server.NewCartHandlers(cart.NewService(client, rdb, time.Hour, log), sessions, errHandler),
		Health: map[string]server.HealthService{},
	})
	require.NoError(t, err)

	gw := httptest.NewServer(handler)
	t.Cleanup(gw.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &gateway{
		url: gw.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		api:   api,
		store: store,
	}
}

// signIn stores a session with values and hands its cookie to the browser.
func (g *gateway) signIn(t *testing.T, values map[string]string) *models.Session {
	t.Helper()
	sess := models.NewSession("e2e-" + strings.ReplaceAll(t.Name(), "/", "-"))
	for k, v := range values {
		sess.Set(k, v)
	}
	require.NoError(t, g.store.Save(context.Background(), sess))

	req, err := http.NewRequest(http.MethodGet, g.url, nil)
	require.NoError(t, err)
	g.client.Jar.SetCookies(req.URL, []*http.Cookie{{Name: "marketplace_session", Value: sess.ID, Path: "/"}})
	return sess
}

func (g *gateway) submit(t *testing.T, path string, values map[string]interface{}) (int, flows.Response) {
	t.Helper()
	body, contentType, err := form.EncodeMultipart(values)
	require.NoError(t, err)

	resp, err := g.client.Post(g.url+path, contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out flows.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (g *gateway) send(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, g.url+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := g.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (g *gateway) session(t *testing.T, id string) *models.Session {
	t.Helper()
	sess, err := g.store.Load(context.Background(), id)
	require.NoError(t, err)
	return sess
}

func shopValues() map[string]interface{} {
	return map[string]interface{}{
		"name":           "My Shop",
		"description":    "A great shop for gadgets",
		"region":         "NCR",
		"province":       "Metro Manila",
		"city":           "Manila",
		"barangay":       "Ermita",
		"street":         "123 Rizal St",
		"contact_number": "09171234567",
	}
}

// ==========================
// Scenarios
// ==========================

func TestScenarioA_CreateShopSucceeds(t *testing.T) {
	t.Log("🚀 Scenario A: create shop with valid values")
	g := startGateway(t)
	g.api.on(http.MethodPost, "/api/shops", respond(http.StatusCreated, `{"success":true,"data":{"id":12}}`))
	sess := g.signIn(t, map[string]string{
		models.SessionUserID:            "u-1",
		models.SessionRole:              models.RoleSeller,
		models.SessionRegistrationStage: registration.SellerFlow.Marker(registration.StageShopDetails),
	})

	status, resp := g.submit(t, "/seller/create-shop", shopValues())
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
	assert.Equal(t, models.StateSucceeded, resp.State)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, "/seller/seller-product-list", resp.Redirect)

	assert.Equal(t, 1, g.api.count(http.MethodPost, "/api/shops"))
	sent := g.api.form(http.MethodPost, "/api/shops")
	assert.Equal(t, []string{"My Shop"}, sent["name"])
	assert.Equal(t, []string{"09171234567"}, sent["contact_number"])

	stored := g.session(t, sess.ID)
	assert.Equal(t, "12", stored.ShopID())
	assert.Equal(t, registration.SellerFlow.Marker(registration.StageApproved), stored.Get(models.SessionRegistrationStage))
	t.Log("✅ shop created, wizard finished")
}

func TestScenarioB_EmptyShopNameNeverLeavesGateway(t *testing.T) {
	t.Log("🚀 Scenario B: create shop without a name")
	g := startGateway(t)
	g.signIn(t, map[string]string{
		models.SessionUserID:            "u-1",
		models.SessionRole:              models.RoleSeller,
		models.SessionRegistrationStage: registration.SellerFlow.Marker(registration.StageShopDetails),
	})

	values := shopValues()
	values["name"] = ""
	status, resp := g.submit(t, "/seller/create-shop", values)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, models.OutcomeClientValidation, resp.Outcome)
	assert.Equal(t, "Shop name is required", resp.Errors["name"])
	assert.Equal(t, 0, g.api.count(http.MethodPost, "/api/shops"))
	t.Log("✅ rejected locally")
}

func TestScenarioC_ServerFieldErrorKeepsValues(t *testing.T) {
	t.Log("🚀 Scenario C: server rejects the product price")
	g := startGateway(t)
	g.api.on(http.MethodPost, "/api/products", respond(http.StatusUnprocessableEntity,
		`{"success":false,"errors":{"price":"Please enter a valid price"}}`))
	g.signIn(t, map[string]string{
		models.SessionUserID:            "u-1",
		models.SessionShopID:            "12",
		models.SessionRole:              models.RoleSeller,
		models.SessionRegistrationStage: registration.SellerFlow.Marker(registration.StageApproved),
	})

	values := map[string]interface{}{
		"name":        "Wireless Mouse",
		"description": "Quiet ergonomic wireless mouse",
		"price":       "0.01",
		"stock":       "5",
		"category":    "electronics",
	}
	status, resp := g.submit(t, "/seller/products", values)

	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, models.OutcomeServerValidation, resp.Outcome)
	assert.Equal(t, "Please enter a valid price", resp.Errors["price"])
	assert.Equal(t, "Wireless Mouse", resp.Values["name"])
	assert.Equal(t, "Quiet ergonomic wireless mouse", resp.Values["description"])
	assert.Equal(t, "5", resp.Values["stock"])

	r, raw := g.send(t, http.MethodGet, "/seller/products/draft", "")
	require.Equal(t, http.StatusOK, r.StatusCode)
	var draft flows.DraftResponse
	require.NoError(t, json.Unmarshal(raw, &draft))
	assert.Equal(t, models.StateFailed, draft.State)
	assert.Equal(t, "Please enter a valid price", draft.Errors["price"])
	assert.Equal(t, "electronics", draft.Values["category"])
	t.Log("✅ field error shown, values kept")
}

func TestScenarioD_CartQuantityAboveStock(t *testing.T) {
	t.Log("🚀 Scenario D: cart quantity above available stock")
	g := startGateway(t)
	g.api.on(http.MethodGet, "/api/cart", respond(http.StatusOK,
		`{"success":true,"data":{"items":[{"id":"i-1","productId":"p-1","name":"Phone case","price":199,"quantity":1,"available_stock":2}]}}`))
	g.signIn(t, map[string]string{models.SessionUserID: "u-1", models.SessionRole: models.RoleCustomer})

	r, raw := g.send(t, http.MethodPut, "/customer/cart/items/i-1", `{"quantity":3}`)
	assert.Equal(t, http.StatusUnprocessableEntity, r.StatusCode)
	assert.Contains(t, string(raw), "Only 2 item(s) left in stock")
	assert.Equal(t, 0, g.api.count(http.MethodPut, "/api/cart/items/i-1"))

	r, raw = g.send(t, http.MethodGet, "/customer/cart/items", "")
	require.Equal(t, http.StatusOK, r.StatusCode)
	var c models.Cart
	require.NoError(t, json.Unmarshal(raw, &c))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
	t.Log("✅ rejected before any network call")
}

// ==========================
// Journeys
// ==========================

func TestSellerJourney_SignupThroughShop(t *testing.T) {
	t.Log("🚀 seller signs up, creates a shop, lands on the product list")
	g := startGateway(t)
	g.api.on(http.MethodPost, "/api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "api_session", Value: "abc", Path: "/"})
		respond(http.StatusCreated, `{"success":true,"data":{"id":"u-77"}}`)(w, r)
	})
	g.api.on(http.MethodPost, "/api/shops", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(upstream.HeaderUserID) != "u-77" {
			respond(http.StatusUnauthorized, `{"success":false}`)(w, r)
			return
		}
		respond(http.StatusCreated, `{"success":true,"data":{"id":31}}`)(w, r)
	})
	g.api.on(http.MethodGet, "/api/shops/31/products", respond(http.StatusOK, `{"success":true,"data":[]}`))

	// skipping ahead is refused before signing up
	r, _ := g.send(t, http.MethodGet, "/seller/create-shop", "")
	assert.Equal(t, http.StatusSeeOther, r.StatusCode)
	assert.Equal(t, "/signup", r.Header.Get("Location"))

	status, resp := g.submit(t, "/signup", map[string]interface{}{
		"username":         "gadget_hub",
		"email":            "owner@gadgets.example",
		"password":         "s3cret-pass",
		"confirm_password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, status, resp.Message)
	assert.Equal(t, "/seller/create-shop", resp.Redirect)
	assert.NotContains(t, resp.Values, "password")

	status, resp = g.submit(t, "/seller/create-shop", shopValues())
	require.Equal(t, http.StatusOK, status, resp.Message)
	assert.Equal(t, "/seller/seller-product-list", resp.Redirect)

	r, raw := g.send(t, http.MethodGet, "/seller/seller-product-list", "")
	require.Equal(t, http.StatusOK, r.StatusCode, string(raw))
	assert.Equal(t, 1, g.api.count(http.MethodGet, "/api/shops/31/products"))

	// the finished signup screen now forwards to the current stage
	r, _ = g.send(t, http.MethodGet, "/signup", "")
	assert.Equal(t, http.StatusSeeOther, r.StatusCode)
	assert.Equal(t, "/seller/seller-product-list", r.Header.Get("Location"))
	t.Log("✅ seller journey complete")
}
