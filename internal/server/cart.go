package server

import (
	"encoding/json"
	"errors"
	"net/http"

	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/cart"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/session"
	"marketplace-gateway/internal/upstream"

	"github.com/go-chi/chi/v5"
)

// CartHandlers expose the optimistic cart to the browser.
type CartHandlers struct {
	service  *cart.Service
	sessions *session.Manager
	errors   *gwerrors.ErrorHandler
}

func NewCartHandlers(service *cart.Service, sessions *session.Manager, errHandler *gwerrors.ErrorHandler) *CartHandlers {
	return &CartHandlers{service: service, sessions: sessions, errors: errHandler}
}

// Routes mounts the cart endpoints next to the cart screen. Every one needs a
// signed-in session.
func (h *CartHandlers) Routes(r chi.Router) {
	authed := r.With(requireAuth(h.errors))
	authed.Get("/customer/cart/items", h.get)
	authed.Post("/customer/cart/refresh", h.refresh)
	authed.Put("/customer/cart/items/{itemId}", h.updateQuantity)
	authed.Delete("/customer/cart/items/{itemId}", h.remove)
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandlers) get(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	c, err := h.service.Snapshot(r.Context(), sess.ID)
	if errors.Is(err, cart.ErrSnapshotMissing) {
		c, err = h.service.Refresh(r.Context(), h.identity(r, sess), sess.ID)
	}
	h.respond(w, c, err)
}

func (h *CartHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	c, err := h.service.Refresh(r.Context(), h.identity(r, sess), sess.ID)
	h.respond(w, c, err)
}

func (h *CartHandlers) updateQuantity(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		h.errors.Write(w, gwerrors.NewValidationError(1).WithMetadata("errors", models.ErrorSet{
			"quantity": "Please enter a valid quantity",
		}))
		return
	}

	c, err := h.service.UpdateQuantity(r.Context(), h.identity(r, sess), sess.ID, chi.URLParam(r, "itemId"), *req.Quantity)
	h.respond(w, c, err)
}

func (h *CartHandlers) remove(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	c, err := h.service.RemoveItem(r.Context(), h.identity(r, sess), sess.ID, chi.URLParam(r, "itemId"))
	h.respond(w, c, err)
}

func (h *CartHandlers) identity(r *http.Request, sess *models.Session) upstream.Identity {
	return upstream.IdentityFrom(r, sess, h.sessions.CookieName())
}

// cartError carries the rolled-back cart alongside the failure.
type cartError struct {
	gwerrors.Body
	Cart *models.Cart `json:"cart,omitempty"`
}

func (h *CartHandlers) respond(w http.ResponseWriter, c *models.Cart, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		if c == nil {
			h.errors.Write(w, err)
			return
		}
		w.WriteHeader(gwerrors.HTTPStatus(gwerrors.AsStandard(err).Code))
		_ = json.NewEncoder(w).Encode(cartError{Body: h.errors.Envelope(err), Cart: c})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(c)
}

func requireAuth(errHandler *gwerrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			if sess == nil || !sess.IsAuthenticated() {
				errHandler.Write(w, gwerrors.NewAuthenticationError("sign in to use the cart"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
