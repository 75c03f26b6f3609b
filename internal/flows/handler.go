// Package flows serves every form screen through one submit handler.
package flows

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"slices"

	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/guard"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/registration"
	"marketplace-gateway/internal/session"
	"marketplace-gateway/internal/upstream"
)

const multipartMemory = 8 << 20

// Success is what an OnSuccess hook sees and may change.
type Success struct {
	Writer   http.ResponseWriter
	Request  *http.Request
	Session  *models.Session
	Identity upstream.Identity
	Result   *form.Result
	// Redirect starts as the flow's SuccessRedirect.
	Redirect string
}

// Hook runs after a confirmed upstream success, in order. Errors are logged;
// upstream has already accepted the data so the response stays a success.
type Hook func(ctx context.Context, s *Success) error

// Flow is one form screen.
type Flow struct {
	// Route is the gateway path the form posts to.
	Route      string
	Definition form.Definition
	Defaults   map[string]interface{}
	// VariantsField receives the decoded variant tree, when the form has one.
	VariantsField string

	// Registration and Stage, when set, only accept posts from sessions
	// currently on that stage.
	Registration *registration.Flow
	Stage        registration.Stage
	RequireAuth  bool
	// Roles, when set, only accept posts from users holding one of them.
	Roles []string

	// FromSession copies session values into the submission (form field ->
	// session key), overriding anything the browser sent under that name.
	FromSession map[string]string
	// Secret fields are never echoed back nor persisted in drafts.
	Secret []string

	// PathFor builds the upstream path from the posted values.
	PathFor         func(r *http.Request, values map[string]interface{}) string
	SuccessRedirect string
	OnSuccess       []Hook
}

// Dependencies are shared by every flow.
type Dependencies struct {
	Coordinator    *form.Coordinator
	Instances      *form.Instances
	Sessions       *session.Manager
	Drafts         *form.DraftRepository
	Errors         *gwerrors.ErrorHandler
	Logger         logger.Logger
	MaxUploadBytes int64
	LoginPath      string
	// Roles resolves a role the session has not cached yet. Without it the
	// session's own role is used.
	Roles guard.RoleResolver
}

type Handler struct {
	deps Dependencies
}

func NewHandler(deps Dependencies) *Handler {
	if deps.LoginPath == "" {
		deps.LoginPath = "/login"
	}
	return &Handler{deps: deps}
}

// Response is the JSON body of every submit.
type Response struct {
	Success  bool                   `json:"success"`
	State    models.SubmissionState `json:"state"`
	Outcome  models.Outcome         `json:"outcome"`
	Errors   models.ErrorSet        `json:"errors,omitempty"`
	Values   map[string]string      `json:"values,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Details  string                 `json:"details,omitempty"`
	Redirect string                 `json:"redirect,omitempty"`
	Data     json.RawMessage        `json:"data,omitempty"`
}

// StatusFor maps a submission outcome to the gateway's HTTP status.
func StatusFor(o models.Outcome) int {
	switch o {
	case models.OutcomeSucceeded:
		return http.StatusOK
	case models.OutcomeBusy:
		return http.StatusConflict
	case models.OutcomeClientValidation, models.OutcomeServerValidation:
		return http.StatusUnprocessableEntity
	case models.OutcomeAuth:
		return http.StatusUnauthorized
	case models.OutcomeNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// Submit handles POST for flow.
func (h *Handler) Submit(flow Flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := session.FromContext(ctx)
		if sess == nil {
			h.deps.Errors.Write(w, gwerrors.NewInternalError(errors.New("no session in context")))
			return
		}
		log := h.deps.Logger.WithFields(map[string]interface{}{"form": flow.Definition.Name, "sessionId": sess.ID})

		if flow.RequireAuth && !sess.IsAuthenticated() {
			h.writeJSON(w, http.StatusUnauthorized, Response{
				Outcome:  models.OutcomeAuth,
				State:    models.StateIdle,
				Message:  form.MessageAuth,
				Redirect: h.deps.LoginPath,
			})
			return
		}

		if len(flow.Roles) > 0 {
			role, err := h.role(r, sess)
			if err != nil {
				h.deps.Errors.Write(w, err)
				return
			}
			if !slices.Contains(flow.Roles, role) {
				log.Info("submit refused for role", map[string]interface{}{"role": role})
				h.deps.Errors.Write(w, gwerrors.NewForbiddenError("This form is not available for your account"))
				return
			}
		}

		if flow.Registration != nil {
			redirect, err := flow.Registration.Check(sess, flow.Stage)
			if err != nil {
				h.deps.Errors.Write(w, gwerrors.NewInternalError(err))
				return
			}
			if redirect != "" {
				log.Info("submit refused for registration stage", map[string]interface{}{
					"current":  string(flow.Registration.Current(sess)),
					"redirect": redirect,
				})
				guard.WriteRedirect(w, r, redirect)
				return
			}
		}

		values, err := h.readValues(w, r, flow)
		if err != nil {
			h.deps.Errors.Write(w, err)
			return
		}

		for field, key := range flow.FromSession {
			if v := sess.Get(key); v != "" {
				values[field] = v
			}
		}

		inst, created := h.deps.Instances.Acquire(sess.ID, flow.Definition.Name, flow.Defaults)
		if created {
			h.restore(ctx, inst, sess.ID, flow, log)
		}
		ident := upstream.IdentityFrom(r, sess, h.deps.Sessions.CookieName())

		req := form.SubmitRequest{Identity: ident, Values: values}
		if flow.PathFor != nil {
			req.Path = flow.PathFor(r, mergeValues(inst.Draft.Values(), values))
		}

		res, err := h.deps.Coordinator.Submit(ctx, inst, flow.Definition, req)
		if err != nil && res == nil {
			h.deps.Errors.Write(w, err)
			return
		}
		if res.Response != nil {
			upstream.EchoCookies(w, res.Response)
		}

		out := Response{
			Success:  res.Succeeded(),
			State:    res.State,
			Outcome:  res.Outcome,
			Errors:   res.Errors,
			Values:   redact(res.Values, flow.Secret),
			Message:  res.Message,
			Details:  res.Details,
			Redirect: res.Redirect,
		}

		if res.Succeeded() {
			out.Redirect = h.runHooks(ctx, w, r, sess, ident, res, flow, log)
			if res.Response != nil {
				out.Data = res.Response.Envelope.Data
			}
			if h.deps.Drafts != nil {
				if err := h.deps.Drafts.Delete(ctx, sess.ID, flow.Definition.Name); err != nil {
					log.Warn("failed to delete draft", map[string]interface{}{"error": err.Error()})
				}
			}
			if sess.Dirty() {
				if err := h.deps.Sessions.Save(ctx, w, sess); err != nil {
					h.deps.Errors.Write(w, err)
					return
				}
			}
		} else if res.Outcome != models.OutcomeBusy && h.deps.Drafts != nil {
			snap := inst.Draft.Snapshot()
			snap.Values = redact(snap.Values, flow.Secret)
			if err := h.deps.Drafts.Save(ctx, sess.ID, flow.Definition.Name, snap); err != nil {
				log.Warn("failed to persist draft", map[string]interface{}{"error": err.Error()})
			}
		}

		h.writeJSON(w, StatusFor(res.Outcome), out)
	}
}

func (h *Handler) role(r *http.Request, sess *models.Session) (string, error) {
	if role := sess.Role(); role != "" || h.deps.Roles == nil {
		return role, nil
	}
	return h.deps.Roles.Resolve(r.Context(), sess, upstream.IdentityFrom(r, sess, h.deps.Sessions.CookieName()))
}

// restore seeds a fresh instance with the draft persisted by an earlier
// failed submit, possibly on another replica.
func (h *Handler) restore(ctx context.Context, inst *form.Instance, sessionID string, flow Flow, log logger.Logger) {
	if h.deps.Drafts == nil {
		return
	}
	snap, err := h.deps.Drafts.Get(ctx, sessionID, flow.Definition.Name)
	switch {
	case err == nil:
		inst.Draft.Restore(snap)
	case !errors.Is(err, form.ErrDraftNotFound):
		log.Warn("failed to load draft", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) runHooks(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *models.Session,
	ident upstream.Identity, res *form.Result, flow Flow, log logger.Logger) string {
	s := &Success{
		Writer:   w,
		Request:  r,
		Session:  sess,
		Identity: ident,
		Result:   res,
		Redirect: flow.SuccessRedirect,
	}
	for _, hook := range flow.OnSuccess {
		if err := hook(ctx, s); err != nil {
			log.Error("success hook failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return s.Redirect
}

// readValues parses a multipart or urlencoded body and keeps only the fields
// the flow knows about.
func (h *Handler) readValues(w http.ResponseWriter, r *http.Request, flow Flow) (map[string]interface{}, error) {
	if h.deps.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxUploadBytes)
	}

	var mf *multipart.Form
	err := r.ParseMultipartForm(multipartMemory)
	switch {
	case err == nil:
		mf = r.MultipartForm
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		mf = &multipart.Form{Value: r.PostForm}
	default:
		return nil, bodyError(err)
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	values, err := form.DecodeMultipart(mf, flow.VariantsField)
	if err != nil {
		return nil, gwerrors.NewValidationError(1).WithMetadata("errors", models.ErrorSet{
			variantsKey(flow): "Variants could not be read. Please re-enter them.",
		})
	}

	allowed := flow.Definition.Rules.Fields()
	if flow.VariantsField != "" {
		allowed = append(allowed, flow.VariantsField)
	}
	kept := make(map[string]interface{}, len(values))
	for _, field := range allowed {
		if v, ok := values[field]; ok {
			kept[field] = v
		}
	}
	return kept, nil
}

func variantsKey(flow Flow) string {
	if flow.VariantsField != "" {
		return flow.VariantsField
	}
	return models.GeneralErrorKey
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return gwerrors.NewValidationError(1).WithMetadata("errors", models.ErrorSet{
			models.GeneralErrorKey: "The upload is too large",
		})
	}
	return gwerrors.NewValidationError(1).WithMetadata("errors", models.ErrorSet{
		models.GeneralErrorKey: "The form could not be read",
	})
}

func redact(values map[string]string, secret []string) map[string]string {
	if len(secret) == 0 || values == nil {
		return values
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	for _, field := range secret {
		delete(out, field)
	}
	return out
}

func mergeValues(base, over map[string]interface{}) map[string]interface{} {
	for k, v := range over {
		base[k] = v
	}
	return base
}

// DraftResponse is the body of GET <path>/draft.
type DraftResponse struct {
	State    models.SubmissionState `json:"state"`
	Values   map[string]string      `json:"values"`
	Errors   models.ErrorSet        `json:"errors,omitempty"`
	Previews map[string]string      `json:"previews,omitempty"`
}

// Draft handles GET for the flow's saved draft: the live instance when this
// replica holds one, otherwise the persisted snapshot.
func (h *Handler) Draft(flow Flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if sess == nil {
			h.deps.Errors.Write(w, gwerrors.NewInternalError(errors.New("no session in context")))
			return
		}

		if inst, ok := h.deps.Instances.Lookup(sess.ID, flow.Definition.Name); ok {
			snap := inst.Draft.Snapshot()
			h.writeJSON(w, http.StatusOK, DraftResponse{
				State:    inst.State(),
				Values:   redact(snap.Values, flow.Secret),
				Errors:   snap.Errors,
				Previews: inst.Draft.Previews(),
			})
			return
		}

		resp := DraftResponse{State: models.StateIdle, Values: map[string]string{}}
		if h.deps.Drafts != nil {
			snap, err := h.deps.Drafts.Get(r.Context(), sess.ID, flow.Definition.Name)
			switch {
			case err == nil:
				resp.Values = snap.Values
				resp.Errors = snap.Errors
			case !errors.Is(err, form.ErrDraftNotFound):
				h.deps.Logger.Warn("failed to load draft", map[string]interface{}{
					"form":  flow.Definition.Name,
					"error": err.Error(),
				})
			}
		}
		h.writeJSON(w, http.StatusOK, resp)
	}
}

// Dismiss handles DELETE for the flow's draft. The live draft returns to its
// defaults after the reset delay unless the user edits it again; the persisted
// snapshot is dropped at once.
func (h *Handler) Dismiss(flow Flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if sess == nil {
			h.deps.Errors.Write(w, gwerrors.NewInternalError(errors.New("no session in context")))
			return
		}

		if inst, ok := h.deps.Instances.Lookup(sess.ID, flow.Definition.Name); ok {
			if inst.State() == models.StateSubmitting {
				h.deps.Errors.Write(w, gwerrors.NewSubmissionInProgressError(flow.Definition.Name))
				return
			}
			inst.Draft.Reset()
		}
		if h.deps.Drafts != nil {
			if err := h.deps.Drafts.Delete(r.Context(), sess.ID, flow.Definition.Name); err != nil {
				h.deps.Logger.Warn("failed to delete draft", map[string]interface{}{
					"form":  flow.Definition.Name,
					"error": err.Error(),
				})
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.deps.Logger.Warn("failed to write response", map[string]interface{}{"error": err.Error()})
	}
}
