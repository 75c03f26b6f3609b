package form

import (
	"context"
	"errors"
	"net/http"
	"time"

	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/common/metrics"
	"marketplace-gateway/internal/common/observability"
	"marketplace-gateway/internal/common/validation"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/upstream"
)

// Messages shown when the failure carries no field errors of its own.
const (
	MessageNetwork          = "We couldn't reach the server. Please check your connection and try again."
	MessageServerError      = "Something went wrong on our side. Please try again later."
	MessageServerValidation = "The server rejected this submission. Please review the form."
	MessageAuth             = "Your session has expired. Please sign in again."
)

// Definition describes what one form screen submits and how it is checked.
type Definition struct {
	Name    string
	Method  string
	Path    string
	Timeout time.Duration
	Rules   validation.RuleSet

	// Validate adds checks that span fields or need structured values.
	Validate func(values map[string]interface{}) models.ErrorSet
	// Transform adjusts the values sent upstream; the draft itself is untouched.
	Transform func(values map[string]interface{}) map[string]interface{}
	// CredentialCheck treats 401/403 as a rejection of the submitted
	// credentials rather than an expired session.
	CredentialCheck bool
}

// SubmitRequest is one submit action from the browser.
type SubmitRequest struct {
	Identity upstream.Identity
	// Values are written into the draft before validation.
	Values map[string]interface{}
	// Path overrides Definition.Path, e.g. when it carries an id.
	Path string
}

// Result is everything a handler needs to answer a submit.
type Result struct {
	Outcome  models.Outcome         `json:"outcome"`
	State    models.SubmissionState `json:"state"`
	Errors   models.ErrorSet        `json:"errors,omitempty"`
	Values   map[string]string      `json:"values,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Details  string                 `json:"details,omitempty"`
	Status   int                    `json:"-"`
	Redirect string                 `json:"redirect,omitempty"`
	Response *upstream.Response     `json:"-"`
}

// Succeeded reports a confirmed upstream success.
func (r *Result) Succeeded() bool {
	return r.Outcome == models.OutcomeSucceeded
}

// Doer issues upstream requests.
type Doer interface {
	Do(ctx context.Context, req upstream.Request) (*upstream.Response, error)
}

// Coordinator runs the submission protocol for every form instance.
type Coordinator struct {
	api           Doer
	gate          Gate
	ledger        Recorder
	obs           *observability.Observability
	logger        logger.Logger
	loginPath     string
	exposeDetails bool
}

type CoordinatorOption func(*Coordinator)

func WithGate(g Gate) CoordinatorOption {
	return func(c *Coordinator) { c.gate = g }
}

func WithLedger(r Recorder) CoordinatorOption {
	return func(c *Coordinator) { c.ledger = r }
}

func WithObservability(o *observability.Observability) CoordinatorOption {
	return func(c *Coordinator) { c.obs = o }
}

// WithDetails exposes upstream error details to clients. Development only.
func WithDetails(expose bool) CoordinatorOption {
	return func(c *Coordinator) { c.exposeDetails = expose }
}

func WithLoginPath(path string) CoordinatorOption {
	return func(c *Coordinator) { c.loginPath = path }
}

func NewCoordinator(api Doer, log logger.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		api:       api,
		gate:      NewLocalGate(),
		ledger:    NopLedger{},
		logger:    log.WithFields(map[string]interface{}{"component": "submission-coordinator"}),
		loginPath: "/login",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit validates the draft and, when it passes, sends it upstream. A call
// made while the instance is already submitting returns a busy result and a
// SUBMISSION_IN_PROGRESS error without touching the draft or the network.
func (c *Coordinator) Submit(ctx context.Context, inst *Instance, def Definition, req SubmitRequest) (*Result, error) {
	prev, ok := inst.begin()
	if !ok {
		return c.busy(inst), gwerrors.NewSubmissionInProgressError(def.Name)
	}

	timeout := def.Timeout
	release, err := c.gate.Acquire(ctx, inst.Key, timeout+5*time.Second)
	if err != nil {
		inst.finish(prev)
		if !errors.Is(err, ErrGateHeld) {
			c.logger.Warn("submission gate failed", map[string]interface{}{"form": def.Name, "error": err.Error()})
		}
		return c.busy(inst), gwerrors.NewSubmissionInProgressError(def.Name)
	}
	defer release()

	start := time.Now()
	result := c.run(ctx, inst, def, req)
	inst.finish(result.State)
	c.record(ctx, inst, def, result, time.Since(start))
	return result, nil
}

func (c *Coordinator) busy(inst *Instance) *Result {
	return &Result{
		Outcome: models.OutcomeBusy,
		State:   models.StateSubmitting,
		Errors:  inst.Draft.Errors(),
		Message: "Your previous submission is still being processed",
	}
}

func (c *Coordinator) run(ctx context.Context, inst *Instance, def Definition, req SubmitRequest) *Result {
	draft := inst.Draft
	for field, value := range req.Values {
		draft.Set(field, value)
	}

	values := draft.Values()
	errs := def.Rules.Validate(values)
	if def.Validate != nil {
		errs.Merge(def.Validate(values))
	}
	if len(errs) > 0 {
		draft.SetErrors(errs)
		return c.failed(draft, models.OutcomeClientValidation, 0, "")
	}

	if def.Transform != nil {
		values = def.Transform(values)
	}
	body, contentType, err := EncodeMultipart(values)
	if err != nil {
		c.logger.Error("failed to encode submission", map[string]interface{}{"form": def.Name, "error": err.Error()})
		res := c.failed(draft, models.OutcomeServerError, 0, MessageServerError)
		res.Details = c.details(err.Error())
		return res
	}

	path := def.Path
	if req.Path != "" {
		path = req.Path
	}
	method := def.Method
	if method == "" {
		method = http.MethodPost
	}

	inFlight := metrics.SubmissionsInFlight.WithLabelValues(def.Name)
	inFlight.Inc()
	resp, err := c.api.Do(ctx, upstream.Request{
		Method:      method,
		Path:        path,
		Identity:    req.Identity,
		Body:        body,
		ContentType: contentType,
		Timeout:     def.Timeout,
	})
	inFlight.Dec()

	if err != nil {
		// no response at all: the user's values and errors stay as they were
		c.logger.Warn("submission did not reach upstream", map[string]interface{}{
			"form":  def.Name,
			"error": err.Error(),
		})
		res := c.failed(draft, models.OutcomeNetwork, 0, MessageNetwork)
		res.Details = c.details(err.Error())
		return res
	}

	return c.classify(draft, def, resp)
}

func (c *Coordinator) classify(draft *Draft, def Definition, resp *upstream.Response) *Result {
	switch {
	case (resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden) && !def.CredentialCheck:
		res := c.failed(draft, models.OutcomeAuth, resp.Status, MessageAuth)
		res.Redirect = c.loginPath
		res.Response = resp
		return res

	case resp.Status >= 500 || resp.Malformed != nil:
		c.logger.Error("upstream failed to process submission", map[string]interface{}{
			"form":   def.Name,
			"status": resp.Status,
		})
		res := c.failed(draft, models.OutcomeServerError, resp.Status, MessageServerError)
		res.Response = resp
		if resp.Malformed != nil {
			res.Details = c.details(resp.Malformed.Error())
		} else {
			res.Details = c.details(truncateDetails(resp.Body))
		}
		return res

	case resp.Status >= 400 || !resp.Envelope.Succeeded():
		serverErrs := resp.Envelope.ErrorSet()
		if len(serverErrs) == 0 {
			serverErrs = models.ErrorSet{models.GeneralErrorKey: MessageServerValidation}
		}
		draft.MergeServerErrors(serverErrs)
		res := c.failed(draft, models.OutcomeServerValidation, resp.Status, "")
		res.Message = serverErrs[models.GeneralErrorKey]
		res.Response = resp
		return res
	}

	// a confirmed success discards the draft; the next submit starts from defaults
	values := draft.Snapshot().Values
	draft.ResetNow()
	return &Result{
		Outcome:  models.OutcomeSucceeded,
		State:    models.StateSucceeded,
		Errors:   models.ErrorSet{},
		Values:   values,
		Message:  resp.Envelope.Message,
		Status:   resp.Status,
		Response: resp,
	}
}

func (c *Coordinator) failed(draft *Draft, outcome models.Outcome, status int, message string) *Result {
	return &Result{
		Outcome: outcome,
		State:   models.StateFailed,
		Errors:  draft.Errors(),
		Values:  draft.Snapshot().Values,
		Message: message,
		Status:  status,
	}
}

func (c *Coordinator) details(s string) string {
	if !c.exposeDetails {
		return ""
	}
	return s
}

func truncateDetails(b []byte) string {
	const limit = 512
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}

func (c *Coordinator) record(ctx context.Context, inst *Instance, def Definition, res *Result, d time.Duration) {
	metrics.FormSubmissions.WithLabelValues(def.Name, string(res.Outcome)).Inc()
	metrics.FormSubmissionDuration.WithLabelValues(def.Name).Observe(d.Seconds())
	c.obs.RecordSubmission(ctx, def.Name, string(res.Outcome), d)

	err := c.ledger.Record(context.WithoutCancel(ctx), Entry{
		Form:      def.Name,
		SessionID: inst.SessionID,
		Outcome:   res.Outcome,
		Status:    res.Status,
		Duration:  d,
	})
	if err != nil {
		c.logger.Warn("failed to record submission", map[string]interface{}{
			"form":  def.Name,
			"error": err.Error(),
		})
	}

	c.logger.Info("form submitted", map[string]interface{}{
		"form":     def.Name,
		"outcome":  string(res.Outcome),
		"status":   res.Status,
		"duration": d.Milliseconds(),
	})
}
