// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"

	"marketplace-gateway/internal/models"
)

// ErrorHandler turns any error into the gateway's JSON error envelope.
type ErrorHandler struct {
	logger      Logger
	exposeCause bool
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// NewErrorHandler builds a handler. exposeDetails should only be true in development.
func NewErrorHandler(logger Logger, exposeDetails bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, exposeCause: exposeDetails}
}

// Body is the JSON shape written for every error response.
type Body struct {
	Success   bool   `json:"success"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`

	Errors models.ErrorSet `json:"errors,omitempty"`
}

// Envelope renders err as a Body, dropping details unless allowed.
func (h *ErrorHandler) Envelope(err error) Body {
	stdErr := AsStandard(err)
	body := Body{
		Success:   false,
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Retryable: stdErr.Retryable,
	}
	if h.exposeCause {
		body.Details = stdErr.Details
	}
	if errs, ok := stdErr.Metadata["errors"].(models.ErrorSet); ok {
		body.Errors = errs
	}
	return body
}

// Write logs err and writes it with the status derived from its code.
func (h *ErrorHandler) Write(w http.ResponseWriter, err error) {
	stdErr := AsStandard(err)
	status := HTTPStatus(stdErr.Code)

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"errorCode":     string(stdErr.Code),
			"details":       stdErr.Details,
			"retryable":     stdErr.Retryable,
			"errorCategory": GetErrorCategory(stdErr.Code),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(h.Envelope(stdErr))
}
