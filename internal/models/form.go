package models

import "strings"

// GeneralErrorKey holds a single, non field-specific message.
const GeneralErrorKey = "general"

// SubmissionState is the lifecycle of one form instance.
type SubmissionState string

const (
	StateIdle       SubmissionState = "idle"
	StateSubmitting SubmissionState = "submitting"
	StateSucceeded  SubmissionState = "succeeded"
	StateFailed     SubmissionState = "failed"
)

// Outcome classifies how a submission ended.
type Outcome string

const (
	OutcomeBusy             Outcome = "busy"
	OutcomeClientValidation Outcome = "client_validation"
	OutcomeNetwork          Outcome = "network"
	OutcomeAuth             Outcome = "auth"
	OutcomeServerValidation Outcome = "server_validation"
	OutcomeServerError      Outcome = "server_error"
	OutcomeSucceeded        Outcome = "succeeded"
)

// ErrorSet maps field name to a human-readable message.
type ErrorSet map[string]string

// Has reports whether field carries an error.
func (e ErrorSet) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Merge overwrites entries for the fields named in other; the rest persist.
func (e ErrorSet) Merge(other ErrorSet) {
	for field, msg := range other {
		e[field] = msg
	}
}

// Clear removes the entry for field only.
func (e ErrorSet) Clear(field string) {
	delete(e, field)
}

// Clone returns an independent copy.
func (e ErrorSet) Clone() ErrorSet {
	out := make(ErrorSet, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// FileRef is a file selected for upload.
type FileRef struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Content     []byte `json:"-"`
}

// IsImage reports whether the content type is an image/* type.
func (f *FileRef) IsImage() bool {
	return f != nil && strings.HasPrefix(f.ContentType, "image/")
}
