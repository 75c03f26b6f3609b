package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"marketplace-gateway/internal/models"
)

// Envelope is the response shape of the marketplace API.
type Envelope struct {
	Success *bool           `json:"success,omitempty"`
	Errors  FieldErrors     `json:"errors,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"-"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Succeeded reports success:true with no errors. A missing success flag counts
// as success only when no errors are present.
func (e *Envelope) Succeeded() bool {
	if len(e.Errors) > 0 || e.Error != "" {
		return false
	}
	return e.Success == nil || *e.Success
}

// ErrorSet returns the field errors, falling back to the single message
// under the general key when the server named no field.
func (e *Envelope) ErrorSet() models.ErrorSet {
	if len(e.Errors) > 0 {
		return models.ErrorSet(e.Errors).Clone()
	}
	msg := e.Error
	if msg == "" {
		msg = e.Message
	}
	if msg == "" {
		return models.ErrorSet{}
	}
	return models.ErrorSet{models.GeneralErrorKey: msg}
}

// DecodeData unmarshals the data member into dst.
func (e *Envelope) DecodeData(dst interface{}) error {
	if len(e.Data) == 0 || bytes.Equal(e.Data, []byte("null")) {
		return fmt.Errorf("response has no data")
	}
	return json.Unmarshal(e.Data, dst)
}

func (e *Envelope) UnmarshalJSON(b []byte) error {
	var raw struct {
		Success *bool           `json:"success"`
		Errors  FieldErrors     `json:"errors"`
		Message *string         `json:"message"`
		Error   json.RawMessage `json:"error"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	e.Success = raw.Success
	e.Errors = raw.Errors
	e.Data = raw.Data
	if raw.Message != nil {
		e.Message = *raw.Message
	}
	if len(raw.Error) > 0 && !bytes.Equal(raw.Error, []byte("null")) {
		var s string
		if err := json.Unmarshal(raw.Error, &s); err == nil {
			e.Error = s
		} else {
			e.Error = string(raw.Error)
		}
	}
	return nil
}

// FieldErrors accepts {"f":"msg"}, {"f":["msg",...]} or a bare "msg".
type FieldErrors map[string]string

func (f *FieldErrors) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		if single != "" {
			*f = FieldErrors{models.GeneralErrorKey: single}
		}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("errors must be an object or a string: %w", err)
	}

	out := make(FieldErrors, len(obj))
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var msg string
		if err := json.Unmarshal(obj[k], &msg); err == nil {
			out[k] = msg
			continue
		}
		var msgs []string
		if err := json.Unmarshal(obj[k], &msgs); err == nil {
			if len(msgs) > 0 {
				out[k] = msgs[0]
			}
			continue
		}
		return fmt.Errorf("errors.%s must be a string or a list of strings", k)
	}
	*f = out
	return nil
}
