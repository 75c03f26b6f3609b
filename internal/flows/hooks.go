package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"marketplace-gateway/internal/registration"
)

// DataFields decodes the upstream data object into flat string values.
// Numbers keep their literal form; nested values are skipped.
func DataFields(s *Success) (map[string]string, error) {
	out := make(map[string]string)
	if s.Result == nil || s.Result.Response == nil {
		return out, nil
	}
	data := s.Result.Response.Envelope.Data
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(data, []byte("null")) {
		return out, nil
	}

	var raw map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode upstream data: %w", err)
	}
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = fmt.Sprint(val)
		}
	}
	return out, nil
}

// StoreData copies upstream data fields into the session. mapping is
// data field -> session key.
func StoreData(mapping map[string]string) Hook {
	return func(_ context.Context, s *Success) error {
		fields, err := DataFields(s)
		if err != nil {
			return err
		}
		for dataField, key := range mapping {
			if v, ok := fields[dataField]; ok && v != "" {
				s.Session.Set(key, v)
			}
		}
		return nil
	}
}

// StoreValues copies submitted values into the session. mapping is
// form field -> session key.
func StoreValues(mapping map[string]string) Hook {
	return func(_ context.Context, s *Success) error {
		for field, key := range mapping {
			if v := s.Result.Values[field]; v != "" {
				s.Session.Set(key, v)
			}
		}
		return nil
	}
}

// SetSession writes a fixed session value.
func SetSession(key, value string) Hook {
	return func(_ context.Context, s *Success) error {
		s.Session.Set(key, value)
		return nil
	}
}

// AdvanceStage moves the session past from and redirects to the next stage.
func AdvanceStage(flow *registration.Flow, from registration.Stage) Hook {
	return func(_ context.Context, s *Success) error {
		next, err := flow.Advance(s.Session, from)
		if err != nil {
			return err
		}
		s.Redirect = flow.URL(next)
		return nil
	}
}
