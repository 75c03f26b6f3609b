package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrMalformedEnvelope = errors.New("MALFORMED_ENVELOPE")

// envelopeSchema is the response shape every marketplace API endpoint returns.
var envelopeSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"success": map[string]interface{}{"type": "boolean"},
		"message": map[string]interface{}{"type": []interface{}{"string", "null"}},
		"error":   map[string]interface{}{"type": []interface{}{"string", "object", "null"}},
		"errors": map[string]interface{}{
			"type": []interface{}{"object", "string", "null"},
			"additionalProperties": map[string]interface{}{
				"type":  []interface{}{"string", "array"},
				"items": map[string]interface{}{"type": "string"},
			},
		},
	},
}

var envelopeLoader = gojsonschema.NewGoLoader(envelopeSchema)

// ValidateEnvelope checks an upstream body against the response envelope schema.
func ValidateEnvelope(body []byte) error {
	result, err := gojsonschema.Validate(envelopeLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrMalformedEnvelope, strings.Join(errs, "; "))
	}

	return nil
}

// Patterns shared by several forms.
var (
	EmailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	MobilePattern     = regexp.MustCompile(`^09\d{9}$`)
	PostalCodePattern = regexp.MustCompile(`^\d{4}$`)
	// Motorcycle plates are "123 ABC"-like, car plates "ABC 1234".
	PlateNumberPattern = regexp.MustCompile(`^(?:[A-Z]{3}[ -]?\d{3,4}|\d{3,4}[ -]?[A-Z]{2,3})$`)
)
