package validation

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"marketplace-gateway/internal/models"
)

// Upload limits enforced by the marketplace API.
const (
	MaxIdentityImageBytes int64 = 5 * 1024 * 1024
	MaxProductMediaBytes  int64 = 50 * 1024 * 1024
)

var (
	ImageMIMETypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	VideoMIMETypes = []string{"video/mp4", "video/quicktime"}
	MediaMIMETypes = append(append([]string{}, ImageMIMETypes...), VideoMIMETypes...)
)

// Violation codes, used as keys of Rule.Messages.
const (
	CodeRequired  = "required"
	CodeMinLength = "min_length"
	CodeMaxLength = "max_length"
	CodeNumber    = "number"
	CodeMin       = "min"
	CodeMax       = "max"
	CodePattern   = "pattern"
	CodeOneOf     = "one_of"
	CodeFile      = "file"
	CodeMIME      = "mime"
	CodeMaxBytes  = "max_bytes"
	CodeEquals    = "equals"
	CodeSingle    = "single"
)

// Rule describes the constraints of one form field.
type Rule struct {
	Label    string
	Required bool

	// Length bounds count runes of the trimmed value. Zero disables.
	MinLength int
	MaxLength int

	Numeric      bool
	Integer      bool
	Min          *float64
	Max          *float64
	ExclusiveMin bool

	Pattern        *regexp.Regexp
	PatternMessage string

	OneOf []string

	File        bool
	AllowedMIME []string
	MaxBytes    int64

	EqualsField string

	Messages map[string]string
}

// Float is a helper for Rule.Min and Rule.Max.
func Float(v float64) *float64 { return &v }

func (r Rule) label(field string) string {
	if r.Label != "" {
		return r.Label
	}
	words := strings.Fields(strings.ReplaceAll(field, "_", " "))
	if len(words) == 0 {
		return field
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}

func (r Rule) message(code, field, fallback string) string {
	if msg, ok := r.Messages[code]; ok {
		return msg
	}
	if code == CodePattern && r.PatternMessage != "" {
		return r.PatternMessage
	}
	return fallback
}

func (r Rule) invalidNumber(field string) string {
	return r.message(CodeNumber, field, "Please enter a valid "+strings.ToLower(r.label(field)))
}

// IsAbsent reports whether value counts as "not provided".
func IsAbsent(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case *models.FileRef:
		return v == nil || (v.Size == 0 && v.Filename == "")
	case bool:
		return !v
	}
	return false
}

// ValidateValue checks one value against rule. Cross-field rules are handled by RuleSet.
func ValidateValue(field string, value interface{}, rule Rule) (string, bool) {
	if IsAbsent(value) {
		if rule.Required {
			return rule.message(CodeRequired, field, rule.label(field)+" is required"), false
		}
		return "", true
	}

	if rule.File || rule.MaxBytes > 0 || len(rule.AllowedMIME) > 0 {
		return validateFile(field, value, rule)
	}

	// a field posted more than once arrives as a slice
	if _, ok := value.([]string); ok {
		return rule.message(CodeSingle, field, rule.label(field)+" must be sent once"), false
	}

	if rule.Numeric || rule.Integer {
		return validateNumber(field, value, rule)
	}

	str, ok := value.(string)
	if !ok {
		str = fmt.Sprint(value)
	}
	str = strings.TrimSpace(str)
	length := len([]rune(str))

	if rule.MinLength > 0 && length < rule.MinLength {
		return rule.message(CodeMinLength, field,
			fmt.Sprintf("%s must be at least %d characters", rule.label(field), rule.MinLength)), false
	}
	if rule.MaxLength > 0 && length > rule.MaxLength {
		return rule.message(CodeMaxLength, field,
			fmt.Sprintf("%s must be at most %d characters", rule.label(field), rule.MaxLength)), false
	}
	if rule.Pattern != nil && !rule.Pattern.MatchString(str) {
		return rule.message(CodePattern, field, rule.label(field)+" is invalid"), false
	}
	if len(rule.OneOf) > 0 && !contains(rule.OneOf, str) {
		return rule.message(CodeOneOf, field, "Please select a valid "+strings.ToLower(rule.label(field))), false
	}
	return "", true
}

func validateNumber(field string, value interface{}, rule Rule) (string, bool) {
	var n float64
	switch v := value.(type) {
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return rule.invalidNumber(field), false
		}
		n = parsed
	default:
		return rule.invalidNumber(field), false
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return rule.invalidNumber(field), false
	}
	if rule.Integer && n != math.Trunc(n) {
		return rule.invalidNumber(field), false
	}
	if rule.Min != nil {
		if n < *rule.Min || (rule.ExclusiveMin && n == *rule.Min) {
			return rule.message(CodeMin, field, rule.invalidNumber(field)), false
		}
	}
	if rule.Max != nil && n > *rule.Max {
		return rule.message(CodeMax, field, rule.invalidNumber(field)), false
	}
	return "", true
}

func validateFile(field string, value interface{}, rule Rule) (string, bool) {
	file, ok := value.(*models.FileRef)
	if !ok {
		return rule.message(CodeFile, field, rule.label(field)+" must be a file"), false
	}
	if len(rule.AllowedMIME) > 0 && !contains(rule.AllowedMIME, file.ContentType) {
		return rule.message(CodeMIME, field,
			fmt.Sprintf("%s must be one of: %s", rule.label(field), strings.Join(rule.AllowedMIME, ", "))), false
	}
	if rule.MaxBytes > 0 && file.Size > rule.MaxBytes {
		return rule.message(CodeMaxBytes, field,
			fmt.Sprintf("%s must be %s or smaller", rule.label(field), formatBytes(rule.MaxBytes))), false
	}
	return "", true
}

// RuleSet maps field name to its rule.
type RuleSet map[string]Rule

// Validate checks every ruled field, present or not.
func (rs RuleSet) Validate(values map[string]interface{}) models.ErrorSet {
	errs := make(models.ErrorSet)
	for _, field := range rs.Fields() {
		rule := rs[field]
		value := values[field]
		if msg, ok := ValidateValue(field, value, rule); !ok {
			errs[field] = msg
			continue
		}
		if rule.EqualsField != "" && !IsAbsent(value) {
			if fmt.Sprint(value) != fmt.Sprint(values[rule.EqualsField]) {
				errs[field] = rule.message(CodeEquals, field, rule.label(field)+" does not match")
			}
		}
	}
	return errs
}

// Fields returns the ruled field names in stable order.
func (rs RuleSet) Fields() []string {
	fields := make([]string, 0, len(rs))
	for f := range rs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func formatBytes(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
