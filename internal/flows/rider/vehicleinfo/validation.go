package vehicleinfo

import (
	"regexp"
	"strings"

	"marketplace-gateway/internal/common/validation"
	"marketplace-gateway/internal/models"
)

var VehicleTypes = []string{"bicycle", "e_bike", "motorcycle", "car", "van"}

var licensePattern = regexp.MustCompile(`^[A-Z]\d{2}-\d{2}-\d{6}$`)

func photoRule(label string, required bool) validation.Rule {
	return validation.Rule{
		Label:       label,
		Required:    required,
		File:        true,
		AllowedMIME: validation.ImageMIMETypes,
		MaxBytes:    validation.MaxIdentityImageBytes,
		Messages:    map[string]string{validation.CodeRequired: "Please upload a " + strings.ToLower(label)},
	}
}

func GetRuleSet() validation.RuleSet {
	return validation.RuleSet{
		"vehicle_type": {
			Label:    "Vehicle type",
			Required: true,
			OneOf:    VehicleTypes,
		},
		"plate_number": {
			Label:          "Plate number",
			Pattern:        validation.PlateNumberPattern,
			PatternMessage: "Plate number must look like ABC 1234",
		},
		"license_number": {
			Label:          "License number",
			Pattern:        licensePattern,
			PatternMessage: "License number must look like N01-12-123456",
		},
		"vehicle_photo": photoRule("Vehicle photo", true),
		"license_photo": photoRule("License photo", false),
	}
}

// validateMotorized requires plate and license details for anything with an engine.
func validateMotorized(values map[string]interface{}) models.ErrorSet {
	kind, _ := values["vehicle_type"].(string)
	if kind == "" || kind == "bicycle" {
		return nil
	}
	errs := make(models.ErrorSet)
	if validation.IsAbsent(values["plate_number"]) {
		errs["plate_number"] = "Plate number is required"
	}
	if validation.IsAbsent(values["license_number"]) {
		errs["license_number"] = "License number is required"
	}
	if validation.IsAbsent(values["license_photo"]) {
		errs["license_photo"] = "Please upload a license photo"
	}
	return errs
}

// normalize upper-cases identifiers the way the registry stores them.
func normalize(values map[string]interface{}) map[string]interface{} {
	for _, field := range []string{"plate_number", "license_number"} {
		if s, ok := values[field].(string); ok {
			values[field] = strings.ToUpper(strings.TrimSpace(s))
		}
	}
	return values
}
