package createshop

import (
	"marketplace-gateway/internal/common/validation"
)

func GetRuleSet() validation.RuleSet {
	return validation.RuleSet{
		"name": {
			Label:     "Shop name",
			Required:  true,
			MinLength: 2,
			MaxLength: 100,
		},
		"description": {
			Label:     "Description",
			Required:  true,
			MinLength: 10,
			MaxLength: 1000,
		},
		"region":   {Label: "Region", Required: true},
		"province": {Label: "Province", Required: true},
		"city":     {Label: "City", Required: true},
		"barangay": {Label: "Barangay", Required: true},
		"street":   {Label: "Street address", Required: true, MaxLength: 255},
		"contact_number": {
			Label:          "Contact number",
			Required:       true,
			Pattern:        validation.MobilePattern,
			PatternMessage: "Contact number must look like 09XXXXXXXXX",
		},
		"picture": {
			Label:       "Shop picture",
			File:        true,
			AllowedMIME: validation.ImageMIMETypes,
			MaxBytes:    validation.MaxIdentityImageBytes,
		},
	}
}
