package shippingaddress

import (
	"marketplace-gateway/internal/common/validation"
)

func GetRuleSet() validation.RuleSet {
	return validation.RuleSet{
		"recipient_name": {Label: "Recipient name", Required: true, MinLength: 2, MaxLength: 100},
		"phone": {
			Label:          "Phone number",
			Required:       true,
			Pattern:        validation.MobilePattern,
			PatternMessage: "Phone number must look like 09XXXXXXXXX",
		},
		"region":   {Label: "Region", Required: true},
		"province": {Label: "Province", Required: true},
		"city":     {Label: "City", Required: true},
		"barangay": {Label: "Barangay", Required: true},
		"street":   {Label: "Street address", Required: true, MaxLength: 255},
		"postal_code": {
			Label:          "Postal code",
			Required:       true,
			Pattern:        validation.PostalCodePattern,
			PatternMessage: "Postal code must be 4 digits",
		},
		"is_default": {Label: "Default address", OneOf: []string{"true", "false"}},
	}
}
