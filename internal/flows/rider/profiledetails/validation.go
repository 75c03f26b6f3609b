package profiledetails

import (
	"marketplace-gateway/internal/common/validation"
)

func GetRuleSet() validation.RuleSet {
	return validation.RuleSet{
		"first_name": {Label: "First name", Required: true, MaxLength: 50},
		"last_name":  {Label: "Last name", Required: true, MaxLength: 50},
		"phone": {
			Label:          "Phone number",
			Required:       true,
			Pattern:        validation.MobilePattern,
			PatternMessage: "Phone number must look like 09XXXXXXXXX",
		},
		"address": {Label: "Home address", Required: true, MinLength: 10, MaxLength: 255},
		"profile_photo": {
			Label:       "Profile photo",
			Required:    true,
			File:        true,
			AllowedMIME: validation.ImageMIMETypes,
			MaxBytes:    validation.MaxIdentityImageBytes,
			Messages:    map[string]string{validation.CodeRequired: "Please upload a profile photo"},
		},
	}
}
