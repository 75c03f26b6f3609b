package credentials

import (
	"marketplace-gateway/internal/common/validation"
)

func GetRuleSet(minPassword int) validation.RuleSet {
	return validation.RuleSet{
		"email": {
			Label:          "Email",
			Required:       true,
			MaxLength:      254,
			Pattern:        validation.EmailPattern,
			PatternMessage: "Please enter a valid email address",
		},
		"password": {
			Label:     "Password",
			Required:  true,
			MinLength: minPassword,
			MaxLength: 128,
		},
		"confirm_password": {
			Label:       "Password confirmation",
			Required:    true,
			EqualsField: "password",
			Messages:    map[string]string{validation.CodeEquals: "Passwords do not match"},
		},
	}
}
