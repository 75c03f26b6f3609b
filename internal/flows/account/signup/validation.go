package signup

import (
	"regexp"

	"marketplace-gateway/internal/common/validation"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

func GetRuleSet(minPassword int) validation.RuleSet {
	return validation.RuleSet{
		"username": {
			Label:          "Username",
			Required:       true,
			MinLength:      3,
			MaxLength:      30,
			Pattern:        usernamePattern,
			PatternMessage: "Username may only contain letters, numbers, dots and underscores",
		},
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
