package login

import "marketplace-gateway/internal/common/validation"

func GetRuleSet() validation.RuleSet {
	return validation.RuleSet{
		"email":    {Label: "Email", Required: true, MaxLength: 254},
		"password": {Label: "Password", Required: true, MaxLength: 128},
	}
}
