package requestreturn

import (
	"marketplace-gateway/internal/common/validation"
	"marketplace-gateway/internal/models"
)

// Reasons accepted by the refunds API.
var Reasons = []string{"damaged", "wrong_item", "not_as_described", "missing_parts", "changed_mind"}

// Reasons that need a photo of the item.
var evidenceRequired = map[string]bool{
	"damaged":          true,
	"wrong_item":       true,
	"not_as_described": true,
}

func GetRuleSet() validation.RuleSet {
	return validation.RuleSet{
		"order_id": {Label: "Order", Required: true},
		"reason": {
			Label:    "Reason",
			Required: true,
			OneOf:    Reasons,
			Messages: map[string]string{validation.CodeRequired: "Please choose a reason for the return"},
		},
		"description": {
			Label:     "Description",
			Required:  true,
			MinLength: 10,
			MaxLength: 1000,
		},
		"evidence": {
			Label:       "Photo evidence",
			File:        true,
			AllowedMIME: validation.ImageMIMETypes,
			MaxBytes:    validation.MaxIdentityImageBytes,
		},
	}
}

func validateEvidence(values map[string]interface{}) models.ErrorSet {
	reason, _ := values["reason"].(string)
	if evidenceRequired[reason] && validation.IsAbsent(values["evidence"]) {
		return models.ErrorSet{"evidence": "Please attach a photo of the item"}
	}
	return nil
}
