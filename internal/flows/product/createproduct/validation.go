package createproduct

import (
	"fmt"
	"strings"

	"marketplace-gateway/internal/common/validation"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/models"
)

const (
	FieldMedia    = "media"
	FieldVariants = "variants"
)

var mediaRule = validation.Rule{
	Label:       "Media",
	File:        true,
	AllowedMIME: validation.MediaMIMETypes,
	MaxBytes:    validation.MaxProductMediaBytes,
}

// Per-option attributes the marketplace interprets.
var variantAttributeRules = map[string]validation.Rule{
	"price": {Label: "Variant price", Numeric: true, Min: validation.Float(0), ExclusiveMin: true},
	"stock": {Label: "Variant stock", Integer: true, Min: validation.Float(0)},
}

func GetRuleSet() validation.RuleSet {
	return validation.RuleSet{
		"name": {
			Label:     "Product name",
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
		"price": {
			Label:        "Price",
			Required:     true,
			Numeric:      true,
			Min:          validation.Float(0),
			ExclusiveMin: true,
		},
		"stock": {
			Label:    "Stock",
			Required: true,
			Integer:  true,
			Min:      validation.Float(0),
			Messages: map[string]string{validation.CodeMin: "Stock cannot be negative"},
		},
		"category": {Label: "Category", Required: true},
		// Checked by validateMedia since it may carry several files.
		FieldMedia: {Label: "Media"},
	}
}

// validator covers the fields the rule set cannot express.
func validator(maxFiles int) func(values map[string]interface{}) models.ErrorSet {
	return func(values map[string]interface{}) models.ErrorSet {
		errs := make(models.ErrorSet)
		if msg := validateMedia(values[FieldMedia], maxFiles); msg != "" {
			errs[FieldMedia] = msg
		}
		if msg := validateVariants(values[FieldVariants]); msg != "" {
			errs[FieldVariants] = msg
		}
		return errs
	}
}

func validateMedia(value interface{}, maxFiles int) string {
	var files []*models.FileRef
	switch v := value.(type) {
	case nil:
		return ""
	case *models.FileRef:
		files = []*models.FileRef{v}
	case []*models.FileRef:
		files = v
	default:
		return "Media must be a file"
	}
	if maxFiles > 0 && len(files) > maxFiles {
		return fmt.Sprintf("Upload at most %d media files", maxFiles)
	}
	for _, f := range files {
		if msg, ok := validation.ValidateValue(FieldMedia, f, mediaRule); !ok {
			return fmt.Sprintf("%s: %s", f.Filename, msg)
		}
	}
	return ""
}

func validateVariants(value interface{}) string {
	var tree form.VariantTree
	switch v := value.(type) {
	case nil:
		return ""
	case form.VariantTree:
		tree = v
	case *form.VariantTree:
		if v == nil {
			return ""
		}
		tree = *v
	default:
		return "Variants could not be read. Please re-enter them."
	}
	if err := tree.Validate(); err != nil {
		return "Every variant group and option needs its own id"
	}

	seen := make(map[string]bool, len(tree.Groups))
	for _, g := range tree.Groups {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return "Every variant group needs a name"
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Sprintf("Variant group %q is listed twice", name)
		}
		seen[key] = true

		if len(g.Options) == 0 {
			return fmt.Sprintf("Add at least one option to %s", name)
		}
		for _, o := range g.Options {
			if strings.TrimSpace(o.Attributes["name"]) == "" {
				return fmt.Sprintf("Every %s option needs a name", name)
			}
			for attr, rule := range variantAttributeRules {
				if msg, ok := validation.ValidateValue(attr, o.Attributes[attr], rule); !ok {
					return fmt.Sprintf("%s %s: %s", name, o.Attributes["name"], msg)
				}
			}
		}
	}
	return ""
}
