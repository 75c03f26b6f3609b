// Package createproduct is the seller's product listing form, including
// media uploads and the variant editor.
package createproduct

import (
	"net/http"
	"strings"

	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/registration"
)

const (
	FormName = "create-product"
	Route    = "/seller/products"
)

func NewFlow(config *Config) flows.Flow {
	return flows.Flow{
		Route: Route,
		Definition: form.Definition{
			Name:      FormName,
			Method:    http.MethodPost,
			Path:      config.UpstreamPath,
			Timeout:   config.Timeout,
			Rules:     GetRuleSet(),
			Validate:  validator(config.MaxMediaFiles),
			Transform: normalizeVariants,
		},
		VariantsField:   FieldVariants,
		Registration:    registration.SellerFlow,
		Stage:           registration.StageApproved,
		RequireAuth:     true,
		Roles:           []string{models.RoleSeller},
		SuccessRedirect: config.SuccessRedirect,
	}
}

// normalizeVariants trims group and option names before the tree is
// re-encoded for the API. Empty trees are dropped.
func normalizeVariants(values map[string]interface{}) map[string]interface{} {
	tree, ok := values[FieldVariants].(form.VariantTree)
	if !ok {
		return values
	}
	if len(tree.Groups) == 0 {
		delete(values, FieldVariants)
		return values
	}

	out := form.VariantTree{Groups: make([]form.VariantGroup, len(tree.Groups))}
	for i, g := range tree.Groups {
		group := form.VariantGroup{
			ID:      g.ID,
			Name:    strings.TrimSpace(g.Name),
			Options: make([]form.VariantOption, len(g.Options)),
		}
		for j, o := range g.Options {
			attrs := make(map[string]string, len(o.Attributes))
			for k, v := range o.Attributes {
				attrs[k] = strings.TrimSpace(v)
			}
			group.Options[j] = form.VariantOption{ID: o.ID, Attributes: attrs}
		}
		out.Groups[i] = group
	}
	values[FieldVariants] = out
	return values
}
