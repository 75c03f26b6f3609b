// Package createshop is the seller's shop details step.
package createshop

import (
	"net/http"

	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/registration"
)

const (
	FormName = "create-shop"
	Route    = "/seller/create-shop"
)

// NewFlow builds the create-shop screen. Only sessions on the shop_details
// stage of the seller wizard may submit; success records the new shop and
// finishes the wizard.
func NewFlow(config *Config) flows.Flow {
	return flows.Flow{
		Route: Route,
		Definition: form.Definition{
			Name:    FormName,
			Method:  http.MethodPost,
			Path:    config.UpstreamPath,
			Timeout: config.Timeout,
			Rules:   GetRuleSet(),
		},
		Registration:    registration.SellerFlow,
		Stage:           registration.StageShopDetails,
		RequireAuth:     true,
		Roles:           []string{models.RoleSeller},
		SuccessRedirect: config.SuccessRedirect,
		OnSuccess: []flows.Hook{
			flows.StoreData(map[string]string{
				"id":     models.SessionShopID,
				"shopId": models.SessionShopID,
			}),
			flows.AdvanceStage(registration.SellerFlow, registration.StageShopDetails),
		},
	}
}
