// Package signup registers a seller account, the first step of the seller wizard.
package signup

import (
	"net/http"

	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/registration"
)

const FormName = "signup"

var Route = registration.SellerFlow.URL(registration.StageCredentials)

func NewFlow(config *Config) flows.Flow {
	return flows.Flow{
		Route: Route,
		Definition: form.Definition{
			Name:    FormName,
			Method:  http.MethodPost,
			Path:    config.UpstreamPath,
			Timeout: config.Timeout,
			Rules:   GetRuleSet(config.MinPasswordLength),
		},
		Registration: registration.SellerFlow,
		Stage:        registration.StageCredentials,
		Secret:       []string{"password", "confirm_password"},
		OnSuccess: []flows.Hook{
			flows.StoreData(map[string]string{
				"userId": models.SessionUserID,
				"id":     models.SessionUserID,
			}),
			flows.StoreValues(map[string]string{"email": models.SessionEmail}),
			flows.SetSession(models.SessionRole, models.RoleSeller),
			flows.AdvanceStage(registration.SellerFlow, registration.StageCredentials),
		},
	}
}
