// Package credentials creates the rider's login during registration.
package credentials

import (
	"net/http"

	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/registration"
)

const FormName = "rider-credentials"

var Route = registration.RiderFlow.URL(registration.StageCredentials)

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
		Registration: registration.RiderFlow,
		Stage:        registration.StageCredentials,
		FromSession:  map[string]string{"rider_id": models.SessionRiderID},
		Secret:       []string{"password", "confirm_password"},
		OnSuccess: []flows.Hook{
			flows.StoreData(map[string]string{
				"userId": models.SessionUserID,
				"id":     models.SessionUserID,
			}),
			flows.StoreValues(map[string]string{"email": models.SessionEmail}),
			flows.SetSession(models.SessionRole, models.RoleRider),
			flows.AdvanceStage(registration.RiderFlow, registration.StageCredentials),
		},
	}
}
