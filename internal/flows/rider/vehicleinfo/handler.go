// Package vehicleinfo is the first step of rider registration.
package vehicleinfo

import (
	"net/http"

	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/registration"
)

const FormName = "rider-vehicle-info"

var Route = registration.RiderFlow.URL(registration.StageVehicleInfo)

// NewFlow accepts anonymous applicants. The rider id the API assigns is kept
// in the session for the later steps.
func NewFlow(config *Config) flows.Flow {
	return flows.Flow{
		Route: Route,
		Definition: form.Definition{
			Name:      FormName,
			Method:    http.MethodPost,
			Path:      config.UpstreamPath,
			Timeout:   config.Timeout,
			Rules:     GetRuleSet(),
			Validate:  validateMotorized,
			Transform: normalize,
		},
		Registration: registration.RiderFlow,
		Stage:        registration.StageVehicleInfo,
		OnSuccess: []flows.Hook{
			flows.StoreData(map[string]string{
				"id":      models.SessionRiderID,
				"riderId": models.SessionRiderID,
			}),
			flows.AdvanceStage(registration.RiderFlow, registration.StageVehicleInfo),
		},
	}
}
