// Package login signs a user in and restores where they left off.
package login

import (
	"context"
	"net/http"

	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/registration"
)

const (
	FormName = "login"
	Route    = "/login"
)

// Session values restored from the login response (data field -> session key).
var identityFields = map[string]string{
	"userId":             models.SessionUserID,
	"id":                 models.SessionUserID,
	"role":               models.SessionRole,
	"shopId":             models.SessionShopID,
	"riderId":            models.SessionRiderID,
	"email":              models.SessionEmail,
	"registrationStage":  models.SessionRegistrationStage,
	"registration_stage": models.SessionRegistrationStage,
}

func NewFlow(config *Config) flows.Flow {
	return flows.Flow{
		Route: Route,
		Definition: form.Definition{
			Name:    FormName,
			Method:  http.MethodPost,
			Path:    config.UpstreamPath,
			Timeout: config.Timeout,
			Rules:   GetRuleSet(),
			// a 401 here means wrong email or password
			CredentialCheck: true,
		},
		Secret: []string{"password"},
		OnSuccess: []flows.Hook{
			forgetIdentity,
			flows.StoreValues(map[string]string{"email": models.SessionEmail}),
			flows.StoreData(identityFields),
			landing(config.Landing),
		},
	}
}

// forgetIdentity drops whatever a previous user left in this session.
func forgetIdentity(_ context.Context, s *flows.Success) error {
	for _, key := range identityFields {
		s.Session.Delete(key)
	}
	return nil
}

// landing binds the restored stage to the role's wizard and sends users with an
// unfinished wizard back to their current step, everyone else to their role's
// home page.
func landing(pages map[string]string) flows.Hook {
	return func(_ context.Context, s *flows.Success) error {
		role := s.Session.Role()
		if flow := wizardFor(role); flow != nil && s.Session.Get(models.SessionRegistrationStage) != "" {
			flow.Adopt(s.Session)
			stage := flow.Current(s.Session)
			if stage != registration.StageApproved {
				s.Redirect = flow.URL(stage)
				return nil
			}
		}
		if page, ok := pages[role]; ok {
			s.Redirect = page
			return nil
		}
		s.Redirect = "/"
		return nil
	}
}

func wizardFor(role string) *registration.Flow {
	switch role {
	case models.RoleRider:
		return registration.RiderFlow
	case models.RoleSeller:
		return registration.SellerFlow
	}
	return nil
}
