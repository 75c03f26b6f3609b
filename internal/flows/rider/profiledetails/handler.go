// Package profiledetails is the last rider registration step before
// moderator review.
package profiledetails

import (
	"context"
	"net/http"
	"strings"
	"time"

	"marketplace-gateway/internal/common/aws"
	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/registration"
)

const FormName = "rider-profile-details"

var Route = registration.RiderFlow.URL(registration.StageProfileDetails)

// Notifier announces a completed application.
type Notifier interface {
	RegistrationSubmitted(ctx context.Context, ev aws.RegistrationEvent) error
}

// NewFlow builds the profile step. notifier may be nil.
func NewFlow(config *Config, notifier Notifier) flows.Flow {
	return flows.Flow{
		Route: Route,
		Definition: form.Definition{
			Name:    FormName,
			Method:  http.MethodPost,
			Path:    config.UpstreamPath,
			Timeout: config.Timeout,
			Rules:   GetRuleSet(),
		},
		Registration: registration.RiderFlow,
		Stage:        registration.StageProfileDetails,
		RequireAuth:  true,
		FromSession:  map[string]string{"rider_id": models.SessionRiderID},
		OnSuccess: []flows.Hook{
			flows.AdvanceStage(registration.RiderFlow, registration.StageProfileDetails),
			notify(notifier, config.NotifyTimeout),
		},
	}
}

func notify(notifier Notifier, timeout time.Duration) flows.Hook {
	return func(ctx context.Context, s *flows.Success) error {
		if notifier == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		name := strings.TrimSpace(s.Result.Values["first_name"] + " " + s.Result.Values["last_name"])
		return notifier.RegistrationSubmitted(ctx, aws.RegistrationEvent{
			Kind:        registration.RiderFlow.Name,
			ApplicantID: s.Session.Get(models.SessionRiderID),
			Name:        name,
			Email:       s.Session.Get(models.SessionEmail),
		})
	}
}
