// Package logout ends the upstream session and forgets everything the gateway
// held for the browser.
package logout

import (
	"context"
	"net/http"

	"marketplace-gateway/internal/common/validation"
	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/session"
)

const (
	FormName = "logout"
	Route    = "/logout"
)

func NewFlow(config *Config, sessions *session.Manager, instances *form.Instances) flows.Flow {
	return flows.Flow{
		Route: Route,
		Definition: form.Definition{
			Name:    FormName,
			Method:  http.MethodPost,
			Path:    config.UpstreamPath,
			Timeout: config.Timeout,
			Rules:   validation.RuleSet{},
		},
		SuccessRedirect: config.SuccessRedirect,
		OnSuccess:       []flows.Hook{forget(sessions, instances)},
	}
}

func forget(sessions *session.Manager, instances *form.Instances) flows.Hook {
	return func(ctx context.Context, s *flows.Success) error {
		instances.RemoveSession(s.Session.ID)
		return sessions.Destroy(ctx, s.Writer, s.Session)
	}
}
