// Package requestreturn files a return or refund request for an order.
package requestreturn

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
)

const (
	FormName = "request-return"
	Route    = "/customer/returns"
)

func NewFlow(config *Config) flows.Flow {
	return flows.Flow{
		Route: Route,
		Definition: form.Definition{
			Name:     FormName,
			Method:   http.MethodPost,
			Path:     config.UpstreamPath,
			Timeout:  config.Timeout,
			Rules:    GetRuleSet(),
			Validate: validateEvidence,
		},
		RequireAuth: true,
		OnSuccess:   []flows.Hook{redirectToOrder(config.ReturnsPath)},
	}
}

// redirectToOrder lands on the return status page of the submitted order.
func redirectToOrder(prefix string) flows.Hook {
	return func(_ context.Context, s *flows.Success) error {
		orderID := strings.TrimSpace(s.Result.Values["order_id"])
		if orderID == "" {
			s.Redirect = prefix
			return nil
		}
		s.Redirect = strings.TrimSuffix(prefix, "/") + "/" + url.PathEscape(orderID)
		return nil
	}
}
