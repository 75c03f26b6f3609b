// Package shippingaddress adds a delivery address to the customer's book.
package shippingaddress

import (
	"net/http"

	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
)

const (
	FormName = "shipping-address"
	Route    = "/customer/shipping-address"
)

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
		Defaults:        map[string]interface{}{"is_default": "false"},
		RequireAuth:     true,
		SuccessRedirect: config.SuccessRedirect,
	}
}
