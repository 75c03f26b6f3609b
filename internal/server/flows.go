package server

import (
	"fmt"
	"time"

	"marketplace-gateway/internal/common/config"
	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/flows/account/login"
	"marketplace-gateway/internal/flows/account/logout"
	"marketplace-gateway/internal/flows/account/signup"
	"marketplace-gateway/internal/flows/customer/requestreturn"
	"marketplace-gateway/internal/flows/customer/shippingaddress"
	"marketplace-gateway/internal/flows/product/createproduct"
	"marketplace-gateway/internal/flows/rider/credentials"
	"marketplace-gateway/internal/flows/rider/profiledetails"
	"marketplace-gateway/internal/flows/rider/vehicleinfo"
	"marketplace-gateway/internal/flows/shop/createshop"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/session"
)

// FlowDependencies are the collaborators some flows need beyond configuration.
type FlowDependencies struct {
	Sessions  *session.Manager
	Instances *form.Instances
	// Notifier may be nil; pass an untyped nil, not a nil pointer.
	Notifier profiledetails.Notifier
}

// BuildFlows returns every enabled form flow. forms.flows.<name> may disable a
// flow or override its timeout; anything else keeps the flow's defaults.
func BuildFlows(cfg *config.Config, deps FlowDependencies) ([]flows.Flow, error) {
	var out []flows.Flow
	add := func(name string, timeout *time.Duration, validate func() error, build func() flows.Flow) error {
		if !config.IsFlowEnabled(cfg, name) {
			return nil
		}
		if fc, ok := cfg.Forms.Flows[name]; ok && fc.Timeout > 0 {
			*timeout = config.GetDuration(fc.Timeout)
		}
		if err := validate(); err != nil {
			return fmt.Errorf("flow %s: %w", name, err)
		}
		out = append(out, build())
		return nil
	}

	shopCfg := createshop.DefaultConfig()
	productCfg := createproduct.DefaultConfig()
	addressCfg := shippingaddress.DefaultConfig()
	returnCfg := requestreturn.DefaultConfig()
	vehicleCfg := vehicleinfo.DefaultConfig()
	credsCfg := credentials.DefaultConfig()
	profileCfg := profiledetails.DefaultConfig()
	signupCfg := signup.DefaultConfig()
	loginCfg := login.DefaultConfig()
	logoutCfg := logout.DefaultConfig()

	steps := []error{
		add(createshop.FormName, &shopCfg.Timeout, shopCfg.Validate, func() flows.Flow { return createshop.NewFlow(shopCfg) }),
		add(createproduct.FormName, &productCfg.Timeout, productCfg.Validate, func() flows.Flow { return createproduct.NewFlow(productCfg) }),
		add(shippingaddress.FormName, &addressCfg.Timeout, addressCfg.Validate, func() flows.Flow { return shippingaddress.NewFlow(addressCfg) }),
		add(requestreturn.FormName, &returnCfg.Timeout, returnCfg.Validate, func() flows.Flow { return requestreturn.NewFlow(returnCfg) }),
		add(vehicleinfo.FormName, &vehicleCfg.Timeout, vehicleCfg.Validate, func() flows.Flow { return vehicleinfo.NewFlow(vehicleCfg) }),
		add(credentials.FormName, &credsCfg.Timeout, credsCfg.Validate, func() flows.Flow { return credentials.NewFlow(credsCfg) }),
		add(profiledetails.FormName, &profileCfg.Timeout, profileCfg.Validate, func() flows.Flow {
			return profiledetails.NewFlow(profileCfg, deps.Notifier)
		}),
		add(signup.FormName, &signupCfg.Timeout, signupCfg.Validate, func() flows.Flow { return signup.NewFlow(signupCfg) }),
		add(login.FormName, &loginCfg.Timeout, loginCfg.Validate, func() flows.Flow { return login.NewFlow(loginCfg) }),
		add(logout.FormName, &logoutCfg.Timeout, logoutCfg.Validate, func() flows.Flow {
			return logout.NewFlow(logoutCfg, deps.Sessions, deps.Instances)
		}),
	}
	for _, err := range steps {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
