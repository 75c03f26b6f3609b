// Package registration models the multi-page rider and seller sign-up wizards.
package registration

import (
	"errors"
	"fmt"
	"strings"

	"marketplace-gateway/internal/models"
)

var (
	ErrUnknownStage  = errors.New("UNKNOWN_STAGE")
	ErrStageMismatch = errors.New("REGISTRATION_STAGE_MISMATCH")
)

// Stage is one step of a wizard. The session stores it qualified by the
// wizard name, see Flow.Marker.
type Stage string

const (
	StageVehicleInfo          Stage = "vehicle_info"
	StageCredentials          Stage = "credentials"
	StageProfileDetails       Stage = "profile_details"
	StagePendingAdminApproval Stage = "pending_admin_approval"
	StageShopDetails          Stage = "shop_details"
	StageApproved             Stage = "approved"
)

// Step binds a stage to the screen that collects it.
type Step struct {
	Stage Stage
	URL   string
}

// Flow is an ordered list of steps tracked through the session.
type Flow struct {
	Name  string
	Steps []Step
}

var RiderFlow = &Flow{
	Name: "rider",
	Steps: []Step{
		{StageVehicleInfo, "/rider/register/vehicle-info"},
		{StageCredentials, "/rider/register/credentials"},
		{StageProfileDetails, "/rider/register/profile"},
		{StagePendingAdminApproval, "/rider/register/pending-approval"},
		{StageApproved, "/rider/dashboard"},
	},
}

var SellerFlow = &Flow{
	Name: "seller",
	Steps: []Step{
		{StageCredentials, "/signup"},
		{StageShopDetails, "/seller/create-shop"},
		{StageApproved, "/seller/seller-product-list"},
	},
}

// ByName returns the named flow or nil.
func ByName(name string) *Flow {
	switch name {
	case RiderFlow.Name:
		return RiderFlow
	case SellerFlow.Name:
		return SellerFlow
	}
	return nil
}

func (f *Flow) index(stage Stage) int {
	for i, s := range f.Steps {
		if s.Stage == stage {
			return i
		}
	}
	return -1
}

// Has reports whether stage belongs to the flow.
func (f *Flow) Has(stage Stage) bool {
	return f.index(stage) >= 0
}

// URL returns the screen for stage.
func (f *Flow) URL(stage Stage) string {
	if i := f.index(stage); i >= 0 {
		return f.Steps[i].URL
	}
	return f.Steps[0].URL
}

// Marker is the registration_stage value recording stage of this wizard.
// Both wizards share stage names, so the value carries the wizard name too.
func (f *Flow) Marker(stage Stage) string {
	return f.Name + ":" + string(stage)
}

// ParseMarker splits a registration_stage value into wizard name and stage.
// Values without a wizard name are returned with an empty name.
func ParseMarker(v string) (string, Stage) {
	name, stage, ok := strings.Cut(v, ":")
	if !ok {
		return "", Stage(v)
	}
	return name, Stage(stage)
}

// StageOf returns the stage recorded in the session, whichever wizard owns it.
func StageOf(sess *models.Session) Stage {
	_, stage := ParseMarker(sess.Get(models.SessionRegistrationStage))
	return stage
}

// owner returns the wizard holding the session's marker and its stage, or nil
// when no wizard has recorded progress.
func owner(sess *models.Session) (*Flow, Stage) {
	name, stage := ParseMarker(sess.Get(models.SessionRegistrationStage))
	flow := ByName(name)
	if flow == nil || !flow.Has(stage) {
		return nil, ""
	}
	return flow, stage
}

// Current reads the session marker. A missing, unqualified or foreign marker
// means the first stage of this wizard.
func (f *Flow) Current(sess *models.Session) Stage {
	if flow, stage := owner(sess); flow == f {
		return stage
	}
	return f.Steps[0].Stage
}

// Check decides whether the session may view target. It returns the URL to
// redirect to, or "" to continue. Both skipping ahead and revisiting a completed
// stage land on the current stage. A session already in the other wizard is
// sent back to its own current stage; one session runs one wizard.
func (f *Flow) Check(sess *models.Session, target Stage) (string, error) {
	if !f.Has(target) {
		return "", fmt.Errorf("%w: %s not in %s flow", ErrUnknownStage, target, f.Name)
	}
	if flow, stage := owner(sess); flow != nil && flow != f {
		return flow.URL(stage), nil
	}
	current := f.Current(sess)
	if current == target {
		return "", nil
	}
	return f.URL(current), nil
}

// Advance moves the session from the given stage to the next one. It only
// succeeds when from is the current stage.
func (f *Flow) Advance(sess *models.Session, from Stage) (Stage, error) {
	if flow, _ := owner(sess); flow != nil && flow != f {
		return "", fmt.Errorf("%w: session is in the %s flow", ErrStageMismatch, flow.Name)
	}
	current := f.Current(sess)
	if current != from {
		return current, fmt.Errorf("%w: current %s, advancing from %s", ErrStageMismatch, current, from)
	}
	i := f.index(from)
	if i == len(f.Steps)-1 {
		return current, nil
	}
	next := f.Steps[i+1].Stage
	sess.Set(models.SessionRegistrationStage, f.Marker(next))
	return next, nil
}

// Adopt qualifies a bare stage, as upstream reports it at login, with this
// wizard's name. Markers that already name a wizard are left alone.
func (f *Flow) Adopt(sess *models.Session) {
	name, stage := ParseMarker(sess.Get(models.SessionRegistrationStage))
	if name == "" && f.Has(stage) {
		sess.Set(models.SessionRegistrationStage, f.Marker(stage))
	}
}
