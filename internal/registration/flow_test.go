package registration

import (
	"context"
	"errors"
	"testing"

	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sessionAt(f *Flow, stage Stage) *models.Session {
	sess := models.NewSession("s")
	if stage != "" {
		sess.Set(models.SessionRegistrationStage, f.Marker(stage))
	}
	return sess
}

// ==========================
// Check
// ==========================

func TestFlow_Check(t *testing.T) {
	tests := []struct {
		name     string
		current  Stage
		target   Stage
		redirect string
	}{
		{"skip ahead goes back", StageVehicleInfo, StageProfileDetails, "/rider/register/vehicle-info"},
		{"revisit completed goes forward", StageProfileDetails, StageVehicleInfo, "/rider/register/profile"},
		{"current continues", StageCredentials, StageCredentials, ""},
		{"missing marker is first stage", "", StageVehicleInfo, ""},
		{"missing marker blocks later stages", "", StageCredentials, "/rider/register/vehicle-info"},
		{"pending applicant cannot reach dashboard", StagePendingAdminApproval, StageApproved, "/rider/register/pending-approval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redirect, err := RiderFlow.Check(sessionAt(RiderFlow, tt.current), tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.redirect, redirect)
		})
	}
}

func TestFlow_CheckUnknownStage(t *testing.T) {
	_, err := SellerFlow.Check(sessionAt(SellerFlow, ""), StageVehicleInfo)
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestFlow_OtherWizardInProgress(t *testing.T) {
	tests := []struct {
		name     string
		sess     *models.Session
		target   Stage
		redirect string
	}{
		{"approved rider cannot list products", sessionAt(RiderFlow, StageApproved), StageApproved, "/rider/dashboard"},
		{"rider mid-wizard cannot start seller signup", sessionAt(RiderFlow, StageCredentials), StageCredentials, "/rider/register/credentials"},
		{"seller cannot reach rider steps", sessionAt(SellerFlow, StageShopDetails), StageVehicleInfo, "/seller/create-shop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := SellerFlow
			if tt.target == StageVehicleInfo {
				flow = RiderFlow
			}
			redirect, err := flow.Check(tt.sess, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.redirect, redirect)
		})
	}
}

func TestFlow_ForeignMarkerIsFirstStage(t *testing.T) {
	assert.Equal(t, StageCredentials, SellerFlow.Current(sessionAt(RiderFlow, StageApproved)))
}

func TestFlow_BareMarkerIsFirstStage(t *testing.T) {
	sess := models.NewSession("s")
	sess.Set(models.SessionRegistrationStage, string(StageApproved))

	assert.Equal(t, StageCredentials, SellerFlow.Current(sess))
	assert.Equal(t, StageVehicleInfo, RiderFlow.Current(sess))
	assert.Equal(t, StageApproved, StageOf(sess))
}

func TestFlow_Adopt(t *testing.T) {
	sess := models.NewSession("s")
	sess.Set(models.SessionRegistrationStage, string(StagePendingAdminApproval))

	SellerFlow.Adopt(sess)
	assert.Equal(t, "pending_admin_approval", sess.Get(models.SessionRegistrationStage))

	RiderFlow.Adopt(sess)
	assert.Equal(t, "rider:pending_admin_approval", sess.Get(models.SessionRegistrationStage))
	assert.Equal(t, StagePendingAdminApproval, RiderFlow.Current(sess))

	SellerFlow.Adopt(sess)
	assert.Equal(t, "rider:pending_admin_approval", sess.Get(models.SessionRegistrationStage))
}

// ==========================
// Advance
// ==========================

func TestFlow_Advance(t *testing.T) {
	sess := sessionAt(RiderFlow, StageVehicleInfo)

	next, err := RiderFlow.Advance(sess, StageVehicleInfo)
	require.NoError(t, err)
	assert.Equal(t, StageCredentials, next)
	assert.Equal(t, "rider:credentials", sess.Get(models.SessionRegistrationStage))

	_, err = RiderFlow.Advance(sess, StageVehicleInfo)
	assert.ErrorIs(t, err, ErrStageMismatch)
	assert.Equal(t, "rider:credentials", sess.Get(models.SessionRegistrationStage))

	final := sessionAt(RiderFlow, StageApproved)
	stage, err := RiderFlow.Advance(final, StageApproved)
	require.NoError(t, err)
	assert.Equal(t, StageApproved, stage)
}

func TestFlow_AdvanceKeepsOtherWizardProgress(t *testing.T) {
	sess := sessionAt(RiderFlow, StageCredentials)

	_, err := SellerFlow.Advance(sess, StageCredentials)
	assert.ErrorIs(t, err, ErrStageMismatch)
	assert.Equal(t, "rider:credentials", sess.Get(models.SessionRegistrationStage))
}

// ==========================
// ApprovalPoller
// ==========================

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Get(ctx context.Context, path string, ident upstream.Identity, dst interface{}) (*upstream.Response, error) {
	args := m.Called(ctx, path, ident, dst)
	if fn, ok := args.Get(0).(func(interface{})); ok {
		fn(dst)
	}
	return nil, args.Error(1)
}

func TestApprovalPoller_Refresh(t *testing.T) {
	tests := []struct {
		name   string
		status string
		err    error
		want   Stage
	}{
		{"approved advances", "approved", nil, StageApproved},
		{"still pending", "pending", nil, StagePendingAdminApproval},
		{"lookup failure keeps pending", "", gwerrors.NewNetworkError("marketplace-api", errors.New("dial")), StagePendingAdminApproval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &mockFetcher{}
			fetcher.On("Get", mock.Anything, "/api/riders/r-7/application-status", mock.Anything, mock.Anything).
				Return(func(dst interface{}) {
					dst.(*applicationStatus).Status = tt.status
				}, tt.err)

			sess := sessionAt(RiderFlow, StagePendingAdminApproval)
			sess.Set(models.SessionRiderID, "r-7")

			poller := NewApprovalPoller(fetcher, logger.NewTestLogger(t))
			got := poller.Refresh(context.Background(), sess, upstream.Identity{})
			assert.Equal(t, tt.want, got)
			assert.Equal(t, RiderFlow.Marker(tt.want), sess.Get(models.SessionRegistrationStage))
			fetcher.AssertExpectations(t)
		})
	}
}

func TestApprovalPoller_SkipsWhenNotPending(t *testing.T) {
	fetcher := &mockFetcher{}
	poller := NewApprovalPoller(fetcher, logger.NewTestLogger(t))

	got := poller.Refresh(context.Background(), sessionAt(RiderFlow, StageCredentials), upstream.Identity{})
	assert.Equal(t, StageCredentials, got)
	fetcher.AssertNotCalled(t, "Get")
}
