package registration

import (
	"context"
	"net/url"

	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/upstream"
)

// StatusFetcher is the upstream call the poller needs.
type StatusFetcher interface {
	Get(ctx context.Context, path string, ident upstream.Identity, dst interface{}) (*upstream.Response, error)
}

// ApprovalPoller promotes riders whose application a moderator approved.
type ApprovalPoller struct {
	api    StatusFetcher
	logger logger.Logger
}

func NewApprovalPoller(api StatusFetcher, log logger.Logger) *ApprovalPoller {
	return &ApprovalPoller{api: api, logger: log}
}

type applicationStatus struct {
	Status string `json:"status"`
}

// Refresh asks upstream for the rider's application status while the session is
// pending approval. Lookup errors keep the rider pending.
func (p *ApprovalPoller) Refresh(ctx context.Context, sess *models.Session, ident upstream.Identity) Stage {
	current := RiderFlow.Current(sess)
	riderID := sess.Get(models.SessionRiderID)
	if current != StagePendingAdminApproval || riderID == "" {
		return current
	}

	var status applicationStatus
	path := "/api/riders/" + url.PathEscape(riderID) + "/application-status"
	if _, err := p.api.Get(ctx, path, ident, &status); err != nil {
		p.logger.Warn("approval status lookup failed", map[string]interface{}{
			"riderId": riderID,
			"error":   err.Error(),
		})
		return current
	}

	if status.Status != string(StageApproved) {
		return current
	}
	next, err := RiderFlow.Advance(sess, StagePendingAdminApproval)
	if err != nil {
		return current
	}
	p.logger.Info("rider approved", map[string]interface{}{"riderId": riderID})
	return next
}
