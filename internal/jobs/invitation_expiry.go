package jobs

import (
	"context"

	"go.uber.org/zap"
)

type InvitationExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// InvitationExpiryJob flips overdue pending invitations to expired so they stop
// blocking new invitations for the same address.
type InvitationExpiryJob struct {
	invitations InvitationExpirer
	logger      *zap.Logger
}

func NewInvitationExpiryJob(invitations InvitationExpirer, logger *zap.Logger) *InvitationExpiryJob {
	return &InvitationExpiryJob{invitations: invitations, logger: logger}
}

func (j *InvitationExpiryJob) Run(ctx context.Context) error {
	n, err := j.invitations.ExpireOverdue(ctx)
	if err != nil {
		j.logger.Error("invitation expiry failed", zap.Error(err))
		return err
	}
	if n > 0 {
		j.logger.Info("expired invitations", zap.Int64("count", n))
	}
	return nil
}
