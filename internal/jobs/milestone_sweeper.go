package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Achiever is the part of MilestoneService the sweep needs.
type Achiever interface {
	SweepAll(ctx context.Context) (int, error)
}

// MilestoneSweeper achieves milestones users have reached since their last
// request, so milestone_achieved notifications go out without the app open.
type MilestoneSweeper struct {
	Milestones Achiever
	Timeout    time.Duration
}

// NewMilestoneSweeper creates a new instance of MilestoneSweeper
func NewMilestoneSweeper(milestones Achiever, timeout time.Duration) *MilestoneSweeper {
	return &MilestoneSweeper{Milestones: milestones, Timeout: timeout}
}

// Run performs one sweep with its own timeout.
func (s *MilestoneSweeper) Run(ctx context.Context) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()
	achieved, err := s.Milestones.SweepAll(ctx)
	entry := logrus.WithFields(logrus.Fields{
		"achieved": achieved,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Error("Milestone sweep failed")
		return err
	}
	entry.Info("Milestone sweep completed")
	return nil
}
