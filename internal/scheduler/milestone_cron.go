package scheduler

import (
	"context"
	"fmt"

	"github.com/Dias221467/Recovery_Tracker/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartMilestoneCron runs the sweeper on spec (standard cron syntax or
// descriptors such as "@every 1h"). Stop the returned scheduler on shutdown.
func StartMilestoneCron(spec string, sweeper *jobs.MilestoneSweeper) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(spec, func() {
		// errors are logged by the sweeper
		_ = sweeper.Run(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("invalid milestone sweep schedule %q: %w", spec, err)
	}

	c.Start()
	logrus.WithField("schedule", spec).Info("Milestone sweep scheduled")
	return c, nil
}
