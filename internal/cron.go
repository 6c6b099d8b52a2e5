package internal

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// StartCron schedules a job that keeps the partner token warm, so the first request after an idle
// period does not pay for a token round-trip. An empty schedule disables the job and returns nil.
func StartCron(tokens TokenSource, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}

	c := cron.New()

	log.Printf("Starting CRON job to keep the partner token warm (%s)", schedule)

	if _, err := c.AddFunc(schedule, func() {
		if _, err := tokens.Acquire(context.Background()); err != nil {
			log.Printf("Error warming partner token: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
