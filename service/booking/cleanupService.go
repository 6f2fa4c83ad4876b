package bookingsvc

import (
	"context"
	"log/slog"
	"time"

	bookingrepo "carrental/repository/booking"
)

// Cleaner is the periodic sweep: it releases unpaid reservation holds and
// cancels approved bookings whose due balance lapsed past the grace window.
type Cleaner interface {
	Sweep(ctx context.Context) error
	Run(ctx context.Context, interval time.Duration)
}

type cleaner struct {
	r     bookingrepo.Repo
	grace time.Duration
	log   *slog.Logger
}

func NewCleaner(r bookingrepo.Repo, grace time.Duration, log *slog.Logger) Cleaner {
	return &cleaner{r: r, grace: grace, log: log}
}

func (c *cleaner) Sweep(ctx context.Context) error {
	now := time.Now().UTC()

	released, err := c.r.ReleaseExpiredHolds(ctx, now)
	if err != nil {
		return err
	}
	if released > 0 {
		c.log.Info("released expired holds", "count", released)
	}

	overdue, err := c.r.CancelOverdue(ctx, now, c.grace)
	if err != nil {
		return err
	}
	if overdue > 0 {
		c.log.Info("cancelled overdue bookings", "count", overdue)
	}
	return nil
}

func (c *cleaner) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := c.Sweep(ctx); err != nil {
				c.log.Error("sweep failed", "err", err)
			}
		}
	}
}
