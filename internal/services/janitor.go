package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper drops state that is no longer needed at time now and returns how
// many entries were removed.
type Sweeper interface {
	Name() string
	Sweep(now time.Time) int
}

// Janitor periodically evicts expired rate-limit windows so the in-memory
// tables stay bounded by the number of recently active clients.
type Janitor struct {
	cron     *cron.Cron
	sweepers []Sweeper
	interval time.Duration
	logger   *slog.Logger
}

func NewJanitor(interval time.Duration, logger *slog.Logger, sweepers ...Sweeper) *Janitor {
	return &Janitor{
		cron:     cron.New(),
		sweepers: sweepers,
		interval: interval,
		logger:   logger,
	}
}

func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(fmt.Sprintf("@every %s", j.interval), func() {
		j.RunOnce(time.Now())
	}); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	j.cron.Start()

	j.logger.Info("rate limit janitor started", "interval", j.interval.String())
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) RunOnce(now time.Time) {
	for _, s := range j.sweepers {
		if n := s.Sweep(now); n > 0 {
			j.logger.Debug("evicted expired rate limit windows", "policy", s.Name(), "evicted", n)
		}
	}
}
