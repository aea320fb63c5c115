// Package jobs runs the periodic sweeps that drop per-client state nobody has
// touched for a while.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweep removes entries idle since before and reports how many went.
type Sweep struct {
	Name    string
	MaxIdle time.Duration
	Run     func(ctx context.Context, before time.Time) (int64, error)
}

// InMemory adapts the PurgeIdle methods of the in-process registries.
func InMemory(name string, maxIdle time.Duration, purge func(before time.Time) int) Sweep {
	return Sweep{
		Name:    name,
		MaxIdle: maxIdle,
		Run: func(_ context.Context, before time.Time) (int64, error) {
			return int64(purge(before)), nil
		},
	}
}

type Scheduler struct {
	cron   *cron.Cron
	spec   string
	sweeps []Sweep
	now    func() time.Time
	log    zerolog.Logger
}

func NewScheduler(spec string, log zerolog.Logger, sweeps ...Sweep) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		spec:   spec,
		sweeps: sweeps,
		now:    time.Now,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if len(s.sweeps) == 0 || s.spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop waits up to five seconds for a running sweep to finish.
func (s *Scheduler) Stop() {
	select {
	case <-s.cron.Stop().Done():
	case <-time.After(5 * time.Second):
	}
}

// RunOnce runs every sweep now. A failing sweep does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) map[string]int64 {
	removed := make(map[string]int64, len(s.sweeps))
	now := s.now()
	for _, sw := range s.sweeps {
		n, err := sw.Run(ctx, now.Add(-sw.MaxIdle))
		if err != nil {
			s.log.Error().Err(err).Str("sweep", sw.Name).Msg("sweep failed")
			continue
		}
		removed[sw.Name] = n
		if n > 0 {
			s.log.Info().Str("sweep", sw.Name).Int64("removed", n).Msg("sweep done")
		}
	}
	return removed
}
