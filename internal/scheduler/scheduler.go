package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

const (
	DefaultInterval    = time.Minute
	DefaultSessionIdle = 2 * time.Hour
	sweepTimeout       = 30 * time.Second
)

type sessionPurger interface {
	PurgeIdle(idle time.Duration) int
}

type storagePurger interface {
	Purge(ctx context.Context) (int64, error)
}

type Config struct {
	Interval    time.Duration
	SessionIdle time.Duration
}

// Scheduler runs the housekeeping sweep: idle sessions are dropped from memory
// and expired stored results are deleted.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sessions  sessionPurger
	storage   storagePurger
	cfg       Config
}

func New(sessions sessionPurger, storage storagePurger, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.SessionIdle <= 0 {
		cfg.SessionIdle = DefaultSessionIdle
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sessions:  sessions,
		storage:   storage,
		cfg:       cfg,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.cfg.Interval).SingletonMode().Do(s.Sweep); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Sweep runs one housekeeping pass.
func (s *Scheduler) Sweep() {
	sessions := 0
	if s.sessions != nil {
		sessions = s.sessions.PurgeIdle(s.cfg.SessionIdle)
	}

	var stored int64
	if s.storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		n, err := s.storage.Purge(ctx)
		if err != nil {
			log.Printf("sweep storage failed: %v", err)
		}
		stored = n
	}

	if sessions > 0 || stored > 0 {
		log.Printf("sweep removed %d idle sessions and %d expired results", sessions, stored)
	}
}
