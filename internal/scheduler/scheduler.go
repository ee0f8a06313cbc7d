// Package scheduler triggers daily runs per client on cron schedules, with
// per-client overlap locks and quota pre-checks.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"shortforge/internal/clients"
	"shortforge/internal/config"
	"shortforge/internal/logging"
	"shortforge/internal/pipeline"
	"shortforge/internal/runlog"
)

// RunFunc executes one pipeline run for a client.
type RunFunc func(ctx context.Context, client clients.Profile, opts pipeline.RunOptions) (pipeline.Result, error)

// Scheduler owns one cron entry per client. A run that is still in flight
// when the next trigger fires is skipped, never queued.
type Scheduler struct {
	cfg     *config.Config
	run     RunFunc
	logger  *slog.Logger
	cron    *cron.Cron
	clients []clients.Profile

	mu      sync.Mutex
	running map[string]bool
}

// New builds a scheduler for the given clients. Clients without a
// runDailyAt expression are left unscheduled but still reachable through
// RunAllNow.
func New(cfg *config.Config, profiles []clients.Profile, run RunFunc, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Scheduler{
		cfg:     cfg,
		run:     run,
		logger:  logger,
		cron:    cron.New(),
		clients: profiles,
		running: make(map[string]bool),
	}

	for _, client := range profiles {
		if client.Schedule.RunDailyAt == "" {
			logger.Warn("client has no schedule, skipping cron registration",
				logging.String(logging.FieldClientID, client.ID))
			continue
		}
		loc, err := time.LoadLocation(client.TimezoneOr(cfg.Scheduler.DefaultTimezone))
		if err != nil {
			return nil, fmt.Errorf("client %s: load timezone: %w", client.ID, err)
		}
		spec := fmt.Sprintf("CRON_TZ=%s %s", loc.String(), client.Schedule.RunDailyAt)
		profile := client
		if _, err := s.cron.AddFunc(spec, func() {
			s.trigger(context.Background(), profile)
		}); err != nil {
			return nil, fmt.Errorf("client %s: invalid schedule %q: %w", client.ID, client.Schedule.RunDailyAt, err)
		}
	}
	return s, nil
}

// Start begins firing cron entries.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron loop and waits for in-flight triggers to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunAllNow triggers every client once, sequentially in configuration
// order. Failures are logged and do not stop later clients.
func (s *Scheduler) RunAllNow(ctx context.Context) {
	for _, client := range s.clients {
		s.trigger(ctx, client)
	}
}

// TriggerNow runs one client immediately, honoring the same lock and quota
// pre-checks as a cron firing.
func (s *Scheduler) TriggerNow(ctx context.Context, client clients.Profile) {
	s.trigger(ctx, client)
}

func (s *Scheduler) trigger(ctx context.Context, client clients.Profile) {
	log := s.logger.With(logging.String(logging.FieldClientID, client.ID))

	if client.Schedule.MaxPerDay <= 0 {
		log.Info("skipping run, schedule allows no runs per day")
		s.appendMetric(log, runlog.EventSchedulerSkippedQuota, client.ID)
		return
	}

	if !s.tryAcquire(client.ID) {
		log.Warn("skipping run, previous run still in flight")
		s.appendMetric(log, runlog.EventSchedulerSkippedLock, client.ID)
		return
	}
	defer s.release(client.ID)

	if _, err := s.run(ctx, client, pipeline.RunOptions{}); err != nil {
		// Run failures are recorded by the pipeline; the scheduler only
		// logs so one bad client never stops the loop.
		log.Error("scheduled run failed", logging.Error(err))
	}
}

func (s *Scheduler) tryAcquire(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[clientID] {
		return false
	}
	s.running[clientID] = true
	return true
}

func (s *Scheduler) release(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, clientID)
}

func (s *Scheduler) appendMetric(log *slog.Logger, event, clientID string) {
	err := runlog.AppendMetric(s.cfg.Paths.DataDir, runlog.Event{
		Event:     event,
		Timestamp: time.Now().UTC(),
		ClientID:  clientID,
	})
	if err != nil {
		log.Warn("failed to append scheduler metric", logging.Error(err))
	}
}
