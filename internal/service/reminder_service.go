package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/conghuan0502/planzaa-api/internal/models"
	"github.com/conghuan0502/planzaa-api/pkg/clock"
	"github.com/conghuan0502/planzaa-api/pkg/jobs"
	"github.com/conghuan0502/planzaa-api/pkg/push"
)

type reminderEventStore interface {
	FindReminderCandidates(ctx context.Context, threshold models.ReminderThreshold, from, to time.Time) ([]models.Event, error)
	TrySetReminderFlag(ctx context.Context, eventID string, threshold models.ReminderThreshold) (bool, error)
}

// ReminderServiceConfig tunes the sweep behaviour. Cadence doubles as the
// window width: under a sweep every Cadence interval each qualifying event
// is seen by at least one sweep, and by exactly one absent drift.
type ReminderServiceConfig struct {
	Cadence           time.Duration
	WorkerConcurrency int
}

// ReminderService drives the threshold sweeps: query the window, filter
// eligible recipients, compose, dispatch, and mark the event as sent.
type ReminderService struct {
	store   reminderEventStore
	gateway push.Gateway
	clock   clock.Clock
	logger  *zap.Logger
	metrics *MetricsService
	cfg     ReminderServiceConfig
}

// NewReminderService constructs the reminder service.
func NewReminderService(store reminderEventStore, gateway push.Gateway, clk clock.Clock, metrics *MetricsService, logger *zap.Logger, cfg ReminderServiceConfig) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System()
	}
	if cfg.Cadence <= 0 {
		cfg.Cadence = time.Minute
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 4
	}
	return &ReminderService{
		store:   store,
		gateway: gateway,
		clock:   clk,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
	}
}

// Cadences returns one runner cadence per threshold, all on the same
// interval. Sweeps of different thresholds are independent and may overlap;
// the runner serializes ticks within each cadence.
func (s *ReminderService) Cadences() []jobs.Cadence {
	cadences := make([]jobs.Cadence, 0, len(models.AllThresholds))
	for _, threshold := range models.AllThresholds {
		threshold := threshold
		cadences = append(cadences, jobs.Cadence{
			Name:     threshold.CadenceName(),
			Interval: s.cfg.Cadence,
			Task: func(ctx context.Context) {
				s.Sweep(ctx, threshold)
			},
		})
	}
	return cadences
}

// Sweep runs one full pass for one threshold and returns the number of
// events handled. Failures are contained per event; a store query failure
// ends the sweep early and the window is retried on the next tick.
func (s *ReminderService) Sweep(ctx context.Context, threshold models.ReminderThreshold) int {
	started := time.Now()
	now := s.clock.Now().UTC()
	from := now.Add(threshold.Lead())
	to := from.Add(s.cfg.Cadence)

	events, err := s.store.FindReminderCandidates(ctx, threshold, from, to)
	if err != nil {
		s.logger.Sugar().Errorw("reminder candidate query failed",
			"threshold", threshold, "error", err)
		return 0
	}

	var handled atomic.Int64
	sem := make(chan struct{}, s.cfg.WorkerConcurrency)
	var wg sync.WaitGroup
	for i := range events {
		event := events[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if s.processEvent(ctx, &event, threshold, now) {
				handled.Add(1)
			}
		}()
	}
	wg.Wait()

	total := int(handled.Load())
	if len(events) > 0 || total > 0 {
		s.logger.Sugar().Infow("reminder sweep finished",
			"threshold", threshold, "candidates", len(events), "handled", total)
	}
	if s.metrics != nil {
		s.metrics.ObserveReminderSweep(string(threshold), total, time.Since(started))
	}
	return total
}

// processEvent handles one (event, threshold) pair. Returns true when the
// pair was handled, meaning its flag was examined by the conditional update.
// Any failure leaves the flag unset so the event is retried on the next
// sweep while it remains inside the window; once the window passes the
// reminder for that threshold is never sent.
func (s *ReminderService) processEvent(ctx context.Context, ev *models.Event, threshold models.ReminderThreshold, now time.Time) bool {
	log := s.logger.Sugar().With("event_id", ev.ID, "threshold", threshold)

	if ev.StartAt.IsZero() {
		log.Errorw("event has no start instant, skipping")
		return false
	}

	recipients := EligibleRecipients(ev.Participants)
	if len(recipients) == 0 {
		// Still flagged as handled below; an event with nobody to notify is
		// not retried within the window.
		log.Infow("no eligible recipients", "participants", len(ev.Participants))
	} else {
		msg := ComposeReminder(*ev, threshold, now)
		result, err := s.gateway.Send(ctx, recipients, msg)
		if err != nil {
			log.Errorw("reminder dispatch failed", "recipients", len(recipients), "error", err)
			if s.metrics != nil {
				s.metrics.IncReminderDispatchErrors(string(threshold))
			}
			return false
		}
		log.Infow("reminder dispatched",
			"recipients", len(recipients),
			"success", result.SuccessCount,
			"failed", result.FailureCount)
		for _, addr := range result.InvalidAddresses() {
			log.Warnw("push token permanently invalid, needs cleanup", "address", addr)
		}
		if s.metrics != nil {
			s.metrics.AddRemindersSent(string(threshold), result.SuccessCount)
			if result.FailureCount > 0 {
				s.metrics.AddReminderRecipientFailures(string(threshold), result.FailureCount)
			}
		}
	}

	flipped, err := s.store.TrySetReminderFlag(ctx, ev.ID, threshold)
	if err != nil {
		log.Errorw("failed to set reminder flag", "error", err)
		return false
	}
	if !flipped {
		// A concurrent sweep or another instance won the race after our
		// dispatch; the duplicate send cannot be undone.
		log.Warnw("reminder flag already set, dispatch was a duplicate")
	}
	return true
}
