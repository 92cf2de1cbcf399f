// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/agrisense/internal/logging"
	"github.com/tomtom215/agrisense/internal/metrics"
)

// Writer is the part of Store the Recorder needs.
type Writer interface {
	Put(ctx context.Context, e *Entry) error
	Prune(ctx context.Context, maxEntries int) (int, error)
}

// RecorderConfig tunes the Recorder.
type RecorderConfig struct {
	// MaxEntries is the retention limit. 0 keeps everything.
	MaxEntries int

	// PruneInterval is how often retention runs.
	PruneInterval time.Duration

	// BreakerName labels the circuit breaker in logs and metrics.
	BreakerName string

	// FailureThreshold is the number of consecutive store failures that
	// opens the circuit.
	FailureThreshold uint32

	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
}

// DefaultRecorderConfig returns production defaults.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		MaxEntries:       10000,
		PruneInterval:    5 * time.Minute,
		BreakerName:      "history-store",
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// Recorder consumes Topic and persists entries. It implements
// suture.Service.
type Recorder struct {
	sub    message.Subscriber
	store  Writer
	cfg    RecorderConfig
	cb     *gobreaker.CircuitBreaker[interface{}]
	logger zerolog.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

// NewRecorder creates a recorder reading from sub.
func NewRecorder(sub message.Subscriber, store Writer, cfg RecorderConfig) *Recorder {
	def := DefaultRecorderConfig()
	if cfg.BreakerName == "" {
		cfg.BreakerName = def.BreakerName
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = def.PruneInterval
	}

	r := &Recorder{
		sub:    sub,
		store:  store,
		cfg:    cfg,
		logger: logging.WithComponent("history-recorder"),
		ready:  make(chan struct{}),
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.BreakerName).Set(0)
	r.cb = gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cfg.BreakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A malformed entry is the producer's fault, not the store's.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrInvalidEntry)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("History store circuit breaker state change")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})
	return r
}

// State reports the breaker state.
func (r *Recorder) State() gobreaker.State {
	return r.cb.State()
}

// Ready is closed once the first subscription is in place. Entries
// published before that are dropped by the pub/sub.
func (r *Recorder) Ready() <-chan struct{} {
	return r.ready
}

// Serve implements suture.Service.
func (r *Recorder) Serve(ctx context.Context) error {
	msgs, err := r.sub.Subscribe(ctx, Topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", Topic, err)
	}
	r.readyOnce.Do(func() { close(r.ready) })

	var tick <-chan time.Time
	if r.cfg.MaxEntries > 0 {
		ticker := time.NewTicker(r.cfg.PruneInterval)
		defer ticker.Stop()
		tick = ticker.C
		r.prune(ctx)
	}

	r.logger.Info().Str("topic", Topic).Int("max_entries", r.cfg.MaxEntries).Msg("History recorder started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("subscription to %s closed", Topic)
			}
			r.handle(ctx, msg)
		case <-tick:
			r.prune(ctx)
		}
	}
}

func (r *Recorder) handle(ctx context.Context, msg *message.Message) {
	var e Entry
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		r.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Discarding undecodable history message")
		metrics.RecordHistoryWrite("invalid")
		msg.Ack()
		return
	}

	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.store.Put(ctx, &e)
	})

	switch {
	case err == nil:
		metrics.RecordCircuitBreakerRequest(r.cfg.BreakerName, "success")
		metrics.RecordHistoryWrite("stored")
		msg.Ack()

	case errors.Is(err, ErrInvalidEntry):
		metrics.RecordHistoryWrite("invalid")
		r.logger.Warn().Str("entry_id", e.ID).Msg("Discarding invalid history entry")
		msg.Ack()

	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCircuitBreakerRequest(r.cfg.BreakerName, "rejected")
		metrics.RecordHistoryWrite("dropped")
		r.logger.Warn().Err(err).Str("entry_id", e.ID).Str("domain", e.Domain).Msg("History store unavailable, dropping entry")
		msg.Ack()

	default:
		metrics.RecordCircuitBreakerRequest(r.cfg.BreakerName, "failure")
		metrics.RecordHistoryWrite("failed")
		r.logger.Error().Err(err).Str("entry_id", e.ID).Msg("Failed to store history entry")
		msg.Nack()
	}
}

func (r *Recorder) prune(ctx context.Context) {
	removed, err := r.store.Prune(ctx, r.cfg.MaxEntries)
	if err != nil {
		r.logger.Error().Err(err).Msg("History retention failed")
		return
	}
	if removed > 0 {
		metrics.HistoryPruned.Add(float64(removed))
		r.logger.Debug().Int("removed", removed).Msg("Pruned history entries")
	}
}

// String implements fmt.Stringer for suture logs.
func (r *Recorder) String() string {
	return "history-recorder"
}
