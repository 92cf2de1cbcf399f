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

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/agrisense/internal/logging"
	"github.com/tomtom215/agrisense/internal/metrics"
)

// Topic carries recorded predictions.
const Topic = "predictions.recorded"

// Metadata keys set on every message.
const (
	MetadataDomain    = "domain"
	MetadataRequestID = "request_id"
)

// ErrPublisherClosed is reported for entries recorded after Close.
var ErrPublisherClosed = errors.New("history publisher closed")

// DefaultBufferSize is the per-subscriber channel buffer of NewPubSub.
const DefaultBufferSize = 256

// NewWatermillLogger adapts the global logger for watermill components.
func NewWatermillLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewSlogLogger("history"))
}

// NewPubSub returns the in-process pub/sub shared by Publisher and Recorder.
// Messages published while nobody is subscribed are dropped.
func NewPubSub(buffer int64) *gochannel.GoChannel {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
	}, NewWatermillLogger())
}

// Publisher hands entries to the pub/sub. It is best-effort: failures are
// logged and counted, never returned to the caller's request.
type Publisher struct {
	pub    message.Publisher
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps pub.
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{
		pub:    pub,
		logger: logging.WithComponent("history"),
	}
}

// Record publishes e. Safe for concurrent use.
func (p *Publisher) Record(ctx context.Context, e *Entry) {
	err := p.publish(ctx, e)
	metrics.RecordHistoryPublish(err)
	if err != nil {
		p.logger.Warn().Err(err).Str("domain", e.Domain).Str("entry_id", e.ID).Msg("Failed to publish history entry")
	}
}

func (p *Publisher) publish(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	msg := message.NewMessage(e.ID, payload)
	msg.Metadata.Set(MetadataDomain, e.Domain)
	if e.RequestID != "" {
		msg.Metadata.Set(MetadataRequestID, e.RequestID)
	}

	if err := p.pub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", Topic, err)
	}
	return nil
}

// Close stops accepting entries. It does not close the underlying
// pub/sub, which the Recorder may still be draining.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
