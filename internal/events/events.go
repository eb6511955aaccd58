// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

// Package events carries dataset change notifications between replicas.
//
// After a successful ingest the writing instance publishes a dataset.changed
// message. Every instance, including the writer, receives it; the writer
// recognises its own instance ID and skips it, peers clear their caches and
// notify connected dashboards.
//
// Two watermill backends are supported:
//   - gochannel: in-process only, the default for single-instance deployments
//   - nats: core NATS (JetStream disabled, no queue group) so that every
//     replica sees every message
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/metrics"
)

// TypeDatasetChanged is the event type of DatasetChanged.
const TypeDatasetChanged = "dataset.changed"

// DatasetChanged announces that rows were committed to the insights table.
type DatasetChanged struct {
	Type       string    `json:"type"`
	InstanceID string    `json:"instance_id"`
	Count      int       `json:"count"`
	At         time.Time `json:"at"`
}

// ErrClosed is returned when publishing on a closed bus.
var ErrClosed = errors.New("event bus is closed")

// Bus publishes and subscribes dataset events on one topic.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	instanceID string
	closers    []func() error

	mu     sync.RWMutex
	closed bool
}

// Open creates the bus for cfg.Backend. logger may be nil.
func Open(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NewSlogLogger(logging.NewSlogLogger())
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "insightboard.dataset.changed"
	}

	switch cfg.Backend {
	case "", config.EventsGoChannel:
		return NewGoChannelBus(topic, logger), nil
	case config.EventsNATS:
		return openNATS(cfg.NATSURL, topic, logger)
	}
	return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
}

// NewGoChannelBus creates an in-process bus.
func NewGoChannelBus(topic string, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
	return &Bus{
		publisher:  pubSub,
		subscriber: pubSub,
		topic:      topic,
		instanceID: uuid.NewString(),
		closers:    []func() error{pubSub.Close},
	}
}

func openNATS(url, topic string, logger watermill.LoggerAdapter) (*Bus, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("insightboard"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}
	// Core NATS: every replica must see every event.
	jsDisabled := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   jsDisabled,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		CloseTimeout:     10 * time.Second,
		AckWaitTimeout:   30 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        jsDisabled,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Bus{
		publisher:  pub,
		subscriber: sub,
		topic:      topic,
		instanceID: uuid.NewString(),
		closers:    []func() error{sub.Close, pub.Close},
	}, nil
}

// InstanceID identifies this process on the bus.
func (b *Bus) InstanceID() string {
	return b.instanceID
}

// Topic returns the subject events are published on.
func (b *Bus) Topic() string {
	return b.topic
}

// PublishDatasetChanged announces count newly committed rows.
func (b *Bus) PublishDatasetChanged(ctx context.Context, count int) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	ev := DatasetChanged{
		Type:       TypeDatasetChanged,
		InstanceID: b.instanceID,
		Count:      count,
		At:         time.Now().UTC(),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", TypeDatasetChanged, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", TypeDatasetChanged)
	msg.Metadata.Set("instance_id", b.instanceID)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}

	if err := b.publisher.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TypeDatasetChanged, err)
	}
	metrics.EventsPublished.Inc()
	return nil
}

// Decode parses a dataset event message.
func Decode(msg *message.Message) (DatasetChanged, error) {
	var ev DatasetChanged
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return DatasetChanged{}, fmt.Errorf("decode %s: %w", msg.UUID, err)
	}
	if ev.Type != TypeDatasetChanged {
		return DatasetChanged{}, fmt.Errorf("unexpected event type %q", ev.Type)
	}
	return ev, nil
}

// Handler is called for each event from another instance.
type Handler func(ctx context.Context, ev DatasetChanged)

// Listen subscribes to the topic and calls handle for every peer event until
// ctx is canceled. Own events and undecodable messages are acked and skipped.
func (b *Bus) Listen(ctx context.Context, handle Handler) error {
	msgs, err := b.subscriber.Subscribe(ctx, b.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.topic, err)
	}
	logging.Info().Str("topic", b.topic).Str("instance_id", b.instanceID).Msg("Listening for dataset events")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("event subscription closed")
			}
			b.dispatch(ctx, msg, handle)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, msg *message.Message, handle Handler) {
	defer msg.Ack()

	ev, err := Decode(msg)
	if err != nil {
		metrics.EventsReceived.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Discarding invalid dataset event")
		return
	}
	if ev.InstanceID == b.instanceID {
		metrics.EventsReceived.WithLabelValues("self").Inc()
		return
	}

	metrics.EventsReceived.WithLabelValues("peer").Inc()
	msgCtx := ctx
	if id := msg.Metadata.Get("correlation_id"); id != "" {
		msgCtx = logging.ContextWithCorrelationID(ctx, id)
	}
	logging.Ctx(msgCtx).Info().
		Str("peer", ev.InstanceID).
		Int("count", ev.Count).
		Msg("Dataset changed on peer")
	handle(msgCtx, ev)
}

// Close shuts down the publisher and subscriber.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	for _, closeFn := range b.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}
