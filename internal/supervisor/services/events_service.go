// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package services

import (
	"context"
	"fmt"

	"github.com/tomtom215/insightboard/internal/events"
)

// EventSource is satisfied by *events.Bus.
type EventSource interface {
	Listen(ctx context.Context, handle events.Handler) error
}

// EventListenerService consumes dataset events from peer replicas. A lost
// subscription returns an error so suture resubscribes with backoff.
type EventListenerService struct {
	source EventSource
	handle events.Handler
	name   string
}

// NewEventListenerService creates the listener. handle is typically
// insights.Service.HandlePeerEvent.
func NewEventListenerService(source EventSource, handle events.Handler) *EventListenerService {
	return &EventListenerService{
		source: source,
		handle: handle,
		name:   "dataset-events",
	}
}

// Serve implements suture.Service.
func (s *EventListenerService) Serve(ctx context.Context) error {
	err := s.source.Listen(ctx, s.handle)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("dataset event listener: %w", err)
}

// String implements fmt.Stringer for suture's logs.
func (s *EventListenerService) String() string {
	return s.name
}
