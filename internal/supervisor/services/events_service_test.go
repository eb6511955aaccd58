// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/insightboard/internal/events"
)

type mockEventSource struct {
	listenErr error
	deliver   *events.DatasetChanged
	calls     atomic.Int32
}

func (m *mockEventSource) Listen(ctx context.Context, handle events.Handler) error {
	m.calls.Add(1)
	if m.deliver != nil {
		handle(ctx, *m.deliver)
	}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestEventListenerService_Interface(t *testing.T) {
	var _ suture.Service = (*EventListenerService)(nil)
}

func TestEventListenerService_Serve(t *testing.T) {
	t.Run("delivers events and stops on cancellation", func(t *testing.T) {
		src := &mockEventSource{deliver: &events.DatasetChanged{Count: 3}}
		var got atomic.Int32
		svc := NewEventListenerService(src, func(_ context.Context, ev events.DatasetChanged) {
			got.Store(int32(ev.Count))
		})

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return after cancellation")
		}
		if got.Load() != 3 {
			t.Errorf("handler saw count %d, want 3", got.Load())
		}
	})

	t.Run("lost subscription is an error", func(t *testing.T) {
		lost := errors.New("subscription closed")
		svc := NewEventListenerService(&mockEventSource{listenErr: lost}, func(context.Context, events.DatasetChanged) {})

		err := svc.Serve(context.Background())
		if !errors.Is(err, lost) {
			t.Errorf("expected wrapped %v, got %v", lost, err)
		}
	})
}

func TestEventListenerService_String(t *testing.T) {
	svc := NewEventListenerService(&mockEventSource{}, nil)
	if svc.String() != "dataset-events" {
		t.Errorf("expected 'dataset-events', got %q", svc.String())
	}
}

func TestEventListenerService_RestartedBySupervisor(t *testing.T) {
	src := &mockEventSource{listenErr: errors.New("nats gone")}
	svc := NewEventListenerService(src, func(context.Context, events.DatasetChanged) {})

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   5 * time.Millisecond,
		Timeout:          100 * time.Millisecond,
	})
	sup.Add(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	<-sup.ServeBackground(ctx)

	if src.calls.Load() < 2 {
		t.Errorf("expected the listener to be resubscribed, got %d calls", src.calls.Load())
	}
}
