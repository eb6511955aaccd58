// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/metrics"
)

// pairOnOneChannel returns two buses sharing one in-process pub/sub, as two
// replicas on the same broker would.
func pairOnOneChannel(t *testing.T) (writer, peer *Bus) {
	t.Helper()
	writer = NewGoChannelBus("test.dataset.changed", nil)
	peer = &Bus{
		publisher:  writer.publisher,
		subscriber: writer.subscriber,
		topic:      writer.topic,
		instanceID: "peer-instance",
	}
	t.Cleanup(func() { writer.Close() })
	return writer, peer
}

// listen runs b.Listen in the background and returns the received events.
func listen(t *testing.T, b *Bus) (<-chan DatasetChanged, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan DatasetChanged, 8)
	errc := make(chan error, 1)
	go func() {
		errc <- b.Listen(ctx, func(_ context.Context, ev DatasetChanged) {
			got <- ev
		})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errc:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("Listen returned %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Listen did not return after cancel")
		}
	})
	// gochannel drops messages published before the subscription exists.
	time.Sleep(50 * time.Millisecond)
	return got, cancel
}

func TestPeerReceivesEvent(t *testing.T) {
	writer, peer := pairOnOneChannel(t)
	received, _ := listen(t, peer)

	if err := writer.PublishDatasetChanged(context.Background(), 7); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case ev := <-received:
		if ev.Count != 7 || ev.InstanceID != writer.InstanceID() || ev.Type != TypeDatasetChanged {
			t.Errorf("event = %+v", ev)
		}
		if ev.At.IsZero() {
			t.Error("event timestamp not set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("peer did not receive event")
	}
}

func TestOwnEventsAreSkipped(t *testing.T) {
	writer, _ := pairOnOneChannel(t)
	before := testutil.ToFloat64(metrics.EventsReceived.WithLabelValues("self"))
	received, _ := listen(t, writer)

	if err := writer.PublishDatasetChanged(context.Background(), 1); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case ev := <-received:
		t.Fatalf("own event delivered to handler: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
	if got := testutil.ToFloat64(metrics.EventsReceived.WithLabelValues("self")); got != before+1 {
		t.Errorf("self events = %v, want %v", got, before+1)
	}
}

func TestInvalidMessagesAreDiscarded(t *testing.T) {
	writer, peer := pairOnOneChannel(t)
	before := testutil.ToFloat64(metrics.EventsReceived.WithLabelValues("invalid"))
	received, _ := listen(t, peer)

	bad := message.NewMessage(watermill.NewUUID(), []byte(`{"type":"something.else"}`))
	if err := writer.publisher.Publish(writer.topic, bad); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	garbage := message.NewMessage(watermill.NewUUID(), []byte(`not json`))
	if err := writer.publisher.Publish(writer.topic, garbage); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case ev := <-received:
		t.Fatalf("invalid event delivered: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
	if got := testutil.ToFloat64(metrics.EventsReceived.WithLabelValues("invalid")); got != before+2 {
		t.Errorf("invalid events = %v, want %v", got, before+2)
	}
}

func TestPublishAfterClose(t *testing.T) {
	b := NewGoChannelBus("closed.topic", nil)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := b.PublishDatasetChanged(context.Background(), 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close = %v, want ErrClosed", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "valid", payload: `{"type":"dataset.changed","instance_id":"a","count":3,"at":"2026-01-01T00:00:00Z"}`},
		{name: "wrong type", payload: `{"type":"other"}`, wantErr: true},
		{name: "malformed", payload: `{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(message.NewMessage("id", []byte(tt.payload)))
			if (err != nil) != tt.wantErr {
				t.Errorf("Decode err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenBackends(t *testing.T) {
	b, err := Open(config.EventsConfig{Backend: config.EventsGoChannel}, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("Open gochannel: %v", err)
	}
	if b.Topic() == "" || b.InstanceID() == "" {
		t.Errorf("topic %q / instance %q should default", b.Topic(), b.InstanceID())
	}
	b.Close()

	if _, err := Open(config.EventsConfig{Backend: "kafka"}, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestListenAddr(t *testing.T) {
	tests := []struct {
		url      string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{url: "nats://127.0.0.1:4222", wantHost: "127.0.0.1", wantPort: 4222},
		{url: "nats://localhost:0", wantHost: "localhost", wantPort: 0},
		{url: "nats://natshost", wantHost: "natshost", wantPort: 4222},
		{url: "nats://host:abc", wantErr: true},
	}
	for _, tt := range tests {
		host, port, err := listenAddr(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v", tt.url, err)
			continue
		}
		if !tt.wantErr && (host != tt.wantHost || port != tt.wantPort) {
			t.Errorf("%s: got %s:%d", tt.url, host, port)
		}
	}
}

func TestNATSPeersSeeEachOther(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	srv, err := NewEmbeddedServer("nats://127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewEmbeddedServer: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	if !srv.IsRunning() {
		t.Fatal("embedded server not running")
	}

	cfg := config.EventsConfig{Backend: config.EventsNATS, NATSURL: srv.ClientURL(), Topic: "test.nats.dataset"}
	a, err := Open(cfg, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("Open a: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	b, err := Open(cfg, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("Open b: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	gotA, _ := listen(t, a)
	gotB, _ := listen(t, b)
	time.Sleep(200 * time.Millisecond)

	if err := a.PublishDatasetChanged(context.Background(), 3); err != nil {
		t.Fatalf("a.Publish: %v", err)
	}
	select {
	case ev := <-gotB:
		if ev.InstanceID != a.InstanceID() || ev.Count != 3 {
			t.Errorf("b received %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("b did not receive a's event")
	}

	if err := b.PublishDatasetChanged(context.Background(), 5); err != nil {
		t.Fatalf("b.Publish: %v", err)
	}
	select {
	case ev := <-gotA:
		if ev.InstanceID != b.InstanceID() || ev.Count != 5 {
			t.Errorf("a received %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("a did not receive b's event")
	}
}
