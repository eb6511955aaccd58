// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package services

import (
	"context"
	"errors"
	"time"

	"github.com/thejerf/suture/v4"
)

// NATSServer is satisfied by *events.EmbeddedServer.
type NATSServer interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// ErrNATSServerStopped means the embedded server died under a running tree.
var ErrNATSServerStopped = errors.New("embedded NATS server stopped unexpectedly")

// EmbeddedNATSService owns shutdown of an embedded NATS server. The server
// is started before the tree because the event bus connects to it while
// the tree is being built.
type EmbeddedNATSService struct {
	server          NATSServer
	checkInterval   time.Duration
	shutdownTimeout time.Duration
}

// NewEmbeddedNATSService wraps a running server.
func NewEmbeddedNATSService(server NATSServer, shutdownTimeout time.Duration) *EmbeddedNATSService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EmbeddedNATSService{
		server:          server,
		checkInterval:   5 * time.Second,
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve implements suture.Service. A dead server cannot be restarted in
// place, so the service asks suture not to retry.
func (s *EmbeddedNATSService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.server.IsRunning() {
				return errors.Join(ErrNATSServerStopped, suture.ErrDoNotRestart)
			}
		}
	}
}

// String implements fmt.Stringer for suture's logs.
func (s *EmbeddedNATSService) String() string {
	return "embedded-nats"
}
