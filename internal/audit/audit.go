// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package audit writes protocol audit events in the background.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/models"
)

// Appender persists audit events. *repository.Repository implements it.
type Appender interface {
	AppendAuditEvent(ctx context.Context, ev *models.AuditEvent) error
}

const writeTimeout = 5 * time.Second

// Recorder queues audit events and appends them from a single goroutine, in
// the order they were recorded. Record never blocks: when the queue is full
// the event is dropped and logged.
type Recorder struct {
	store   Appender
	queue   chan models.AuditEvent
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewRecorder starts a recorder with room for buffer queued events.
func NewRecorder(store Appender, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 1
	}
	r := &Recorder{
		store: store,
		queue: make(chan models.AuditEvent, buffer),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues ev for writing.
func (r *Recorder) Record(ev models.AuditEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.drop(ev, "recorder closed")
		return
	}

	select {
	case r.queue <- ev:
	default:
		r.drop(ev, "queue full")
	}
}

// Dropped returns the number of events that were never written.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting events and waits until the queue is drained or ctx
// is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
	})

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	for ev := range r.queue {
		r.write(ev)
	}
}

func (r *Recorder) write(ev models.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.store.AppendAuditEvent(ctx, &ev); err != nil {
		r.dropped.Add(1)
		slog.Error("failed to write audit event",
			"action", ev.Action,
			"error", err,
		)
	}
}

func (r *Recorder) drop(ev models.AuditEvent, reason string) {
	r.dropped.Add(1)
	slog.Warn("audit event dropped",
		"action", ev.Action,
		"reason", reason,
	)
}
