// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package notify stores voter notifications and pushes them to open tabs.
package notify

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/i18n"
	"codeberg.org/oliverandrich/votelink/internal/models"
)

// Store persists notifications. *repository.Repository implements it.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, voterID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64, voterID string) error
}

// Pusher delivers realtime events. *sse.Hub implements it.
type Pusher interface {
	Publish(voterID, event string, data any)
}

// Service creates localized notifications.
type Service struct {
	store Store
	push  Pusher
	now   func() time.Time
}

// New creates a notification service. push may be nil.
func New(store Store, push Pusher) *Service {
	return &Service{
		store: store,
		push:  push,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Notify stores a notification whose title and message are the translations
// of messageID+"_title" and messageID+"_message" in the locale of ctx.
func (s *Service) Notify(ctx context.Context, voterID, kind, messageID string, data map[string]any) error {
	n := &models.Notification{
		VoterID:   voterID,
		Title:     i18n.TData(ctx, messageID+"_title", data),
		Message:   i18n.TData(ctx, messageID+"_message", data),
		Kind:      kind,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return err
	}
	if s.push != nil {
		s.push.Publish(voterID, "notification", n)
	}
	return nil
}

// List returns the notifications of a voter, newest first.
func (s *Service) List(ctx context.Context, voterID string) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, voterID)
}

// MarkRead marks one of the voter's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id int64, voterID string) error {
	return s.store.MarkNotificationRead(ctx, id, voterID)
}
