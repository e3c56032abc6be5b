package notifications

import (
	"context"
	"log/slog"
)

// Mailer delivers a notification by email. Implementations live in
// platform/email; nil disables mail entirely.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	Store       *Store
	Mailer      Mailer
	DefaultFrom string
}

func New(store *Store, mailer Mailer, defaultFrom string) *Service {
	if defaultFrom == "" {
		defaultFrom = "no-reply@congesflow.fr"
	}
	return &Service{Store: store, Mailer: mailer, DefaultFrom: defaultFrom}
}

// Notify persists the notification and sends the email best-effort.
// Mail failures are logged and swallowed; the workflow that triggered
// the notification already committed.
func (s *Service) Notify(ctx context.Context, userID, kind, title, body string) error {
	if err := s.Store.Create(ctx, userID, kind, title, body); err != nil {
		return err
	}
	if s.Mailer == nil {
		return nil
	}

	email, err := s.Store.UserEmail(ctx, userID)
	if err != nil || email == "" {
		if err != nil {
			slog.Warn("notification email lookup failed", "user", userID, "err", err)
		}
		return nil
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, email, title, body); err != nil {
		slog.Warn("notification email send failed", "user", userID, "err", err)
	}
	return nil
}

// NotifyAll fans a notification out to several users.
func (s *Service) NotifyAll(ctx context.Context, userIDs []string, kind, title, body string) {
	for _, id := range userIDs {
		if err := s.Notify(ctx, id, kind, title, body); err != nil {
			slog.Warn("notification create failed", "user", id, "err", err)
		}
	}
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.Store.List(ctx, userID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.Store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.Store.MarkRead(ctx, userID, notificationID)
}
