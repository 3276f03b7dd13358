// Package surface turns facade outcomes into a diagnostic record and, when
// configured, a short user notification.
package surface

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"healthkit-bridge/internal/common/errors"
	"healthkit-bridge/internal/common/logger"
	"healthkit-bridge/internal/common/metrics"
)

// Report is the terminal result of one facade call. Exactly one of Response
// and Failure is set.
type Report struct {
	Operation string
	Response  json.RawMessage
	Failure   *errors.StandardError
	Duration  time.Duration
}

func (r Report) Succeeded() bool { return r.Failure == nil }

type Notification struct {
	Title   string
	Body    string
	Failure bool
}

// Notifier shows a notification to the user. Errors are logged and counted,
// never returned to the caller of the operation.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

type Surfacer struct {
	logger         logger.Logger
	failures       *errors.FailureHandler
	notifiers      []Notifier
	notifyFailures bool
}

type Option func(*Surfacer)

func WithNotifier(n Notifier) Option {
	return func(s *Surfacer) { s.notifiers = append(s.notifiers, n) }
}

// WithFailureNotifications also notifies on failures; by default failures are
// only logged.
func WithFailureNotifications(enabled bool) Option {
	return func(s *Surfacer) { s.notifyFailures = enabled }
}

func New(log logger.Logger, opts ...Option) *Surfacer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Surfacer{
		logger:   log.WithFields(map[string]interface{}{"component": "surface"}),
		failures: errors.NewFailureHandler(log),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Surface writes the diagnostic record for r and dispatches notifications.
func (s *Surfacer) Surface(ctx context.Context, r Report) {
	if r.Succeeded() {
		s.logger.Info("operation succeeded", map[string]interface{}{
			"operation":  r.Operation,
			"response":   string(r.Response),
			"durationMs": r.Duration.Milliseconds(),
		})
		s.notify(ctx, Notification{Title: r.Operation, Body: string(r.Response)})
		return
	}

	failure := s.failures.Handle(r.Operation, r.Failure)
	if s.notifyFailures {
		s.notify(ctx, Notification{
			Title:   r.Operation + " failed",
			Body:    failure.Error(),
			Failure: true,
		})
	}
}

func (s *Surfacer) notify(ctx context.Context, n Notification) {
	for _, notifier := range s.notifiers {
		if err := deliver(ctx, notifier, n); err != nil {
			metrics.NotificationsFailed.WithLabelValues(notifier.Name()).Inc()
			s.logger.Warn("notification failed", map[string]interface{}{
				"notifier": notifier.Name(),
				"title":    n.Title,
				"error":    err.Error(),
			})
		}
	}
}

// deliver turns a notifier panic into an error.
func deliver(ctx context.Context, notifier Notifier, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier %s panicked: %v", notifier.Name(), r)
		}
	}()
	return notifier.Notify(ctx, n)
}
