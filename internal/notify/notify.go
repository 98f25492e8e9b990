// Package notify delivers side-channel notifications raised by tools.
// Delivery is best-effort: a failing sink is logged and never fails the
// tool invocation that triggered it.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

// Notification is a single message for the operator
type Notification struct {
	Title   string
	Message string
}

// Notifier delivers a notification synchronously
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Sender queues a notification without waiting for delivery
type Sender interface {
	Send(n Notification)
}

const defaultSendTimeout = 10 * time.Second

// Async fires each notification exactly once on a background goroutine.
type Async struct {
	sink    Notifier
	timeout time.Duration
	logger  zerolog.Logger
	wg      conc.WaitGroup
}

func NewAsync(sink Notifier, timeout time.Duration, logger zerolog.Logger) *Async {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Async{
		sink:    sink,
		timeout: timeout,
		logger:  logger,
	}
}

// Send schedules delivery and returns immediately. The send does not use the
// caller's context: it must outlive the turn that produced it.
func (a *Async) Send(n Notification) {
	a.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.sink.Notify(ctx, n); err != nil {
			a.logger.Warn().Err(err).Str("title", n.Title).Msg("notification delivery failed")
			return
		}
		a.logger.Debug().Str("title", n.Title).Msg("notification delivered")
	})
}

// Close waits for in-flight deliveries
func (a *Async) Close() {
	if recovered := a.wg.WaitAndRecover(); recovered != nil {
		a.logger.Error().Err(recovered.AsError()).Msg("notification sink panicked")
	}
}

// LogNotifier writes notifications to the log. It is the fallback when no
// push provider is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.logger.Info().Str("title", n.Title).Str("message", n.Message).Msg("notification")
	return nil
}
