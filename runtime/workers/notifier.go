package workers

import (
	"context"
	"log/slog"

	"market-chat/contract"
	"market-chat/domain/event"
)

// NotifierWorker drains offline-delivery events from the dispatcher and
// hands them to the notification collaborator. Notification is
// best-effort: a failed hand-off is logged, never retried here, because
// the message itself is already safe in the durable log.
type NotifierWorker struct {
	Log      *slog.Logger
	Events   chan event.DomainEvent
	Notifier contract.Notifier
}

func NewNotifierWorker(log *slog.Logger, events chan event.DomainEvent,
	notifier contract.Notifier) *NotifierWorker {
	return &NotifierWorker{Log: log, Events: events, Notifier: notifier}
}

func (w *NotifierWorker) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.Events:
			offline, ok := evt.(event.ParticipantOffline)
			if !ok {
				continue
			}
			if err := w.Notifier.Notify(ctx, offline); err != nil {
				w.Log.Warn("offline notification failed",
					"conversation", offline.Message.Conversation,
					"seq", offline.Message.Seq,
					"participant", offline.Participant,
					"error", err)
			}
		case <-ctx.Done():
			w.Log.Debug("Context done, stopping notifier")
			return nil
		}
	}
}

// LogNotifier is the default collaborator used when no notification
// service is wired: it only records that out-of-band delivery is due.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, e event.ParticipantOffline) error {
	n.Log.Info("participant offline, notification due",
		"conversation", e.Message.Conversation,
		"seq", e.Message.Seq,
		"participant", e.Participant)
	return nil
}
