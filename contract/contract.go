//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"market-chat/domain"
	"market-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Conn is one live connection of a user. Push hands a message to the
// connection's outbound buffer; it must return within a bounded time
// and never block a dispatch indefinitely.
type Conn interface {
	ID() string
	User() domain.UserID
	Push(ctx context.Context, msg domain.Message) error
	Close()
}

// IRegistry maps a user identity to its live connections.
// A user may hold several simultaneous connections (multiple devices).
type IRegistry interface {
	Register(c Conn)
	Unregister(user domain.UserID, connID string)
	ConnectionsFor(user domain.UserID) []Conn
	Connected(user domain.UserID) bool
}

// IConversationStore owns all durable state: conversations, the ordered
// message log, per-participant delivery statuses and delivery cursors.
type IConversationStore interface {
	CreateConversation(participants []domain.UserID, orderRef string) (domain.Conversation, error)
	Conversation(id domain.ConversationID) (domain.Conversation, error)
	AppendMessage(id domain.ConversationID, sender domain.UserID, body, attachmentRef string) (domain.Message, error)
	MessagesSince(id domain.ConversationID, after int64, limit int) ([]domain.Message, error)
	MarkDelivered(id domain.ConversationID, seq int64, participant domain.UserID) error
	MarkRead(id domain.ConversationID, seq int64, participant domain.UserID) error
	DeleteMessage(id domain.ConversationID, seq int64) error
	DeliveredCursor(id domain.ConversationID, user domain.UserID) (int64, error)
	StatusFor(id domain.ConversationID, seq int64) (map[domain.UserID]domain.DeliveryStatus, error)
	ConversationsFor(user domain.UserID) ([]domain.ConversationSummary, error)
	Resolve(id domain.ConversationID) error
}

// IDispatcher persists a message then fans it out to every live
// connection of the other participants.
type IDispatcher interface {
	Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error)
}

// IReconciler replays the gap a freshly registered connection missed.
type IReconciler interface {
	Replay(ctx context.Context, conn Conn) error
}

// Notifier is the out-of-band notification collaborator. It receives
// "participant had no live connection" events, nothing more.
type Notifier interface {
	Notify(ctx context.Context, e event.ParticipantOffline) error
}
