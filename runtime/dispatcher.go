package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"market-chat/contract"
	"market-chat/domain"
	"market-chat/domain/event"
)

// Dispatcher accepts an inbound message, persists it, then fans it out
// to every live connection of the other participants.
//
// Persistence is the durability point: if the append fails the caller
// sees the error and no delivery is attempted. Once stored, a message
// is never un-stored; fan-out failures are logged and self-heal through
// replay on the participant's next connection.
type Dispatcher struct {
	log      *slog.Logger
	store    contract.IConversationStore
	registry contract.IRegistry
	events   chan event.DomainEvent
}

func NewDispatcher(log *slog.Logger, store contract.IConversationStore,
	registry contract.IRegistry, bufferSize int) *Dispatcher {
	return &Dispatcher{
		log:      log,
		store:    store,
		registry: registry,
		events:   make(chan event.DomainEvent, bufferSize),
	}
}

// Events carries offline-notification events for the notifier worker.
func (d *Dispatcher) Events() chan event.DomainEvent { return d.events }

// Send persists the message and pushes it to the other participants.
// The returned error only ever reports "was my message stored"; nobody
// gets a synchronous signal for "did everyone see it live".
func (d *Dispatcher) Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error) {
	msg, err := d.store.AppendMessage(cmd.Conversation, cmd.Sender, cmd.Body, cmd.AttachmentRef)
	if err != nil {
		return domain.Message{}, err
	}

	conv, err := d.store.Conversation(cmd.Conversation)
	if err != nil {
		// Stored but unreadable back: give up on fan-out, replay
		// will catch the participants up.
		d.log.Error("conversation unreadable after append",
			"conversation", cmd.Conversation, "error", err)
		return msg, nil
	}

	for _, participant := range conv.Others(cmd.Sender) {
		d.deliver(ctx, msg, participant)
	}
	return msg, nil
}

// deliver pushes one message to every live connection of one
// participant. Delivery status is per participant, not per connection:
// several devices receiving the push still yield a single delivered
// transition. Participants with no successful push stay pending and an
// offline event is emitted for the notification collaborator.
func (d *Dispatcher) deliver(ctx context.Context, msg domain.Message, participant domain.UserID) {
	conns := d.registry.ConnectionsFor(participant)
	delivered := false
	for _, conn := range conns {
		if err := conn.Push(ctx, msg); err != nil {
			d.log.Warn("push failed",
				"conversation", msg.Conversation,
				"seq", msg.Seq,
				"participant", participant,
				"connection", conn.ID(),
				"error", err)
			continue
		}
		delivered = true
	}

	if !delivered {
		d.emit(event.ParticipantOffline{Message: msg, Participant: participant})
		return
	}
	if err := d.store.MarkDelivered(msg.Conversation, msg.Seq, participant); err != nil {
		d.log.Error("delivered transition failed",
			"conversation", msg.Conversation,
			"seq", msg.Seq,
			"participant", participant,
			"error", err)
	}
}

func (d *Dispatcher) emit(e event.DomainEvent) {
	select {
	case d.events <- e:
	default:
		d.log.Warn(fmt.Sprintf("Event channel full for conversation %s, dropping event", e.ConversationID()))
	}
}
