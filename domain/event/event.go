package event

import (
	"market-chat/domain"
)

type DomainEvent interface {
	ConversationID() domain.ConversationID
}

// MessageStored is emitted once a message made it to the durable log,
// whatever happens to delivery afterwards.
type MessageStored struct {
	Message domain.Message
}

func (e MessageStored) ConversationID() domain.ConversationID {
	return e.Message.Conversation
}

// ParticipantOffline is emitted when a stored message could not reach
// any live connection of a participant. The notification collaborator
// consumes it to trigger out-of-band delivery (email, mobile push).
type ParticipantOffline struct {
	Message     domain.Message
	Participant domain.UserID
}

func (e ParticipantOffline) ConversationID() domain.ConversationID {
	return e.Message.Conversation
}
