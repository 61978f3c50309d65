package repositories

import (
	"time"

	"github.com/samber/lo"

	"market-chat/domain"
)

// Records are the JSON shapes stored in BadgerDB. They are kept apart
// from the domain types so the storage encoding can evolve without
// touching callers.

type conversationRecord struct {
	ID            string    `json:"id"`
	Participants  []string  `json:"participants"`
	OrderRef      string    `json:"order_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Resolved      bool      `json:"resolved"`
	LastMessageAt time.Time `json:"last_message_at"`
}

type messageRecord struct {
	Seq           int64     `json:"seq"`
	Conversation  string    `json:"conversation"`
	Sender        string    `json:"sender"`
	Body          string    `json:"body,omitempty"`
	AttachmentRef string    `json:"attachment_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Deleted       bool      `json:"deleted,omitempty"`
}

func fromConversation(c domain.Conversation) conversationRecord {
	return conversationRecord{
		ID: string(c.ID),
		Participants: lo.Map(c.Participants, func(p domain.UserID, _ int) string {
			return string(p)
		}),
		OrderRef:      c.OrderRef,
		CreatedAt:     c.CreatedAt,
		Resolved:      c.Resolved,
		LastMessageAt: c.LastMessageAt,
	}
}

func toConversation(rec conversationRecord) domain.Conversation {
	return domain.Conversation{
		ID: domain.ConversationID(rec.ID),
		Participants: lo.Map(rec.Participants, func(p string, _ int) domain.UserID {
			return domain.UserID(p)
		}),
		OrderRef:      rec.OrderRef,
		CreatedAt:     rec.CreatedAt,
		Resolved:      rec.Resolved,
		LastMessageAt: rec.LastMessageAt,
	}
}

func fromMessage(m domain.Message) messageRecord {
	return messageRecord{
		Seq:           m.Seq,
		Conversation:  string(m.Conversation),
		Sender:        string(m.Sender),
		Body:          m.Body,
		AttachmentRef: m.AttachmentRef,
		CreatedAt:     m.CreatedAt,
		Deleted:       m.Deleted,
	}
}

func toMessage(rec messageRecord) domain.Message {
	return domain.Message{
		Seq:           rec.Seq,
		Conversation:  domain.ConversationID(rec.Conversation),
		Sender:        domain.UserID(rec.Sender),
		Body:          rec.Body,
		AttachmentRef: rec.AttachmentRef,
		CreatedAt:     rec.CreatedAt,
		Deleted:       rec.Deleted,
	}
}
