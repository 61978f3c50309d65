// Package domain contains core concepts of the messaging system.
// This file defines Message records and their delivery lifecycle.
// Messages are immutable once persisted; only delivery status
// and the soft-delete flag may change afterwards.
package domain

import (
	"time"
)

// DeliveryStatus tracks how far a message travelled towards one participant.
type DeliveryStatus string

const (
	StatusPending   DeliveryStatus = "pending"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)

// Rank orders statuses so transitions can never move backward.
func (s DeliveryStatus) Rank() int {
	switch s {
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	default:
		return 0
	}
}

// Message is one persisted chat event. Seq is assigned by the store,
// strictly increasing within a conversation, and doubles as the
// delivery cursor for replay.
type Message struct {
	Seq           int64
	Conversation  ConversationID
	Sender        UserID
	Body          string
	AttachmentRef string
	CreatedAt     time.Time
	Deleted       bool
}
