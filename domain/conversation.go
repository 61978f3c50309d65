// Package domain contains core concepts of the messaging system.
// This file defines Conversation entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"
)

type ConversationID string

type UserID string

// Conversation is a fixed set of participants exchanging ordered messages,
// optionally scoped to an order handled by the order service.
// The participant set is immutable after creation.
type Conversation struct {
	ID           ConversationID
	Participants []UserID
	// OrderRef is an opaque identifier owned by the order service.
	// It is stored and returned as-is, never interpreted here.
	OrderRef      string
	CreatedAt     time.Time
	Resolved      bool
	LastMessageAt time.Time
}

func (c Conversation) HasParticipant(user UserID) bool {
	for _, p := range c.Participants {
		if p == user {
			return true
		}
	}
	return false
}

// Others returns every participant except the given one.
func (c Conversation) Others(user UserID) []UserID {
	var others []UserID
	for _, p := range c.Participants {
		if p != user {
			others = append(others, p)
		}
	}
	return others
}

// ConversationSummary is the listing view of a conversation:
// the record itself, its most recent message and the unread count
// for the user the listing was built for.
type ConversationSummary struct {
	Conversation Conversation
	LastMessage  *Message
	UnreadCount  int
}
