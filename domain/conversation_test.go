package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversation_HasParticipant(t *testing.T) {
	conv := Conversation{
		ID:           "conv-1",
		Participants: []UserID{"alice", "bob"},
	}

	require.True(t, conv.HasParticipant("alice"))
	require.True(t, conv.HasParticipant("bob"))
	require.False(t, conv.HasParticipant("mallory"))
}

func TestConversation_Others(t *testing.T) {
	conv := Conversation{
		ID:           "conv-1",
		Participants: []UserID{"alice", "bob", "agent-7"},
	}

	others := conv.Others("bob")
	require.Equal(t, []UserID{"alice", "agent-7"}, others)

	// A non-participant excludes nobody
	require.Len(t, conv.Others("mallory"), 3)
}

func TestDeliveryStatus_Rank_IsForwardOnly(t *testing.T) {
	require.Less(t, StatusPending.Rank(), StatusDelivered.Rank())
	require.Less(t, StatusDelivered.Rank(), StatusRead.Rank())
}
