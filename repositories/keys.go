package repositories

import (
	"fmt"

	"market-chat/domain"
)

// Key layout in BadgerDB. Message and status keys embed the sequence
// number as 19-digit zero-padded text so a plain lexicographic prefix
// scan yields messages in sequence order:
//
//	cnv:{conversation}                  conversation record
//	seq:{conversation}                  last assigned sequence number
//	msg:{conversation}:{seq}            message record
//	sts:{conversation}:{seq}:{user}     delivery status for one participant
//	cur:{conversation}:{user}           highest delivered sequence (cursor)
//	ucv:{user}:{conversation}           membership index for listings
const paddedSeqWidth = 19

func conversationKey(id domain.ConversationID) []byte {
	return []byte("cnv:" + id)
}

func seqKey(id domain.ConversationID) []byte {
	return []byte("seq:" + id)
}

func messageKey(id domain.ConversationID, seq int64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%0*d", id, paddedSeqWidth, seq))
}

func messagePrefix(id domain.ConversationID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", id))
}

func statusKey(id domain.ConversationID, seq int64, user domain.UserID) []byte {
	return []byte(fmt.Sprintf("sts:%s:%0*d:%s", id, paddedSeqWidth, seq, user))
}

func statusPrefix(id domain.ConversationID) []byte {
	return []byte(fmt.Sprintf("sts:%s:", id))
}

func cursorKey(id domain.ConversationID, user domain.UserID) []byte {
	return []byte(fmt.Sprintf("cur:%s:%s", id, user))
}

func userIndexKey(user domain.UserID, id domain.ConversationID) []byte {
	return []byte(fmt.Sprintf("ucv:%s:%s", user, id))
}

func userIndexPrefix(user domain.UserID) []byte {
	return []byte(fmt.Sprintf("ucv:%s:", user))
}
