package repositories

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"market-chat/domain"
	"market-chat/errors"
)

const appendStripes = 64

// ConversationRepository is the durable side of the delivery engine:
// conversations, the ordered message log, per-participant delivery
// statuses and delivery cursors, all in BadgerDB.
//
// Sequence assignment must be atomic per conversation. Badger
// transactions alone would surface conflicts to the caller, so appends
// to the same conversation are serialized through a striped lock; the
// stripe is picked by hashing the conversation id, so unrelated
// conversations never wait on each other.
type ConversationRepository struct {
	db    *badger.DB
	log   *slog.Logger
	locks [appendStripes]sync.Mutex
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) *ConversationRepository {
	return &ConversationRepository{db: db, log: log}
}

func (r *ConversationRepository) lockFor(id domain.ConversationID) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &r.locks[h.Sum32()%appendStripes]
}

// CreateConversation persists a conversation with a fixed participant
// set. Duplicates in the input are collapsed; fewer than two distinct
// identities is a caller error.
func (r *ConversationRepository) CreateConversation(participants []domain.UserID, orderRef string) (domain.Conversation, error) {
	seen := make(map[domain.UserID]struct{}, len(participants))
	var distinct []domain.UserID
	for _, p := range participants {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		distinct = append(distinct, p)
	}
	if len(distinct) < 2 {
		return domain.Conversation{}, errors.ErrInvalidParticipants
	}

	conv := domain.Conversation{
		ID:           domain.ConversationID(uuid.NewString()),
		Participants: distinct,
		OrderRef:     orderRef,
		CreatedAt:    time.Now().UTC(),
	}
	bytes, err := json.Marshal(fromConversation(conv))
	if err != nil {
		return domain.Conversation{}, err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(conversationKey(conv.ID), bytes); err != nil {
			return err
		}
		for _, p := range distinct {
			if err := txn.Set(userIndexKey(p, conv.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("storing conversation: %w", err)
	}
	return conv, nil
}

func (r *ConversationRepository) Conversation(id domain.ConversationID) (domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		rec, err := getConversation(txn, id)
		if err != nil {
			return err
		}
		conv = toConversation(rec)
		return nil
	})
	return conv, err
}

// AppendMessage assigns the next sequence number of the conversation
// and stores the message alongside a pending delivery status for every
// participant except the sender. The sender's own delivery cursor
// advances in the same transaction: their copy is implicitly delivered,
// so replay on their reconnect starts after it.
func (r *ConversationRepository) AppendMessage(id domain.ConversationID, sender domain.UserID, body, attachmentRef string) (domain.Message, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	var msg domain.Message
	err := r.db.Update(func(txn *badger.Txn) error {
		rec, err := getConversation(txn, id)
		if err != nil {
			return err
		}
		conv := toConversation(rec)
		if !conv.HasParticipant(sender) {
			return errors.ErrSenderNotParticipant
		}

		last, err := readInt64(txn, seqKey(id))
		if err != nil {
			return err
		}
		seq := last + 1
		if err := writeInt64(txn, seqKey(id), seq); err != nil {
			return err
		}

		now := time.Now().UTC()
		msg = domain.Message{
			Seq:           seq,
			Conversation:  id,
			Sender:        sender,
			Body:          body,
			AttachmentRef: attachmentRef,
			CreatedAt:     now,
		}
		bytes, err := json.Marshal(fromMessage(msg))
		if err != nil {
			return err
		}
		if err := txn.Set(messageKey(id, seq), bytes); err != nil {
			return err
		}

		for _, p := range conv.Others(sender) {
			if err := txn.Set(statusKey(id, seq, p), []byte(domain.StatusPending)); err != nil {
				return err
			}
		}
		if err := bumpCursor(txn, id, sender, seq); err != nil {
			return err
		}

		rec.LastMessageAt = now
		convBytes, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(conversationKey(id), convBytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// MessagesSince returns messages with Seq > after, in sequence order.
// The padded sequence in the key makes the prefix scan come back
// already sorted. Limit <= 0 means the whole gap.
func (r *ConversationRepository) MessagesSince(id domain.ConversationID, after int64, limit int) ([]domain.Message, error) {
	var byteMessages [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(id)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(messageKey(id, after+1)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(byteMessages) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(byteMessages))
	for _, b := range byteMessages {
		var rec messageRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, err
		}
		messages = append(messages, toMessage(rec))
	}
	return messages, nil
}

func (r *ConversationRepository) MarkDelivered(id domain.ConversationID, seq int64, participant domain.UserID) error {
	return r.markStatus(id, seq, participant, domain.StatusDelivered)
}

func (r *ConversationRepository) MarkRead(id domain.ConversationID, seq int64, participant domain.UserID) error {
	return r.markStatus(id, seq, participant, domain.StatusRead)
}

// markStatus applies a forward-only status transition. Moving backward
// (read -> delivered) and repeating a transition are silent no-ops.
// Participants without a stored status key (the sender) are left alone.
func (r *ConversationRepository) markStatus(id domain.ConversationID, seq int64, participant domain.UserID, target domain.DeliveryStatus) error {
	return r.update(func(txn *badger.Txn) error {
		if _, err := txn.Get(messageKey(id, seq)); err != nil {
			if goerrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrMessageNotFound
			}
			return err
		}

		key := statusKey(id, seq, participant)
		item, err := txn.Get(key)
		if goerrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var current domain.DeliveryStatus
		if err := item.Value(func(value []byte) error {
			current = domain.DeliveryStatus(value)
			return nil
		}); err != nil {
			return err
		}
		if target.Rank() <= current.Rank() {
			return nil
		}
		if err := txn.Set(key, []byte(target)); err != nil {
			return err
		}
		return bumpCursor(txn, id, participant, seq)
	})
}

// DeleteMessage flips the soft-delete flag. Body and metadata stay in
// the log untouched.
func (r *ConversationRepository) DeleteMessage(id domain.ConversationID, seq int64) error {
	return r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(id, seq))
		if goerrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		var rec messageRecord
		if err := item.Value(func(value []byte) error {
			return json.Unmarshal(value, &rec)
		}); err != nil {
			return err
		}
		rec.Deleted = true
		bytes, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(messageKey(id, seq), bytes)
	})
}

// DeliveredCursor is the highest sequence number the user has ever been
// marked delivered (or read) for, 0 when the user never received
// anything. It drives replay on reconnection.
func (r *ConversationRepository) DeliveredCursor(id domain.ConversationID, user domain.UserID) (int64, error) {
	var cursor int64
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		cursor, err = readInt64(txn, cursorKey(id, user))
		return err
	})
	return cursor, err
}

// StatusFor builds the per-participant delivery map of one message.
// The sender is reported as delivered without a stored key.
func (r *ConversationRepository) StatusFor(id domain.ConversationID, seq int64) (map[domain.UserID]domain.DeliveryStatus, error) {
	statuses := make(map[domain.UserID]domain.DeliveryStatus)
	err := r.db.View(func(txn *badger.Txn) error {
		rec, err := getConversation(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(messageKey(id, seq))
		if goerrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		var msgRec messageRecord
		if err := item.Value(func(value []byte) error {
			return json.Unmarshal(value, &msgRec)
		}); err != nil {
			return err
		}

		for _, p := range rec.Participants {
			participant := domain.UserID(p)
			if p == msgRec.Sender {
				statuses[participant] = domain.StatusDelivered
				continue
			}
			statusItem, err := txn.Get(statusKey(id, seq, participant))
			if goerrors.Is(err, badger.ErrKeyNotFound) {
				statuses[participant] = domain.StatusPending
				continue
			}
			if err != nil {
				return err
			}
			if err := statusItem.Value(func(value []byte) error {
				statuses[participant] = domain.DeliveryStatus(value)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// ConversationsFor lists the user's conversations most-recent-first,
// each with its latest message and the user's unread count.
func (r *ConversationRepository) ConversationsFor(user domain.UserID) ([]domain.ConversationSummary, error) {
	var ids []domain.ConversationID
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := userIndexPrefix(user)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, domain.ConversationID(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ConversationSummary, 0, len(ids))
	for _, id := range ids {
		summary, err := r.summarize(id, user)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Conversation.LastMessageAt.After(summaries[j].Conversation.LastMessageAt)
	})
	return summaries, nil
}

func (r *ConversationRepository) summarize(id domain.ConversationID, user domain.UserID) (domain.ConversationSummary, error) {
	var summary domain.ConversationSummary
	err := r.db.View(func(txn *badger.Txn) error {
		rec, err := getConversation(txn, id)
		if err != nil {
			return err
		}
		summary.Conversation = toConversation(rec)

		last, err := lastMessage(txn, id)
		if err != nil {
			return err
		}
		summary.LastMessage = last

		unread, err := unreadCount(txn, id, user)
		if err != nil {
			return err
		}
		summary.UnreadCount = unread
		return nil
	})
	if err != nil {
		return domain.ConversationSummary{}, err
	}
	return summary, nil
}

// lastMessage seeks past the largest possible padded sequence and walks
// one step back with a reverse iterator.
func lastMessage(txn *badger.Txn, id domain.ConversationID) (*domain.Message, error) {
	prefix := messagePrefix(id)
	options := badger.DefaultIteratorOptions
	options.Reverse = true
	it := txn.NewIterator(options)
	defer it.Close()

	seekKey := append(append([]byte(nil), prefix...), []byte("9999999999999999999")...)
	it.Seek(seekKey)
	if !it.ValidForPrefix(prefix) {
		return nil, nil
	}
	var rec messageRecord
	if err := it.Item().Value(func(value []byte) error {
		return json.Unmarshal(value, &rec)
	}); err != nil {
		return nil, err
	}
	msg := toMessage(rec)
	return &msg, nil
}

// unreadCount counts status entries of the user that have not reached
// read. Status keys only exist for messages sent by someone else, so
// the user's own messages never inflate the count.
func unreadCount(txn *badger.Txn, id domain.ConversationID, user domain.UserID) (int, error) {
	prefix := statusPrefix(id)
	// sts:{conv}:{seq}:{user} -> the user segment starts after the
	// padded sequence and its separator.
	userOffset := len(prefix) + paddedSeqWidth + 1
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	count := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().Key()
		if len(key) < userOffset || string(key[userOffset:]) != string(user) {
			continue
		}
		var status domain.DeliveryStatus
		if err := it.Item().Value(func(value []byte) error {
			status = domain.DeliveryStatus(value)
			return nil
		}); err != nil {
			return 0, err
		}
		if status != domain.StatusRead {
			count++
		}
	}
	return count, nil
}

// Resolve archives a conversation. Messages stay readable; new appends
// are still accepted so a reopened dispute keeps its history.
func (r *ConversationRepository) Resolve(id domain.ConversationID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		rec, err := getConversation(txn, id)
		if err != nil {
			return err
		}
		rec.Resolved = true
		bytes, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(conversationKey(id), bytes)
	})
}

// update retries on transaction conflicts. Status transitions from
// several devices and the replay path can race on the same cursor key;
// every markStatus transition is idempotent, so replaying it is safe.
func (r *ConversationRepository) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = r.db.Update(fn)
		if !goerrors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func getConversation(txn *badger.Txn, id domain.ConversationID) (conversationRecord, error) {
	item, err := txn.Get(conversationKey(id))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return conversationRecord{}, errors.ErrConversationNotFound
	}
	if err != nil {
		return conversationRecord{}, err
	}
	var rec conversationRecord
	if err := item.Value(func(value []byte) error {
		return json.Unmarshal(value, &rec)
	}); err != nil {
		return conversationRecord{}, err
	}
	return rec, nil
}

func readInt64(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var value int64
	if err := item.Value(func(raw []byte) error {
		value, err = strconv.ParseInt(string(raw), 10, 64)
		return err
	}); err != nil {
		return 0, err
	}
	return value, nil
}

func writeInt64(txn *badger.Txn, key []byte, value int64) error {
	return txn.Set(key, []byte(strconv.FormatInt(value, 10)))
}

// bumpCursor advances the delivery cursor monotonically. A late
// delivery acknowledgment for an old message never moves it back.
func bumpCursor(txn *badger.Txn, id domain.ConversationID, user domain.UserID, seq int64) error {
	current, err := readInt64(txn, cursorKey(id, user))
	if err != nil {
		return err
	}
	if seq <= current {
		return nil
	}
	return writeInt64(txn, cursorKey(id, user), seq)
}
