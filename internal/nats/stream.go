package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/giadat1599/echo-support-api/internal/thread"
)

const (
	// StreamName is the name of the thread message stream.
	StreamName = "THREADS"

	// SubjectPrefix is the prefix for all thread subjects.
	SubjectPrefix = "thread"
)

// ThreadStore persists conversation threads in a JetStream stream. It
// implements thread.Store. Messages are immutable once appended and the
// stream's own sequence numbers serve as pagination cursors.
type ThreadStore struct {
	client *Client
}

// NewThreadStore creates a thread store over an established client.
func NewThreadStore(client *Client) *ThreadStore {
	return &ThreadStore{client: client}
}

// EnsureStream ensures the thread stream exists with proper configuration.
func (s *ThreadStore) EnsureStream(ctx context.Context) error {
	js := s.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Support conversation thread messages",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// messageSubject returns the subject a message is published on.
func messageSubject(organizationID, threadID, role string) string {
	return fmt.Sprintf("%s.%s.%s.msg.%s", SubjectPrefix, organizationID, threadID, role)
}

// threadFilter returns the filter subject matching all messages of a thread.
func threadFilter(organizationID, threadID string) string {
	return fmt.Sprintf("%s.%s.%s.msg.>", SubjectPrefix, organizationID, threadID)
}

// CreateThread mints a thread identifier. Threads are materialized lazily:
// a thread exists once its first message is published.
func (s *ThreadStore) CreateThread(ctx context.Context, organizationID string) (string, error) {
	return uuid.Must(uuid.NewV7()).String(), nil
}

// SaveMessage appends a message to a thread.
func (s *ThreadStore) SaveMessage(ctx context.Context, organizationID string, msg *thread.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.Must(uuid.NewV7()).String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	subject := messageSubject(organizationID, msg.ThreadID, msg.Role)
	ack, err := s.client.JetStream().Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	msg.Sequence = ack.Sequence

	return nil
}

// ListMessages returns one page of a thread's messages, oldest first. The
// cursor is the stream sequence of the last message already seen.
func (s *ThreadStore) ListMessages(ctx context.Context, organizationID, threadID, cursor string, limit int) (*thread.Page, error) {
	js := s.client.JetStream()

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: threadFilter(organizationID, threadID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}

	if cursor != "" {
		after, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = after + 1
	}

	consumer, err := js.CreateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var items []thread.Message
	var lastSequence uint64

	for msg := range batch.Messages() {
		var message thread.Message
		if err := json.Unmarshal(msg.Data(), &message); err != nil {
			continue
		}

		if meta, err := msg.Metadata(); err == nil {
			message.Sequence = meta.Sequence.Stream
			lastSequence = meta.Sequence.Stream
		}

		items = append(items, message)
	}

	if batch.Error() != nil && batch.Error() != context.DeadlineExceeded {
		return nil, fmt.Errorf("batch error: %w", batch.Error())
	}

	page := &thread.Page{
		Items:  items,
		IsDone: len(items) < limit,
	}
	if !page.IsDone {
		page.NextCursor = strconv.FormatUint(lastSequence, 10)
	}

	return page, nil
}
