package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/giadat1599/echo-support-api/internal/llm"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/internal/thread"
)

func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Organization{},
		&model.ContactSession{},
		&model.Conversation{},
		&model.Plugin{},
		&model.FileEntry{},
	))

	return db
}

// memThreadStore is an in-memory thread.Store for tests. Sequences are global
// across threads, matching the backing stream's behavior.
type memThreadStore struct {
	mu      sync.Mutex
	byID    map[string][]thread.Message
	seq     uint64
	saveErr error
}

func newMemThreadStore() *memThreadStore {
	return &memThreadStore{byID: make(map[string][]thread.Message)}
}

func (s *memThreadStore) CreateThread(ctx context.Context, organizationID string) (string, error) {
	return uuid.Must(uuid.NewV7()).String(), nil
}

func (s *memThreadStore) SaveMessage(ctx context.Context, organizationID string, msg *thread.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}

	s.seq++
	msg.Sequence = s.seq
	if msg.ID == "" {
		msg.ID = uuid.Must(uuid.NewV7()).String()
	}
	s.byID[msg.ThreadID] = append(s.byID[msg.ThreadID], *msg)
	return nil
}

func (s *memThreadStore) ListMessages(ctx context.Context, organizationID, threadID, cursor string, limit int) (*thread.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var after uint64
	if cursor != "" {
		if _, err := fmt.Sscanf(cursor, "%d", &after); err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
	}

	var items []thread.Message
	for _, msg := range s.byID[threadID] {
		if msg.Sequence > after {
			items = append(items, msg)
		}
		if len(items) == limit {
			break
		}
	}

	page := &thread.Page{Items: items, IsDone: len(items) < limit}
	if !page.IsDone {
		page.NextCursor = fmt.Sprintf("%d", items[len(items)-1].Sequence)
	}
	return page, nil
}

func (s *memThreadStore) messages(threadID string) []thread.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]thread.Message(nil), s.byID[threadID]...)
}

// fakeAgent records Generate calls instead of talking to a model.
type fakeAgent struct {
	calls []fakeAgentCall
	err   error
}

type fakeAgentCall struct {
	conversationID string
	prompt         string
}

func (a *fakeAgent) Generate(ctx context.Context, conv *model.Conversation, prompt string) error {
	a.calls = append(a.calls, fakeAgentCall{conversationID: conv.ID, prompt: prompt})
	return a.err
}

// scriptedLLM replays canned responses in order and records the requests it
// saw.
type scriptedLLM struct {
	responses []*llm.CompletionResponse
	errs      []error
	requests  []*llm.CompletionRequest
}

func (c *scriptedLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.requests = append(c.requests, req)

	i := len(c.requests) - 1
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return &llm.CompletionResponse{Content: "ok", Model: "scripted"}, nil
}

func (c *scriptedLLM) Name() string { return "scripted" }

// memBlobStore is an in-memory blob.Store for tests.
type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) Store(ctx context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.Must(uuid.NewV7()).String()
	s.blobs[id] = append([]byte(nil), data...)
	return id, nil
}

func (s *memBlobStore) Delete(ctx context.Context, storageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[storageID]; !ok {
		return fmt.Errorf("unknown blob %q", storageID)
	}
	delete(s.blobs, storageID)
	return nil
}

func (s *memBlobStore) URL(storageID string) string {
	if storageID == "" {
		return ""
	}
	return "mem://" + storageID
}

func (s *memBlobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
