package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giadat1599/echo-support-api/internal/apierror"
	"github.com/giadat1599/echo-support-api/internal/llm"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/pkg/logger"
)

type messageFixture struct {
	*conversationFixture
	agent *fakeAgent
	llm   *scriptedLLM
	svc   *MessageService
}

func newMessageFixture(t *testing.T, dbName string, gate GatePredicate) *messageFixture {
	t.Helper()

	cf := newConversationFixture(t, dbName)
	agent := &fakeAgent{}
	scripted := &scriptedLLM{}

	return &messageFixture{
		conversationFixture: cf,
		agent:               agent,
		llm:                 scripted,
		svc: NewMessageService(
			cf.threads, cf.sessions, cf.svc, agent, scripted, gate, logger.NewNop(),
		),
	}
}

func (f *messageFixture) newConversation(t *testing.T, session *model.ContactSession, status model.ConversationStatus) *model.Conversation {
	t.Helper()

	id, err := f.conversationFixture.svc.Create(context.Background(), &model.CreateConversationRequest{
		ContactSessionID: session.ID,
		OrganizationID:   session.OrganizationID,
	})
	require.NoError(t, err)

	if status != model.StatusUnresolved {
		_, err = f.conversationFixture.svc.UpdateStatus(context.Background(), session.OrganizationID, id, status)
		require.NoError(t, err)
	}

	conv, err := f.conversationFixture.svc.get(context.Background(), id)
	require.NoError(t, err)
	return conv
}

func TestCreateFromContactRouting(t *testing.T) {
	f := newMessageFixture(t, "message_contact_routing", nil)
	session := f.newSession(t, "org_1")

	t.Run("unresolved invokes the agent", func(t *testing.T) {
		conv := f.newConversation(t, session, model.StatusUnresolved)

		err := f.svc.CreateFromContact(context.Background(), &model.SendMessageRequest{
			Prompt:           "  where is my order?  ",
			ThreadID:         conv.ThreadID,
			ContactSessionID: session.ID,
		})
		require.NoError(t, err)

		require.Len(t, f.agent.calls, 1)
		assert.Equal(t, conv.ID, f.agent.calls[0].conversationID)
		assert.Equal(t, "where is my order?", f.agent.calls[0].prompt)

		// The agent fake does not write to the thread; only the welcome
		// message exists.
		assert.Len(t, f.threads.messages(conv.ThreadID), 1)
	})

	t.Run("escalated saves a plain user message", func(t *testing.T) {
		conv := f.newConversation(t, session, model.StatusEscalated)
		before := len(f.agent.calls)

		err := f.svc.CreateFromContact(context.Background(), &model.SendMessageRequest{
			Prompt:           "still waiting",
			ThreadID:         conv.ThreadID,
			ContactSessionID: session.ID,
		})
		require.NoError(t, err)

		assert.Len(t, f.agent.calls, before)

		msgs := f.threads.messages(conv.ThreadID)
		require.Len(t, msgs, 2)
		assert.Equal(t, string(model.RoleUser), msgs[1].Role)
		assert.Equal(t, "still waiting", msgs[1].Content)
	})

	t.Run("resolved rejects new messages", func(t *testing.T) {
		conv := f.newConversation(t, session, model.StatusResolved)

		err := f.svc.CreateFromContact(context.Background(), &model.SendMessageRequest{
			Prompt:           "hello again",
			ThreadID:         conv.ThreadID,
			ContactSessionID: session.ID,
		})
		require.Error(t, err)
		assert.True(t, apierror.IsCode(err, apierror.CodeBadRequest))
		assert.Contains(t, err.Error(), "Conversation resolved")
	})

	t.Run("empty prompt", func(t *testing.T) {
		err := f.svc.CreateFromContact(context.Background(), &model.SendMessageRequest{
			Prompt:           "   ",
			ContactSessionID: session.ID,
		})
		assert.True(t, apierror.IsCode(err, apierror.CodeBadRequest))
	})

	t.Run("unknown thread reads as unauthorized", func(t *testing.T) {
		err := f.svc.CreateFromContact(context.Background(), &model.SendMessageRequest{
			Prompt:           "hi",
			ThreadID:         "missing-thread",
			ContactSessionID: session.ID,
		})
		require.Error(t, err)
		assert.True(t, apierror.IsCode(err, apierror.CodeUnauthorized))
		assert.Contains(t, err.Error(), "Conversation not found")
	})

	t.Run("foreign session is forbidden", func(t *testing.T) {
		conv := f.newConversation(t, session, model.StatusUnresolved)
		other := f.newSession(t, "org_1")

		err := f.svc.CreateFromContact(context.Background(), &model.SendMessageRequest{
			Prompt:           "hi",
			ThreadID:         conv.ThreadID,
			ContactSessionID: other.ID,
		})
		require.Error(t, err)
		assert.True(t, apierror.IsCode(err, apierror.CodeUnauthorized))
		assert.Contains(t, err.Error(), "Access to this conversation is forbidden")
	})
}

func TestCreateFromOperator(t *testing.T) {
	f := newMessageFixture(t, "message_operator", nil)
	session := f.newSession(t, "org_1")

	t.Run("saved under the assistant role", func(t *testing.T) {
		conv := f.newConversation(t, session, model.StatusEscalated)

		err := f.svc.CreateFromOperator(context.Background(), "org_1", &model.OperatorMessageRequest{
			Prompt:         "An operator here, looking into it.",
			ConversationID: conv.ID,
		})
		require.NoError(t, err)

		msgs := f.threads.messages(conv.ThreadID)
		require.Len(t, msgs, 2)
		assert.Equal(t, string(model.RoleAssistant), msgs[1].Role)
		assert.Equal(t, "An operator here, looking into it.", msgs[1].Content)
	})

	t.Run("wrong tenant", func(t *testing.T) {
		conv := f.newConversation(t, session, model.StatusEscalated)

		err := f.svc.CreateFromOperator(context.Background(), "org_2", &model.OperatorMessageRequest{
			Prompt:         "hello",
			ConversationID: conv.ID,
		})
		require.Error(t, err)
		assert.True(t, apierror.IsCode(err, apierror.CodeUnauthorized))
	})

	t.Run("resolved conversation", func(t *testing.T) {
		conv := f.newConversation(t, session, model.StatusResolved)

		err := f.svc.CreateFromOperator(context.Background(), "org_1", &model.OperatorMessageRequest{
			Prompt:         "hello",
			ConversationID: conv.ID,
		})
		require.Error(t, err)
		assert.True(t, apierror.IsCode(err, apierror.CodeBadRequest))
		assert.Contains(t, err.Error(), "Conversation resolved")
	})
}

func TestMessageGate(t *testing.T) {
	denied := apierror.Unauthorized("Plan limit reached")
	f := newMessageFixture(t, "message_gate", func(ctx context.Context, organizationID string) error {
		return denied
	})
	session := f.newSession(t, "org_1")
	conv := f.newConversation(t, session, model.StatusUnresolved)

	err := f.svc.CreateFromContact(context.Background(), &model.SendMessageRequest{
		Prompt:           "hi",
		ThreadID:         conv.ThreadID,
		ContactSessionID: session.ID,
	})
	require.ErrorIs(t, err, denied)
	assert.Empty(t, f.agent.calls)

	err = f.svc.CreateFromOperator(context.Background(), "org_1", &model.OperatorMessageRequest{
		Prompt:         "hi",
		ConversationID: conv.ID,
	})
	require.ErrorIs(t, err, denied)
}

func TestListForContact(t *testing.T) {
	f := newMessageFixture(t, "message_list_contact", nil)
	session := f.newSession(t, "org_1")
	conv := f.newConversation(t, session, model.StatusEscalated)

	for i := 0; i < 3; i++ {
		err := f.svc.CreateFromContact(context.Background(), &model.SendMessageRequest{
			Prompt:           "message",
			ThreadID:         conv.ThreadID,
			ContactSessionID: session.ID,
		})
		require.NoError(t, err)
	}

	t.Run("owner reads the thread", func(t *testing.T) {
		page, err := f.svc.ListForContact(context.Background(), conv.ThreadID, session.ID, "", 10)
		require.NoError(t, err)
		assert.Len(t, page.Items, 4) // welcome plus three user messages
		assert.True(t, page.IsDone)
	})

	t.Run("pages through the cursor", func(t *testing.T) {
		first, err := f.svc.ListForContact(context.Background(), conv.ThreadID, session.ID, "", 2)
		require.NoError(t, err)
		require.Len(t, first.Items, 2)
		assert.False(t, first.IsDone)

		second, err := f.svc.ListForContact(context.Background(), conv.ThreadID, session.ID, first.NextCursor, 10)
		require.NoError(t, err)
		require.Len(t, second.Items, 2)
		assert.True(t, second.IsDone)
		assert.Greater(t, second.Items[0].Sequence, first.Items[1].Sequence)
	})

	t.Run("foreign session is forbidden", func(t *testing.T) {
		other := f.newSession(t, "org_1")
		_, err := f.svc.ListForContact(context.Background(), conv.ThreadID, other.ID, "", 10)
		assert.True(t, apierror.IsCode(err, apierror.CodeUnauthorized))
	})

	t.Run("expired session is rejected", func(t *testing.T) {
		f.sessions.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
		defer func() { f.sessions.now = time.Now }()

		_, err := f.svc.ListForContact(context.Background(), conv.ThreadID, session.ID, "", 10)
		assert.True(t, apierror.IsCode(err, apierror.CodeUnauthorized))
	})
}

func TestListForOperator(t *testing.T) {
	f := newMessageFixture(t, "message_list_operator", nil)
	session := f.newSession(t, "org_1")
	conv := f.newConversation(t, session, model.StatusUnresolved)

	page, err := f.svc.ListForOperator(context.Background(), "org_1", conv.ThreadID, "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = f.svc.ListForOperator(context.Background(), "org_2", conv.ThreadID, "", 10)
	assert.True(t, apierror.IsCode(err, apierror.CodeUnauthorized))
}

func TestEnhance(t *testing.T) {
	f := newMessageFixture(t, "message_enhance", nil)
	f.llm.responses = []*llm.CompletionResponse{
		{Content: "I would be happy to help you with that.", Model: "scripted"},
	}

	resp, err := f.svc.Enhance(context.Background(), "  ya i can help  ")
	require.NoError(t, err)
	assert.Equal(t, "I would be happy to help you with that.", resp.Text)

	require.Len(t, f.llm.requests, 1)
	req := f.llm.requests[0]
	assert.Equal(t, enhanceInstructions, req.System)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "ya i can help", req.Messages[0].Content)
	assert.Empty(t, req.Tools)

	_, err = f.svc.Enhance(context.Background(), "   ")
	assert.True(t, apierror.IsCode(err, apierror.CodeBadRequest))
}
