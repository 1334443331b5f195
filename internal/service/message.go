package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/giadat1599/echo-support-api/internal/apierror"
	"github.com/giadat1599/echo-support-api/internal/llm"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/internal/thread"
	"github.com/giadat1599/echo-support-api/pkg/logger"
	"github.com/giadat1599/echo-support-api/pkg/metrics"
)

// enhanceInstructions drives the operator response rewrite. Pure transform,
// no conversation state involved.
const enhanceInstructions = "Enhance the operator's message to be more professional, clear, and helpful while maintaining their intent and key information. Reply with the improved message only."

// AgentRunner runs a generation for a conversation. Implemented by
// agent.Agent; faked in tests.
type AgentRunner interface {
	Generate(ctx context.Context, conv *model.Conversation, prompt string) error
}

// GatePredicate is the pluggable subscription/plan check evaluated alongside
// ownership checks. The default allows everything.
type GatePredicate func(ctx context.Context, organizationID string) error

// AllowAll is the default gate.
func AllowAll(ctx context.Context, organizationID string) error { return nil }

// MessageService routes new messages onto conversation threads and decides
// when the agent is invoked.
type MessageService struct {
	threads       thread.Store
	sessions      *SessionService
	conversations *ConversationService
	agent         AgentRunner
	llm           llm.Client
	gate          GatePredicate
	logger        *logger.Logger
}

// NewMessageService creates a message service. A nil gate means default-allow.
func NewMessageService(
	threads thread.Store,
	sessions *SessionService,
	conversations *ConversationService,
	agentRunner AgentRunner,
	llmClient llm.Client,
	gate GatePredicate,
	log *logger.Logger,
) *MessageService {
	if gate == nil {
		gate = AllowAll
	}
	return &MessageService{
		threads:       threads,
		sessions:      sessions,
		conversations: conversations,
		agent:         agentRunner,
		llm:           llmClient,
		gate:          gate,
		logger:        log,
	}
}

// CreateFromContact handles an end-user submission. Unresolved conversations
// trigger the agent with the escalate/resolve tools bound; escalated ones are
// in human-operator mode, so the prompt is persisted as a plain user message
// and the agent stays out of the thread.
func (s *MessageService) CreateFromContact(ctx context.Context, req *model.SendMessageRequest) error {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return apierror.BadRequest("Prompt is required")
	}

	session, err := s.sessions.Validate(ctx, req.ContactSessionID)
	if err != nil {
		return err
	}

	conv, err := s.conversations.GetByThreadID(ctx, req.ThreadID)
	if err != nil {
		if apierror.IsCode(err, apierror.CodeNotFound) {
			return apierror.Unauthorized("Conversation not found")
		}
		return err
	}
	if conv.ContactSessionID != session.ID {
		return apierror.Unauthorized("Access to this conversation is forbidden")
	}
	if conv.Status == model.StatusResolved {
		return apierror.BadRequest("Conversation resolved")
	}

	if err := s.gate(ctx, conv.OrganizationID); err != nil {
		return err
	}

	if conv.Status == model.StatusUnresolved {
		if err := s.agent.Generate(ctx, conv, prompt); err != nil {
			metrics.AgentGenerations.WithLabelValues("error").Inc()
			return fmt.Errorf("agent generation failed: %w", err)
		}
		metrics.AgentGenerations.WithLabelValues("success").Inc()
		return nil
	}

	msg := &thread.Message{
		ThreadID:  conv.ThreadID,
		Role:      string(model.RoleUser),
		Content:   prompt,
		CreatedAt: time.Now(),
	}
	if err := s.threads.SaveMessage(ctx, conv.OrganizationID, msg); err != nil {
		return fmt.Errorf("failed to save user message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(conv.OrganizationID, string(model.RoleUser)).Inc()

	return nil
}

// CreateFromOperator handles a dashboard reply. Operator text is persisted
// under the assistant role: the thread has one "support" side regardless of
// whether the agent or a human wrote it.
func (s *MessageService) CreateFromOperator(ctx context.Context, organizationID string, req *model.OperatorMessageRequest) error {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return apierror.BadRequest("Prompt is required")
	}

	conv, err := s.conversations.get(ctx, req.ConversationID)
	if err != nil {
		return err
	}
	if conv.OrganizationID != organizationID {
		return apierror.Unauthorized("Access to this conversation is forbidden")
	}
	if conv.Status == model.StatusResolved {
		return apierror.BadRequest("Conversation resolved")
	}

	if err := s.gate(ctx, organizationID); err != nil {
		return err
	}

	msg := &thread.Message{
		ThreadID:  conv.ThreadID,
		Role:      string(model.RoleAssistant),
		Content:   prompt,
		CreatedAt: time.Now(),
	}
	if err := s.threads.SaveMessage(ctx, conv.OrganizationID, msg); err != nil {
		return fmt.Errorf("failed to save operator message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(conv.OrganizationID, string(model.RoleAssistant)).Inc()

	return nil
}

// ListForContact returns a page of thread messages for the end-user path.
func (s *MessageService) ListForContact(ctx context.Context, threadID, contactSessionID, cursor string, limit int) (*thread.Page, error) {
	session, err := s.sessions.Validate(ctx, contactSessionID)
	if err != nil {
		return nil, err
	}

	conv, err := s.conversations.GetByThreadID(ctx, threadID)
	if err != nil {
		if apierror.IsCode(err, apierror.CodeNotFound) {
			return nil, apierror.Unauthorized("Conversation not found")
		}
		return nil, err
	}
	if conv.ContactSessionID != session.ID {
		return nil, apierror.Unauthorized("Access to this conversation is forbidden")
	}

	return s.listMessages(ctx, conv.OrganizationID, threadID, cursor, limit)
}

// ListForOperator returns a page of thread messages for the dashboard path.
func (s *MessageService) ListForOperator(ctx context.Context, organizationID, threadID, cursor string, limit int) (*thread.Page, error) {
	conv, err := s.conversations.GetByThreadID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if conv.OrganizationID != organizationID {
		return nil, apierror.Unauthorized("Access to this conversation is forbidden")
	}

	return s.listMessages(ctx, conv.OrganizationID, threadID, cursor, limit)
}

// Enhance returns an AI rewrite of free operator text. No state is mutated;
// the only authorization is the operator identity the handler established.
func (s *MessageService) Enhance(ctx context.Context, prompt string) (*model.EnhanceResponse, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apierror.BadRequest("Prompt is required")
	}
	if s.llm == nil {
		return nil, fmt.Errorf("no LLM provider configured")
	}

	start := time.Now()
	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{
		System:   enhanceInstructions,
		Messages: []llm.ChatMessage{{Role: string(model.RoleUser), Content: prompt}},
	})
	if err != nil {
		metrics.RecordLLMCall("enhance", "error", time.Since(start).Seconds(), 0, 0)
		return nil, fmt.Errorf("enhance failed: %w", err)
	}
	metrics.RecordLLMCall(resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

	return &model.EnhanceResponse{Text: resp.Content}, nil
}

func (s *MessageService) listMessages(ctx context.Context, organizationID, threadID, cursor string, limit int) (*thread.Page, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	page, err := s.threads.ListMessages(ctx, organizationID, threadID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return page, nil
}
