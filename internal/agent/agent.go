// Package agent runs AI response generation for support conversations and
// exposes the two side-effecting tools the model may call mid-generation.
package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/giadat1599/echo-support-api/internal/llm"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/internal/thread"
	"github.com/giadat1599/echo-support-api/pkg/logger"
	"github.com/giadat1599/echo-support-api/pkg/metrics"
)

const (
	// ToolResolveConversation marks the conversation resolved when the user
	// signals the issue is finished.
	ToolResolveConversation = "resolveConversationTool"

	// ToolEscalateConversation hands the conversation to a human operator
	// when the user is frustrated or asks for one.
	ToolEscalateConversation = "escalateConversationTool"
)

// maxToolRounds bounds the generate/tool loop; the final round runs without
// tools so the model has to produce text.
const maxToolRounds = 3

// historyLimit is how much thread context a generation sees.
const historyLimit = 50

// ConversationUpdater applies a status transition to a conversation. The
// implementation owns the tenant binding check.
type ConversationUpdater interface {
	SetStatus(ctx context.Context, organizationID, conversationID string, status model.ConversationStatus) error
}

// Config is the read-only agent configuration, constructed once at startup
// and shared by every generation.
type Config struct {
	Name         string
	Model        string
	Instructions string
}

// DefaultConfig returns the support agent configuration.
func DefaultConfig() Config {
	return Config{
		Name:  "Support Agent",
		Model: "gpt-4o-mini",
		Instructions: `You are a customer support agent.
Use "resolveConversationTool" tool when user expresses finalization of the conversation.
Use "escalateConversationTool" tool when user expresses frustration, or requests a human explicitly.`,
	}
}

// Agent generates assistant replies on conversation threads.
type Agent struct {
	cfg           Config
	llm           llm.Client
	threads       thread.Store
	conversations ConversationUpdater
	logger        *logger.Logger
}

// New creates an agent.
func New(cfg Config, llmClient llm.Client, threads thread.Store, conversations ConversationUpdater, log *logger.Logger) *Agent {
	return &Agent{
		cfg:           cfg,
		llm:           llmClient,
		threads:       threads,
		conversations: conversations,
		logger:        log,
	}
}

// Generate appends the user prompt to the conversation's thread, runs the
// model with the escalate/resolve tools bound to that conversation, applies
// any tool calls, and appends the final assistant text.
//
// Tool side effects commit immediately and independently of the generation
// result: if the model transitions the conversation and the call then fails,
// the transition stands. This is an at-least-once tool-effect guarantee, not
// exactly-once.
func (a *Agent) Generate(ctx context.Context, conv *model.Conversation, prompt string) error {
	if a.llm == nil {
		return fmt.Errorf("no LLM provider configured")
	}

	userMsg := &thread.Message{
		ThreadID:  conv.ThreadID,
		Role:      string(model.RoleUser),
		Content:   prompt,
		CreatedAt: time.Now(),
	}
	if err := a.threads.SaveMessage(ctx, conv.OrganizationID, userMsg); err != nil {
		return fmt.Errorf("failed to save user message: %w", err)
	}

	working, err := a.history(ctx, conv)
	if err != nil {
		return err
	}

	for round := 0; round <= maxToolRounds; round++ {
		req := &llm.CompletionRequest{
			Model:    a.cfg.Model,
			System:   a.cfg.Instructions,
			Messages: working,
		}
		if round < maxToolRounds {
			req.Tools = toolDefinitions()
		}

		resp, err := a.llm.Complete(ctx, req)
		if err != nil {
			return fmt.Errorf("generation failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			return a.saveReply(ctx, conv, resp.Content)
		}

		working = append(working, llm.ChatMessage{
			Role:      string(model.RoleAssistant),
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result := a.invokeTool(ctx, conv, call)
			working = append(working, llm.ChatMessage{
				Role:       string(model.RoleTool),
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	// Unreachable: the last round runs without tools.
	return fmt.Errorf("generation exceeded tool round limit")
}

// invokeTool applies one tool call to the conversation the generation was
// bound to. The conversation identity always comes from the binding, never
// from model output. A failed transition is reported back to the model as the
// tool result; it does not abort the generation.
func (a *Agent) invokeTool(ctx context.Context, conv *model.Conversation, call llm.ToolCall) string {
	var (
		status model.ConversationStatus
		result string
	)

	switch call.Name {
	case ToolResolveConversation:
		status, result = model.StatusResolved, "Conversation resolved."
	case ToolEscalateConversation:
		status, result = model.StatusEscalated, "Conversation escalated to a human operator."
	default:
		a.logger.Warn("agent requested unknown tool", zap.String("tool", call.Name))
		return "Unknown tool."
	}

	if err := a.conversations.SetStatus(ctx, conv.OrganizationID, conv.ID, status); err != nil {
		a.logger.Error("tool status transition failed",
			zap.String("tool", call.Name),
			zap.String("conversation_id", conv.ID),
			zap.Error(err),
		)
		return "Failed to update the conversation status."
	}

	metrics.AgentToolCalls.WithLabelValues(call.Name).Inc()
	return result
}

// history loads the thread tail as LLM messages. Only user and assistant
// turns feed the model.
func (a *Agent) history(ctx context.Context, conv *model.Conversation) ([]llm.ChatMessage, error) {
	page, err := a.threads.ListMessages(ctx, conv.OrganizationID, conv.ThreadID, "", historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread history: %w", err)
	}

	out := make([]llm.ChatMessage, 0, len(page.Items))
	for _, msg := range page.Items {
		if msg.Role != string(model.RoleUser) && msg.Role != string(model.RoleAssistant) {
			continue
		}
		out = append(out, llm.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	return out, nil
}

func (a *Agent) saveReply(ctx context.Context, conv *model.Conversation, content string) error {
	if content == "" {
		return nil
	}
	reply := &thread.Message{
		ThreadID:  conv.ThreadID,
		Role:      string(model.RoleAssistant),
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := a.threads.SaveMessage(ctx, conv.OrganizationID, reply); err != nil {
		return fmt.Errorf("failed to save assistant reply: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(conv.OrganizationID, string(model.RoleAssistant)).Inc()
	return nil
}

func toolDefinitions() []llm.ToolDefinition {
	empty := map[string]any{"type": "object", "properties": map[string]any{}}
	return []llm.ToolDefinition{
		{
			Name:        ToolResolveConversation,
			Description: "Mark the current conversation as resolved when the user indicates the issue is finished.",
			Parameters:  empty,
		},
		{
			Name:        ToolEscalateConversation,
			Description: "Escalate the current conversation to a human operator when the user is frustrated or explicitly asks for a human.",
			Parameters:  empty,
		},
	}
}
