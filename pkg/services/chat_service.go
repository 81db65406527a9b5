package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/wercia/zeeland-agents/pkg/domain"
	"github.com/wercia/zeeland-agents/pkg/logger"
	"github.com/wercia/zeeland-agents/pkg/markdown"
	"github.com/wercia/zeeland-agents/pkg/stream"
)

type BackendClient interface {
	Analyze(ctx context.Context, req domain.AnalyzeRequest) (<-chan domain.StreamChunk, error)
	Summarize(ctx context.Context, req domain.SummarizeRequest) (string, error)
}

const (
	selectExpertNotice = "Selecteer alstublieft ten minste één expert om uw vraag te beantwoorden."
	summaryErrorText   = "Sorry, er is iets misgegaan bij het genereren van de samenvatting."

	overloadedText  = "De dienst is momenteel overbelast. Probeer het over een paar minuten opnieuw."
	badAPIKeyText   = "De API-sleutel is niet correct geconfigureerd."
	unreachableText = "Kan de backend server niet bereiken. Controleer uw netwerkverbinding en of de server online is."
)

var userContentReplacer = strings.NewReplacer("<", "&lt;", ">", "&gt;", "\n", "<br />")

// chatService executes one logical operation at a time per scenario: "send a
// question" or "summarize". It mediates between user input, the backend
// client, the stream assembler, and the scenario store. Every failure path
// ends with a terminal, readable chat message in place of the placeholder.
type chatService struct {
	scenarios *scenarioService
	backend   BackendClient
	analytics AnalyticsLogger

	mu       sync.Mutex
	inFlight map[string]bool // scenario id -> send/summarize running
}

func NewChatService(scenarios *scenarioService, backend BackendClient, analytics AnalyticsLogger) *chatService {
	return &chatService{
		scenarios: scenarios,
		backend:   backend,
		analytics: analytics,
		inFlight:  make(map[string]bool),
	}
}

// Busy reports whether a send or summarize is in flight for the scenario.
func (c *chatService) Busy(scenarioID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.inFlight[scenarioID]
}

func (c *chatService) acquire(scenarioID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight[scenarioID] {
		return false
	}
	c.inFlight[scenarioID] = true
	return true
}

func (c *chatService) release(scenarioID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inFlight, scenarioID)
}

// Send runs one question/answer round against the current scenario. The
// scenario id is captured up front: all later updates address it directly,
// so switching scenarios mid-flight never cross-contaminates.
func (c *chatService) Send(ctx context.Context, question string, responseMode domain.ResponseMode, image *domain.ImageData) {
	if strings.TrimSpace(question) == "" && image == nil {
		return
	}
	current, ok := c.scenarios.Current()
	if !ok {
		return
	}
	scenarioID := current.ID

	if !c.acquire(scenarioID) {
		return
	}
	defer c.release(scenarioID)

	c.analytics.LogEvent("prompt_sent", map[string]any{
		"scenarioId":     scenarioID,
		"prompt":         question,
		"responseMode":   responseMode,
		"activeAgentIds": current.SelectedAgentIDs,
		"imageAttached":  image != nil,
	})

	userMessage := domain.ChatMessage{
		ID:         domain.NewMessageID(),
		Role:       domain.MessageRoleUser,
		Content:    userContentReplacer.Replace(question),
		RawContent: question,
	}
	if image != nil {
		userMessage.ImageURL = image.LocalRef
	}

	if len(current.SelectedAgentIDs) == 0 {
		notice := domain.ChatMessage{
			ID:         userMessage.ID + "_ai",
			Role:       domain.MessageRoleAI,
			Content:    selectExpertNotice,
			RawContent: selectExpertNotice,
		}
		c.scenarios.UpdateByID(ctx, scenarioID, func(sc *domain.Scenario) {
			sc.Chat = append(sc.Chat, userMessage, notice)
		})
		return
	}

	placeholderID := userMessage.ID + "_ai"
	placeholder := domain.ChatMessage{
		ID:      placeholderID,
		Role:    domain.MessageRoleAI,
		Content: domain.TypingPlaceholder,
	}

	// User message and placeholder land in one atomic update.
	c.scenarios.UpdateByID(ctx, scenarioID, func(sc *domain.Scenario) {
		sc.Chat = append(sc.Chat, userMessage, placeholder)
	})

	// The snapshot taken before the update is stale, so the outgoing history
	// includes the new user message explicitly.
	history := append(append([]domain.ChatMessage{}, current.Chat...), userMessage)

	req := domain.AnalyzeRequest{
		Question:         question,
		History:          history,
		SelectedAgentIDs: current.SelectedAgentIDs,
		ResponseMode:     responseMode,
		UserProfile:      current.UserProfile,
		Image:            image,
	}

	asm := stream.NewAssembler()
	if err := c.driveStream(ctx, scenarioID, placeholderID, req, asm); err != nil {
		slog.ErrorContext(ctx, "analyze stream failed", "scenarioID", scenarioID, logger.Err(err))
		c.failMessage(ctx, scenarioID, placeholderID, categorizeError(err))
		c.analytics.LogEvent("response_received", map[string]any{
			"scenarioId":   scenarioID,
			"responseMode": responseMode,
			"hasError":     true,
			"error":        err.Error(),
		})
		return
	}

	c.analytics.LogEvent("response_received", map[string]any{
		"scenarioId":     scenarioID,
		"responseMode":   responseMode,
		"hasError":       false,
		"responseLength": len(asm.Accumulated()),
	})
}

func (c *chatService) driveStream(ctx context.Context, scenarioID, messageID string, req domain.AnalyzeRequest, asm *stream.Assembler) error {
	ch, err := c.backend.Analyze(ctx, req)
	if err != nil {
		return err
	}

	for chunk := range ch {
		if chunk.Err != nil {
			return chunk.Err
		}
		if chunk.Text == "" {
			continue
		}
		if update := asm.Push(chunk.Text); update != nil {
			c.applyUpdate(ctx, scenarioID, messageID, update)
		}
	}

	if update := asm.Finalize(); update != nil {
		c.applyUpdate(ctx, scenarioID, messageID, update)
	}

	if !asm.ParsedOnce() && asm.Accumulated() == "" {
		// The stream ended cleanly without a single byte. Resolve the
		// placeholder instead of leaving it spinning forever.
		c.applyUpdate(ctx, scenarioID, messageID, &stream.RenderUpdate{
			Content:    markdown.ToHTML(stream.NoAnalysisNotice),
			RawContent: stream.NoAnalysisNotice,
		})
	}

	return nil
}

// applyUpdate replaces the placeholder's content in place, addressed by the
// captured scenario and message ids.
func (c *chatService) applyUpdate(ctx context.Context, scenarioID, messageID string, update *stream.RenderUpdate) {
	c.scenarios.UpdateByID(ctx, scenarioID, func(sc *domain.Scenario) {
		for i := range sc.Chat {
			if sc.Chat[i].ID == messageID {
				sc.Chat[i].Content = update.Content
				sc.Chat[i].RawContent = update.RawContent
				if update.Sources != nil {
					sc.Chat[i].Sources = update.Sources
				}
				return
			}
		}
	})
}

func (c *chatService) failMessage(ctx context.Context, scenarioID, messageID, text string) {
	c.scenarios.UpdateByID(ctx, scenarioID, func(sc *domain.Scenario) {
		for i := range sc.Chat {
			if sc.Chat[i].ID == messageID {
				sc.Chat[i].Content = `<p class="text-red-600">` + text + `</p>`
				sc.Chat[i].RawContent = text
				return
			}
		}
	})
}

// categorizeError maps known failure modes to localized user-facing text.
func categorizeError(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "429") || strings.Contains(lower, "resource_exhausted"):
		return overloadedText
	case strings.Contains(lower, "api_key"):
		return badAPIKeyText
	case isUnreachable(lower):
		return unreachableText
	default:
		return "Sorry, er is iets misgegaan: " + msg
	}
}

func isUnreachable(msg string) bool {
	return lo.SomeBy([]string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"dial tcp",
		"failed to fetch",
	}, func(s string) bool { return strings.Contains(msg, s) })
}

// Summarize appends a digest of the current conversation. It needs more than
// one message of history and no other operation in flight for the scenario.
func (c *chatService) Summarize(ctx context.Context) {
	current, ok := c.scenarios.Current()
	if !ok || len(current.Chat) <= 1 {
		return
	}
	scenarioID := current.ID

	if !c.acquire(scenarioID) {
		return
	}
	defer c.release(scenarioID)

	c.analytics.LogEvent("summary_requested", map[string]any{"scenarioId": scenarioID})

	placeholderID := domain.NewMessageID() + "_ai_summary"
	placeholder := domain.ChatMessage{
		ID:        placeholderID,
		Role:      domain.MessageRoleAI,
		Content:   domain.TypingPlaceholder,
		IsSummary: true,
	}
	c.scenarios.UpdateByID(ctx, scenarioID, func(sc *domain.Scenario) {
		sc.Chat = append(sc.Chat, placeholder)
	})

	summary, err := c.backend.Summarize(ctx, domain.SummarizeRequest{
		History:          current.Chat,
		SelectedAgentIDs: current.SelectedAgentIDs,
		UserProfile:      current.UserProfile,
	})
	if err != nil {
		slog.ErrorContext(ctx, "summarize failed", "scenarioID", scenarioID, logger.Err(err))
		c.failMessage(ctx, scenarioID, placeholderID, summaryErrorText)
		c.analytics.LogEvent("summary_received", map[string]any{"scenarioId": scenarioID, "hasError": true, "error": err.Error()})
		return
	}

	c.applyUpdate(ctx, scenarioID, placeholderID, &stream.RenderUpdate{
		Content:    markdown.ToHTML(summary),
		RawContent: summary,
	})
	c.analytics.LogEvent("summary_received", map[string]any{"scenarioId": scenarioID, "hasError": false, "summaryLength": len(summary)})
}
