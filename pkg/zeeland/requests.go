package zeeland

import "github.com/wercia/zeeland-agents/pkg/domain"

type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type imageData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type analyzeRequest struct {
	Question         string              `json:"question"`
	ChatHistory      []historyMessage    `json:"chat_history"`
	SelectedAgentIDs []string            `json:"selected_agent_ids"`
	ResponseMode     domain.ResponseMode `json:"response_mode"`
	UserProfile      domain.UserProfile  `json:"user_profile"`
	ImageData        *imageData          `json:"image_data,omitempty"`
}

type summarizeRequest struct {
	ChatHistory      []historyMessage   `json:"chat_history"`
	SelectedAgentIDs []string           `json:"selected_agent_ids"`
	UserProfile      domain.UserProfile `json:"user_profile"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
	Error   string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// formatHistory serializes chat history for the backend. System notices,
// pending placeholders, and generated summaries never leave the client.
func formatHistory(history []domain.ChatMessage) []historyMessage {
	out := make([]historyMessage, 0, len(history))
	for _, msg := range history {
		if msg.Role == domain.MessageRoleSystem || msg.Pending() || msg.IsSummary {
			continue
		}

		role := "ai"
		if msg.Role == domain.MessageRoleUser {
			role = "user"
		}

		content := msg.RawContent
		if content == "" {
			content = msg.Content
		}

		out = append(out, historyMessage{Role: role, Content: content})
	}
	return out
}
