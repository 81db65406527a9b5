package domain

import (
	"fmt"
	"time"
)

const (
	MessageRoleUser   = "user"
	MessageRoleAI     = "ai"
	MessageRoleSystem = "system"
)

// TypingPlaceholder marks an ai message whose response is still pending.
const TypingPlaceholder = "__TYPING__"

type Source struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type ChatMessage struct {
	ID         string   `json:"id"`
	Role       string   `json:"role"`
	Content    string   `json:"content"`
	RawContent string   `json:"rawContent,omitempty"`
	Sources    []Source `json:"sources,omitempty"`
	IsSummary  bool     `json:"isSummary,omitempty"`
	ImageURL   string   `json:"imageUrl,omitempty"`
}

func (m ChatMessage) Pending() bool {
	return m.Content == TypingPlaceholder
}

// NewMessageID derives an id from the current time so insertion order is
// preserved across messages within a scenario.
func NewMessageID() string {
	return fmt.Sprintf("msg_%d", time.Now().UnixNano())
}
