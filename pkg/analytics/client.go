package analytics

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/wercia/zeeland-agents/pkg/logger"
)

// client posts usage events fire-and-forget. Nothing awaits it and its
// failures never reach the user; an empty endpoint disables it entirely.
type client struct {
	endpoint string
	hc       *http.Client
}

func NewClient(endpoint string) *client {
	return &client{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *client) LogEvent(name string, payload map[string]any) {
	if c.endpoint == "" {
		return
	}

	event := map[string]any{
		"eventName": name,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	for k, v := range payload {
		event[k] = v
	}

	body, err := json.Marshal(event)
	if err != nil {
		return
	}

	go func() {
		resp, err := c.hc.Post(c.endpoint, "text/plain;charset=utf-8", bytes.NewReader(body))
		if err != nil {
			slog.Debug("analytics event dropped", "event", name, logger.Err(err))
			return
		}
		resp.Body.Close()
	}()
}

// Nop discards all events; used when no endpoint is configured in tests.
type Nop struct{}

func (Nop) LogEvent(string, map[string]any) {}
