package zeeland

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/wercia/zeeland-agents/pkg/domain"
)

const noSummaryText = "Er kon geen samenvatting worden gegenereerd."

const streamReadBufferSize = 4096

type client struct {
	baseURL string
	hc      *http.Client // analyze stream; a retry would replay a half-consumed body
	rc      *http.Client // one-shot calls, with retries
}

func NewClient(baseURL string) (*client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is empty")
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil

	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
		rc:      rc.StandardClient(),
	}, nil
}

// Analyze issues the streamed analysis request. Each chunk on the returned
// channel carries the total accumulated text so far; the channel is closed
// when the stream ends. A chunk with Err set aborts the stream.
func (c *client) Analyze(ctx context.Context, req domain.AnalyzeRequest) (<-chan domain.StreamChunk, error) {
	payload := analyzeRequest{
		Question:         req.Question,
		ChatHistory:      formatHistory(req.History),
		SelectedAgentIDs: req.SelectedAgentIDs,
		ResponseMode:     req.ResponseMode,
		UserProfile:      req.UserProfile,
	}
	if req.Image != nil {
		payload.ImageData = &imageData{
			MimeType: req.Image.MimeType,
			Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
		}
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling analyze request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze-zeeland", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating analyze request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing analyze request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, errorFromBody(resp)
	}

	ch := make(chan domain.StreamChunk)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		var accumulated strings.Builder
		buf := make([]byte, streamReadBufferSize)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				accumulated.Write(buf[:n])
				select {
				case ch <- domain.StreamChunk{Text: accumulated.String()}:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					select {
					case ch <- domain.StreamChunk{Err: fmt.Errorf("reading analyze stream: %w", err)}:
					case <-ctx.Done():
					}
				}
				return
			}
		}
	}()

	return ch, nil
}

// Summarize requests a one-shot digest of the conversation.
func (c *client) Summarize(ctx context.Context, req domain.SummarizeRequest) (string, error) {
	payload := summarizeRequest{
		ChatHistory:      formatHistory(req.History),
		SelectedAgentIDs: req.SelectedAgentIDs,
		UserProfile:      req.UserProfile,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling summarize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/summarize", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating summarize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.rc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("executing summarize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errorFromBody(resp)
	}

	var result summarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding summarize response: %w", err)
	}

	if result.Error != "" {
		return "", fmt.Errorf("backend error: %s", result.Error)
	}
	if result.Summary == "" {
		return noSummaryText, nil
	}

	return result.Summary, nil
}

// CheckStatus probes the backend. Any failure counts as offline; the caller
// bounds the probe with a context timeout.
func (c *client) CheckStatus(ctx context.Context) bool {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return false
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false
	}

	return status.Status == "connected"
}

// errorFromBody coerces a non-OK response body, either a JSON {error} or raw
// text, into a single error.
func errorFromBody(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	var errBody struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(bodyBytes, &errBody); err == nil && errBody.Error != "" {
		return fmt.Errorf("backend error: %s", errBody.Error)
	}

	return fmt.Errorf("unexpected status code: %d, response: %s", resp.StatusCode, string(bodyBytes))
}
