package zeeland

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wercia/zeeland-agents/pkg/domain"
)

func TestFormatHistory(t *testing.T) {
	history := []domain.ChatMessage{
		{Role: domain.MessageRoleUser, Content: "vraag&lt;1&gt;", RawContent: "vraag<1>"},
		{Role: domain.MessageRoleAI, Content: "<h3>antwoord</h3>", RawContent: "### antwoord"},
		{Role: domain.MessageRoleSystem, Content: "systeembericht"},
		{Role: domain.MessageRoleAI, Content: domain.TypingPlaceholder},
		{Role: domain.MessageRoleAI, Content: "samenvatting", IsSummary: true},
		{Role: domain.MessageRoleAI, Content: "alleen content"},
	}

	got := formatHistory(history)

	require.Len(t, got, 3)
	assert.Equal(t, historyMessage{Role: "user", Content: "vraag<1>"}, got[0])
	assert.Equal(t, historyMessage{Role: "ai", Content: "### antwoord"}, got[1])
	assert.Equal(t, historyMessage{Role: "ai", Content: "alleen content"}, got[2])
}

func TestAnalyzeStreamsAccumulatedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze-zeeland", r.URL.Path)

		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hoe ontwikkelt de bevolking zich?", req.Question)
		assert.Equal(t, []string{"demografie"}, req.SelectedAgentIDs)
		assert.Equal(t, domain.ResponseModeVerified, req.ResponseMode)
		assert.Equal(t, domain.UserProfileAmbtenaar, req.UserProfile)

		fl := w.(http.Flusher)
		io.WriteString(w, `{"data":{"demo`)
		fl.Flush()
		time.Sleep(20 * time.Millisecond)
		io.WriteString(w, `grafie":"Hallo"}}`)
		fl.Flush()
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	ch, err := c.Analyze(context.Background(), domain.AnalyzeRequest{
		Question:         "Hoe ontwikkelt de bevolking zich?",
		SelectedAgentIDs: []string{"demografie"},
		ResponseMode:     domain.ResponseModeVerified,
		UserProfile:      domain.UserProfileAmbtenaar,
	})
	require.NoError(t, err)

	var chunks []string
	for chunk := range ch {
		require.NoError(t, chunk.Err)
		chunks = append(chunks, chunk.Text)
	}

	require.NotEmpty(t, chunks)
	for i := 1; i < len(chunks); i++ {
		assert.True(t, strings.HasPrefix(chunks[i], chunks[i-1]), "chunk %d does not extend chunk %d", i, i-1)
	}
	assert.Equal(t, `{"data":{"demografie":"Hallo"}}`, chunks[len(chunks)-1])
}

func TestAnalyzeSendsEncodedImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.ImageData)
		assert.Equal(t, "image/png", req.ImageData.MimeType)
		assert.Equal(t, "aGFsbG8=", req.ImageData.Data) // "hallo"
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	ch, err := c.Analyze(context.Background(), domain.AnalyzeRequest{
		Question: "wat staat er op deze afbeelding?",
		Image:    &domain.ImageData{MimeType: "image/png", Data: []byte("hallo")},
	})
	require.NoError(t, err)
	for range ch {
	}
}

func TestAnalyzeErrorBodies(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantInErr  string
	}{
		{"json error body", http.StatusInternalServerError, `{"error":"model ontploft"}`, "model ontploft"},
		{"raw text body", http.StatusBadGateway, "upstream weg", "upstream weg"},
		{"raw text includes status", http.StatusBadGateway, "upstream weg", "502"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL)
			require.NoError(t, err)

			_, err = c.Analyze(context.Background(), domain.AnalyzeRequest{Question: "vraag"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantInErr)
		})
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  string
	}{
		{"summary present", `{"summary":"Korte samenvatting."}`, "Korte samenvatting.", ""},
		{"backend declared error", `{"error":"geen context"}`, "", "geen context"},
		{"both fields absent", `{}`, noSummaryText, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/summarize", r.URL.Path)

				var req summarizeRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

				io.WriteString(w, tc.response)
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL)
			require.NoError(t, err)

			got, err := c.Summarize(context.Background(), domain.SummarizeRequest{
				History:     []domain.ChatMessage{{Role: domain.MessageRoleUser, Content: "vraag"}},
				UserProfile: domain.UserProfileBestuurder,
			})
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    bool
	}{
		{
			"connected",
			func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, `{"status":"connected"}`) },
			true,
		},
		{
			"other status",
			func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, `{"status":"starting"}`) },
			false,
		},
		{
			"non-ok",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
			false,
		},
		{
			"garbage body",
			func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "nee") },
			false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c, err := NewClient(srv.URL)
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.CheckStatus(context.Background()))
		})
	}
}

func TestCheckStatusTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `{"status":"connected"}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	ctx, cancelFn := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelFn()

	assert.False(t, c.CheckStatus(ctx))
}

func TestCheckStatusUnreachable(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1")
	require.NoError(t, err)
	assert.False(t, c.CheckStatus(context.Background()))
}
