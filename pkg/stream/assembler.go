package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/wercia/zeeland-agents/pkg/domain"
	"github.com/wercia/zeeland-agents/pkg/markdown"
)

// NoAnalysisNotice is shown when the backend envelope carries no agent data.
const NoAnalysisNotice = "Geen analyse beschikbaar van de experts."

const sectionSeparator = "\n\n<hr class=\"my-6 border-slate-200\">\n\n"

// RenderUpdate is one render-ready state of the in-flight response.
type RenderUpdate struct {
	Content    string // HTML
	RawContent string
	Sources    []domain.Source
}

// Assembler turns a sequence of text increments into render updates by
// speculatively re-parsing the accumulated text as the backend's structured
// envelope on every growth. Chunk boundaries carry no meaning, so a failed
// parse mid-stream is the expected state, not an error.
type Assembler struct {
	accumulated   string
	lastParsedLen int
	parsedOnce    bool
	sources       []domain.Source
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Push feeds the next increment. Increments are normally totals (the stream
// re-sends the full payload as it grows); a non-extending fragment is treated
// as a delta and appended. Returns a render update when the accumulated text
// parses as a complete envelope, nil otherwise.
func (a *Assembler) Push(text string) *RenderUpdate {
	if strings.HasPrefix(text, a.accumulated) {
		a.accumulated = text
	} else {
		a.accumulated += text
	}

	// Reattempt the parse only when there is new text to parse.
	if len(a.accumulated) == a.lastParsedLen {
		return nil
	}
	a.lastParsedLen = len(a.accumulated)

	responses, sources, ok := parseEnvelope(a.accumulated)
	if !ok {
		return nil
	}

	a.parsedOnce = true
	if sources != nil {
		a.sources = sources
	}

	return &RenderUpdate{
		Content:    markdown.ToHTML(formatAgentSections(responses)),
		RawContent: a.accumulated,
		Sources:    a.sources,
	}
}

// Finalize handles the end of the stream. If no increment ever parsed as an
// envelope but text accumulated anyway, the whole payload is rendered as
// plain prose. This is the path for backends that answer with bare error text.
func (a *Assembler) Finalize() *RenderUpdate {
	if a.parsedOnce || a.accumulated == "" {
		return nil
	}
	return &RenderUpdate{
		Content:    markdown.ToHTML(a.accumulated),
		RawContent: a.accumulated,
	}
}

func (a *Assembler) ParsedOnce() bool {
	return a.parsedOnce
}

func (a *Assembler) Accumulated() string {
	return a.accumulated
}

type agentResponse struct {
	AgentID string
	Text    string
}

func parseEnvelope(raw string) ([]agentResponse, []domain.Source, bool) {
	var env struct {
		Data    json.RawMessage `json:"data"`
		Sources []domain.Source `json:"sources"`
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil || env.Data == nil {
		return nil, nil, false
	}

	responses, err := decodeOrderedData(env.Data)
	if err != nil {
		return nil, nil, false
	}

	return responses, env.Sources, true
}

// decodeOrderedData walks the data object token by token so rendered agent
// sections follow the mapping's own key order.
func decodeOrderedData(data json.RawMessage) ([]agentResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("data is not an object")
	}

	var responses []agentResponse
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", keyTok)
		}

		var text string
		if err := dec.Decode(&text); err != nil {
			return nil, err
		}

		responses = append(responses, agentResponse{AgentID: key, Text: text})
	}

	return responses, nil
}

func formatAgentSections(responses []agentResponse) string {
	if len(responses) == 0 {
		return NoAnalysisNotice
	}

	sections := lo.Map(responses, func(r agentResponse, _ int) string {
		return fmt.Sprintf("### %s\n\n%s", domain.AgentDisplayName(r.AgentID), r.Text)
	})

	return strings.Join(sections, sectionSeparator)
}
