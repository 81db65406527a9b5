package domain

import "encoding/json"

type UserProfile string

const (
	UserProfileAmbtenaar         UserProfile = "ambtenaar"
	UserProfileBeleidsmedewerker UserProfile = "beleidsmedewerker"
	UserProfileBestuurder        UserProfile = "bestuurder"
)

type ResponseMode string

const (
	ResponseModeVerified     ResponseMode = "verified"
	ResponseModeDirect       ResponseMode = "direct"
	ResponseModeDeepResearch ResponseMode = "deep_research"
)

// Scenario is one independent conversation thread with its own agent
// selection, settings, and history. JSON tags match the persisted blob
// layout, which predates this implementation.
type Scenario struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	Chat                 []ChatMessage   `json:"chat"`
	SelectedAgentIDs     []string        `json:"selectedAgentIds"`
	AgentWebSearchConfig map[string]bool `json:"agentWebSearchConfig"`
	UserProfile          UserProfile     `json:"userProfile"`

	// Extra carries fields written by newer schema versions, so a blob
	// round-tripped through this binary never loses them.
	Extra map[string]json.RawMessage `json:"-"`
}

// scenarioJSON strips the custom (un)marshalers so the typed fields can be
// encoded with plain struct rules.
type scenarioJSON Scenario

var scenarioFieldNames = []string{
	"id", "title", "chat", "selectedAgentIds", "agentWebSearchConfig", "userProfile",
}

func (s *Scenario) UnmarshalJSON(data []byte) error {
	var typed scenarioJSON
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, name := range scenarioFieldNames {
		delete(raw, name)
	}
	if len(raw) == 0 {
		raw = nil
	}

	typed.Extra = raw
	*s = Scenario(typed)
	return nil
}

func (s Scenario) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(scenarioJSON(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for name, value := range s.Extra {
		if _, known := merged[name]; !known {
			merged[name] = value
		}
	}

	return json.Marshal(merged)
}
