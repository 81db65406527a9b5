package domain

import "strings"

// Agent is a selectable expert persona. The catalog is static; prompt
// behavior lives on the backend, the client only needs ids and display data.
type Agent struct {
	ID                    string
	Name                  string
	Description           string
	Type                  string
	WebSearchConfigurable bool
	ContextDataSource     *Source
	ExampleQuestions      []string
}

const DefaultAgentID = "demografie"

var Agents = []Agent{
	{
		ID:                    "demografie",
		Name:                  "Demografie Expert",
		Description:           "Analyseert bevolkingstrends en -prognoses.",
		Type:                  "search",
		WebSearchConfigurable: true,
		ContextDataSource: &Source{
			Label: "Dataportaal Zeeland Bevolkingsprognose",
			URL:   "https://dataportaal.zeeland.nl/dataportaal/srv/dut/catalog.search#/metadata/3e3a1d47-026a-431e-b05a-b62fd01a9c15",
		},
		ExampleQuestions: []string{
			"Hoe ontwikkelt de bevolking van Zeeland zich tot 2050?",
			"Wat is de impact van vergrijzing op de Zeeuwse gemeenten?",
		},
	},
	{
		ID:          "economie",
		Name:        "Economie Expert",
		Description: "Inzicht in de Zeeuwse economie en werkgelegenheid.",
		Type:        "search",
		ExampleQuestions: []string{
			"Wat zijn de economische kansen voor de haven van Vlissingen?",
			"Wat is de impact van de energietransitie op de Zeeuwse economie?",
		},
	},
	{
		ID:          "wonen",
		Name:        "Wonen Expert",
		Description: "Expertise over de woningmarkt en leefbaarheid.",
		Type:        "search",
		ExampleQuestions: []string{
			"Hoeveel woningen moeten erbij voor starters in de komende 10 jaar?",
			"Wat is de invloed van toerisme op de woningmarkt in de kustgemeenten?",
		},
	},
	{
		ID:          "financien",
		Name:        "Financiën Expert",
		Description: "Analyseert de financiële impact op de provincie.",
		Type:        "search",
		ExampleQuestions: []string{
			"Wat is de financiële impact van vergrijzing op de provinciale begroting?",
			"Hoe beïnvloedt de economische prognose de investeringscapaciteit van Zeeland?",
		},
	},
	{
		ID:          "duurzaamheid",
		Name:        "Duurzaamheid & Energie Expert",
		Description: "Expertise op het gebied van energie en klimaat.",
		Type:        "search",
		ExampleQuestions: []string{
			"Welke rol kan waterstof spelen in de Zeeuwse energietransitie?",
			"Hoe maken we de Zeeuwse kust klimaatbestendig?",
		},
	},
}

func AgentByID(id string) (Agent, bool) {
	for _, a := range Agents {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}

// AgentDisplayName resolves an agent id to its display name, falling back
// to the capitalized id for agents missing from the catalog.
func AgentDisplayName(id string) string {
	if a, ok := AgentByID(id); ok {
		return a.Name
	}
	if id == "" {
		return id
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

// DefaultWebSearchConfig returns the static per-agent web-search defaults.
// Only configurable agents get an entry; the map is merged with persisted
// configs on load so newly added keys survive old blobs.
func DefaultWebSearchConfig() map[string]bool {
	cfg := make(map[string]bool)
	for _, a := range Agents {
		if a.WebSearchConfigurable {
			cfg[a.ID] = false
		}
	}
	return cfg
}
