package model

// Venue is an unranked place suggestion produced by the scout, prior to research.
type Venue struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	AddressHint   string  `json:"address_hint,omitempty"`
	Neighborhood  string  `json:"neighborhood,omitempty"`
	Confidence    float64 `json:"confidence"`
	WhySuggestion string  `json:"why,omitempty"`
}

// ResearchStatus describes how well a venue's research went.
type ResearchStatus string

const (
	ResearchStatusNone      ResearchStatus = "none"
	ResearchStatusPartial   ResearchStatus = "partial"
	ResearchStatusGood      ResearchStatus = "good"
	ResearchStatusExcellent ResearchStatus = "excellent"
	ResearchStatusFailed    ResearchStatus = "failed"
)

// ResearchedVenue is a Venue augmented with a research payload.
type ResearchedVenue struct {
	Venue

	Status       ResearchStatus `json:"research_status"`
	Researched   float64        `json:"research_confidence"`
	Text         string         `json:"research_text,omitempty"`
	HoursInfo    string         `json:"hours_info,omitempty"`
	Summary      string         `json:"venue_summary,omitempty"`
	VisitorTips  []string       `json:"visitor_tips,omitempty"`
	TopSourceURL string         `json:"top_source,omitempty"`
	InsightCount int            `json:"total_insights"`
}

// Usable reports whether the research payload is trustworthy enough to cache
// and to feed into adventure composition.
func (v ResearchedVenue) Usable() bool {
	return v.Status != ResearchStatusFailed && v.Status != ResearchStatusNone
}

// EnhancedLocation is a researched venue resolved to a routable address.
type EnhancedLocation struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Type    string `json:"type"`
}
