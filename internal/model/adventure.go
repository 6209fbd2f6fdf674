package model

// Step is a single timed activity inside an adventure itinerary.
type Step struct {
	Time     string `json:"time"`
	Activity string `json:"activity"`
	Venue    string `json:"venue,omitempty"`
	Note     string `json:"note,omitempty"`
}

// Adventure is one composed itinerary: a narrative built from researched
// venues. Step activities and VenuesUsed are untrusted free text from the
// composer and must be reconciled against canonical venues before routing.
type Adventure struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Steps       []Step   `json:"steps"`
	VenuesUsed  []string `json:"venues_used"`
	Duration    string   `json:"estimated_duration,omitempty"`
	Cost        string   `json:"estimated_cost,omitempty"`

	// Populated after route synthesis.
	MapURL      string       `json:"map_url,omitempty"`
	RoutingInfo *RoutingInfo `json:"routing_info,omitempty"`
}

// RoutingInfo summarizes how an adventure's route was built.
type RoutingInfo struct {
	Available      bool    `json:"routing_available"`
	Mode           string  `json:"recommended_mode,omitempty"`
	Method         string  `json:"optimization_method,omitempty"`
	TotalStops     int     `json:"total_stops"`
	MatchedStops   int     `json:"matched_stops"`
	RequestedStops int     `json:"requested_stops"`
	MatchedRatio   float64 `json:"matched_ratio"`
}
