package model

// Preferences captures what the user wants out of an adventure, as parsed
// from their free-text request.
type Preferences struct {
	Mood          string   `json:"mood,omitempty"`
	TimeAvailable int      `json:"time_available,omitempty"` // minutes
	Budget        float64  `json:"budget,omitempty"`
	Preferences   []string `json:"preferences"`
	EnergyLevel   string   `json:"energy_level,omitempty"`
	Constraints   []string `json:"constraints,omitempty"`
}

// Empty reports whether no usable venue preferences were parsed.
func (p Preferences) Empty() bool {
	return len(p.Preferences) == 0
}

// Clarification is the terminal redirect returned when a request is too vague
// to act on. It is a successful response, not an error.
type Clarification struct {
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// IntentResult is the tagged output of intent parsing: exactly one of
// Preferences or Clarification is meaningful.
type IntentResult struct {
	Actionable    bool           `json:"is_actionable"`
	Preferences   Preferences    `json:"parsed_preferences"`
	Clarification *Clarification `json:"clarification,omitempty"`
}

// Location is the result of resolving where the user wants to explore.
type Location struct {
	Target     string  `json:"target_location"`
	Source     string  `json:"source"` // "user_query", "user_address", "default"
	Confidence float64 `json:"confidence"`
}

// Personalization summarizes a user's saved-adventure history, when available.
type Personalization struct {
	HasHistory        bool     `json:"has_history"`
	TotalAdventures   int      `json:"total_adventures"`
	AverageRating     float64  `json:"average_rating"`
	FavoriteLocations []string `json:"favorite_locations,omitempty"`
}
