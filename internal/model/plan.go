package model

import "time"

// PlanStatus is the terminal status of one workflow execution.
type PlanStatus string

const (
	PlanStatusRunning       PlanStatus = "running"
	PlanStatusClarification PlanStatus = "needs-clarification"
	PlanStatusDone          PlanStatus = "done"
	PlanStatusFailed        PlanStatus = "failed"
)

// Request is the input to one planning workflow execution.
type Request struct {
	Query       string `json:"query"`
	UserAddress string `json:"user_address,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	Mode        string `json:"mode,omitempty"`
}

// CacheStats reports research-cache effectiveness for one run's metadata.
type CacheStats struct {
	Size      int    `json:"size"`
	Hits      int    `json:"hits"`
	Misses    int    `json:"misses"`
	HitRate   string `json:"hit_rate"`
	TimeSaved string `json:"time_saved_estimate"`
}

// ResearchStats aggregates the concurrent research stage's outcome.
type ResearchStats struct {
	TotalVenues   int           `json:"total_venues"`
	Successful    int           `json:"successful_research"`
	TotalInsights int           `json:"total_insights"`
	AvgConfidence float64       `json:"avg_confidence"`
	Elapsed       time.Duration `json:"-"`
	ElapsedMS     int64         `json:"elapsed_ms"`
	CacheHits     int           `json:"cache_hits"`
	CacheHitRate  string        `json:"cache_hit_rate"`
}

// PlanMetadata is the observability payload returned alongside adventures.
type PlanMetadata struct {
	PlanID          string           `json:"plan_id"`
	TargetLocation  string           `json:"target_location,omitempty"`
	TotalAdventures int              `json:"total_adventures"`
	TotalMS         int64            `json:"total_ms"`
	StageTimings    map[string]int64 `json:"stage_timings_ms"`
	Research        *ResearchStats   `json:"research_stats,omitempty"`
	Cache           *CacheStats      `json:"cache_stats,omitempty"`
	Personalized    bool             `json:"personalization_applied,omitempty"`
}

// PlanResult is the outcome of one workflow execution: either adventures with
// metadata, or a clarification redirect.
type PlanResult struct {
	Status        PlanStatus     `json:"status"`
	Adventures    []Adventure    `json:"adventures"`
	Metadata      PlanMetadata   `json:"metadata"`
	Clarification *Clarification `json:"clarification,omitempty"`
}

// Plan is a persisted record of one completed workflow execution.
type Plan struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id,omitempty"`
	Query     string     `json:"query"`
	Location  string     `json:"location,omitempty"`
	Status    PlanStatus `json:"status"`
	Result    PlanResult `json:"result"`
	CreatedAt time.Time  `json:"created_at"`
}
