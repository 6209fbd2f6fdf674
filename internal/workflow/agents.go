package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
	"github.com/lambdabypi/miniquest-adventure-planner/pkg/anthropic"
)

// AgentConfig holds shared LLM settings for the planning agents.
type AgentConfig struct {
	Model     string
	MaxTokens int64
}

func (c AgentConfig) withDefaults() AgentConfig {
	if c.Model == "" {
		c.Model = "claude-haiku-4-5-20251001"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 2000
	}
	return c
}

func (c AgentConfig) ask(ctx context.Context, client anthropic.Client, stage, system, prompt string) (string, error) {
	resp, err := client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		System:    system,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(c.Model, stage)
	return resp.FirstText(), nil
}

// cleanJSON strips markdown fences and surrounding prose from a model reply,
// leaving the outermost JSON value.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	s = strings.TrimSpace(s)

	objStart := strings.IndexAny(s, "{[")
	if objStart < 0 {
		return s
	}
	closer := byte('}')
	if s[objStart] == '[' {
		closer = ']'
	}
	if objEnd := strings.LastIndexByte(s, closer); objEnd > objStart {
		return s[objStart : objEnd+1]
	}
	return s[objStart:]
}

// extractCityName reduces a street address to a "City, ST" form usable as a
// search location.
func extractCityName(address string) string {
	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch {
	case len(parts) >= 3:
		city := parts[len(parts)-2]
		state := strings.Fields(parts[len(parts)-1])
		if len(state) > 0 {
			return city + ", " + state[0]
		}
		return city
	case len(parts) == 2:
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(address)
	}
}

// LocationAgent resolves where the user wants to adventure.
type LocationAgent struct {
	client anthropic.Client
	cfg    AgentConfig
}

// NewLocationAgent creates a LocationAgent.
func NewLocationAgent(client anthropic.Client, cfg AgentConfig) *LocationAgent {
	return &LocationAgent{client: client, cfg: cfg.withDefaults()}
}

const locationSystem = `You extract the target location from adventure requests.
Reply with JSON only: {"location": "City, ST", "found": true|false, "confidence": 0.0-1.0}.
Set found=false when the request names no location.`

// Resolve finds the target location in the query, falling back to the city
// in the user's address when the query names none.
func (a *LocationAgent) Resolve(ctx context.Context, query, userAddress string) (model.Location, error) {
	raw, err := a.cfg.ask(ctx, a.client, "resolve_location", locationSystem, query)
	if err != nil {
		return model.Location{}, eris.Wrap(err, "workflow: resolve location")
	}

	var parsed struct {
		Location   string  `json:"location"`
		Found      bool    `json:"found"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &parsed); err != nil {
		return model.Location{}, eris.Wrap(err, "workflow: parse location reply")
	}

	if parsed.Found && parsed.Location != "" {
		return model.Location{Target: parsed.Location, Source: "user_query", Confidence: parsed.Confidence}, nil
	}
	if userAddress != "" {
		return model.Location{Target: extractCityName(userAddress), Source: "user_address", Confidence: 0.8}, nil
	}
	return model.Location{}, eris.New("workflow: no location in query or profile")
}

// IntentAgent turns a free-text request into structured preferences, or a
// clarification when the request is too vague to act on.
type IntentAgent struct {
	client anthropic.Client
	cfg    AgentConfig
}

// NewIntentAgent creates an IntentAgent.
func NewIntentAgent(client anthropic.Client, cfg AgentConfig) *IntentAgent {
	return &IntentAgent{client: client, cfg: cfg.withDefaults()}
}

const intentSystem = `You parse adventure requests into preferences.
Reply with JSON only:
{"is_actionable": true|false,
 "parsed_preferences": {"mood": "", "time_available": <minutes>, "budget": <dollars>, "preferences": [], "energy_level": "", "constraints": []},
 "clarification": {"message": "", "suggestions": []}}
time_available and budget are numbers; omit them when the request does not say.
Set is_actionable=false and fill clarification only when the request is too vague to plan anything.`

// Parse extracts preferences from the query.
func (a *IntentAgent) Parse(ctx context.Context, query string) (model.IntentResult, error) {
	raw, err := a.cfg.ask(ctx, a.client, "parse_intent", intentSystem, query)
	if err != nil {
		return model.IntentResult{}, eris.Wrap(err, "workflow: parse intent")
	}

	var result model.IntentResult
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &result); err != nil {
		return model.IntentResult{}, eris.Wrap(err, "workflow: parse intent reply")
	}
	if !result.Actionable && result.Clarification == nil {
		// Inconsistent model output; treat as actionable with what we have.
		zap.L().Warn("workflow: intent not actionable but no clarification given")
		result.Actionable = true
	}
	return result, nil
}

// ScoutAgent proposes candidate venues for a location and mood.
type ScoutAgent struct {
	client    anthropic.Client
	cfg       AgentConfig
	maxVenues int
}

// NewScoutAgent creates a ScoutAgent. maxVenues caps the candidate list.
func NewScoutAgent(client anthropic.Client, cfg AgentConfig, maxVenues int) *ScoutAgent {
	if maxVenues <= 0 {
		maxVenues = 8
	}
	return &ScoutAgent{client: client, cfg: cfg.withDefaults(), maxVenues: maxVenues}
}

const scoutSystem = `You suggest real, currently operating venues for day adventures.
Reply with a JSON array only. Each element:
{"name": "", "type": "", "address_hint": "", "neighborhood": "", "confidence": 0.0-1.0, "why_suggestion": ""}
Suggest specific named venues, never generic activities.`

// Scout asks for venue candidates matching the preferences.
func (a *ScoutAgent) Scout(ctx context.Context, location string, prefs model.Preferences) ([]model.Venue, error) {
	prompt := fmt.Sprintf("Location: %s\nMood: %s\nTime available: %d minutes\nBudget: $%.0f\nInterests: %s\nSuggest up to %d venues.",
		location, prefs.Mood, prefs.TimeAvailable, prefs.Budget, strings.Join(prefs.Preferences, ", "), a.maxVenues)

	raw, err := a.cfg.ask(ctx, a.client, "scout_venues", scoutSystem, prompt)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: scout venues")
	}

	var venues []model.Venue
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &venues); err != nil {
		return nil, eris.Wrap(err, "workflow: parse scout reply")
	}
	if len(venues) > a.maxVenues {
		venues = venues[:a.maxVenues]
	}
	return venues, nil
}

// ComposeInput carries everything the composer needs for one plan.
type ComposeInput struct {
	Location      string
	Preferences   model.Preferences
	Venues        []model.ResearchedVenue
	MaxAdventures int
}

// ComposerAgent writes the final adventures from researched venues.
type ComposerAgent struct {
	client anthropic.Client
	cfg    AgentConfig
}

// NewComposerAgent creates a ComposerAgent.
func NewComposerAgent(client anthropic.Client, cfg AgentConfig) *ComposerAgent {
	return &ComposerAgent{client: client, cfg: cfg.withDefaults()}
}

const composerSystem = `You compose day adventures from researched venues.
Reply with a JSON array only. Each element:
{"title": "", "description": "", "estimated_duration": "", "estimated_cost": "",
 "steps": [{"activity": "", "venue": "", "note": ""}]}
Each step's venue must be copied exactly from the venue list given.
Work the research notes (hours, tips) into the step notes.`

// Compose turns researched venues into adventures.
func (a *ComposerAgent) Compose(ctx context.Context, input ComposeInput) ([]model.Adventure, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Location: %s\nMood: %s\nTime: %d minutes\nCompose up to %d adventures from these venues:\n",
		input.Location, input.Preferences.Mood, input.Preferences.TimeAvailable, input.MaxAdventures)
	for _, v := range input.Venues {
		if !v.Usable() {
			continue
		}
		fmt.Fprintf(&sb, "- %s (%s)", v.Name, v.Type)
		if v.HoursInfo != "" {
			fmt.Fprintf(&sb, " hours: %s", v.HoursInfo)
		}
		if len(v.VisitorTips) > 0 {
			fmt.Fprintf(&sb, " tips: %s", strings.Join(v.VisitorTips, "; "))
		}
		sb.WriteString("\n")
	}

	raw, err := a.cfg.ask(ctx, a.client, "compose_adventures", composerSystem, sb.String())
	if err != nil {
		return nil, eris.Wrap(err, "workflow: compose adventures")
	}

	var adventures []model.Adventure
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &adventures); err != nil {
		return nil, eris.Wrap(err, "workflow: parse composer reply")
	}
	if input.MaxAdventures > 0 && len(adventures) > input.MaxAdventures {
		adventures = adventures[:input.MaxAdventures]
	}
	return adventures, nil
}
