// Package workflow runs the staged planning pipeline: resolve where, work
// out what the user wants, scout venues, research them concurrently, then
// compose and route the final adventures.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/cache"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/progress"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/route"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/store"
)

// LocationResolver finds the target location for a request.
type LocationResolver interface {
	Resolve(ctx context.Context, query, userAddress string) (model.Location, error)
}

// IntentParser extracts structured preferences from the query.
type IntentParser interface {
	Parse(ctx context.Context, query string) (model.IntentResult, error)
}

// VenueScout proposes candidate venues.
type VenueScout interface {
	Scout(ctx context.Context, location string, prefs model.Preferences) ([]model.Venue, error)
}

// Enricher researches venues concurrently.
type Enricher interface {
	ResearchAll(ctx context.Context, venues []model.Venue, location string) ([]model.ResearchedVenue, model.ResearchStats)
}

// AdventureComposer writes adventures from researched venues.
type AdventureComposer interface {
	Compose(ctx context.Context, input ComposeInput) ([]model.Adventure, error)
}

// RouteEnhancer attaches map links and routing metadata to adventures.
type RouteEnhancer interface {
	Enhance(ctx context.Context, adventures []model.Adventure, locations []model.EnhancedLocation, userAddress, city string, mode model.TravelMode) []model.Adventure
}

// Config tunes engine behavior.
type Config struct {
	// DefaultLocation is used when neither query nor profile names one.
	DefaultLocation string
	// StageTimeout bounds each collaborator call. Default: 30s.
	StageTimeout time.Duration
	// MaxAdventures caps the composed itineraries. Default: 3.
	MaxAdventures int
	// PersistResults saves finished plans in the background.
	PersistResults bool
}

func (c Config) withDefaults() Config {
	if c.DefaultLocation == "" {
		c.DefaultLocation = "Boston, MA"
	}
	if c.StageTimeout <= 0 {
		c.StageTimeout = 30 * time.Second
	}
	if c.MaxAdventures <= 0 {
		c.MaxAdventures = 3
	}
	return c
}

// Deps wires the engine's collaborators. Store may be nil; Emitter may be
// nil for silent runs.
type Deps struct {
	Location LocationResolver
	Intent   IntentParser
	Scout    VenueScout
	Enricher Enricher
	Composer AdventureComposer
	Routes   RouteEnhancer
	Store    store.Store
	Cache    *cache.Cache
	Emitter  progress.Emitter
}

// Engine executes the planning workflow for one request at a time. It is
// safe for concurrent use; all per-run state lives on the stack.
type Engine struct {
	deps Deps
	cfg  Config

	persistWG sync.WaitGroup
}

// New creates an Engine.
func New(deps Deps, cfg Config) *Engine {
	if deps.Emitter == nil {
		deps.Emitter = progress.Nop{}
	}
	return &Engine{deps: deps, cfg: cfg.withDefaults()}
}

// Run executes the full workflow. A vague request returns a clarification
// result, not an error; only unrecoverable stage failures return errors.
func (e *Engine) Run(ctx context.Context, req model.Request) (*model.PlanResult, error) {
	planID := uuid.New().String()
	log := zap.L().With(zap.String("plan_id", planID))
	log.Info("workflow: starting plan", zap.String("query", req.Query))

	start := time.Now()
	timings := make(map[string]int64)

	// The pipeline has a fixed number of stages; each event carries the
	// overall completion fraction.
	const totalStages = 8
	stageNum := 0

	trackStage := func(name string, fn func(ctx context.Context) error) error {
		stageNum++
		e.deps.Emitter.Emit(progress.Event{
			Stage:    name,
			Status:   progress.StatusStarted,
			Progress: float64(stageNum-1) / totalStages,
		})

		sctx, cancel := context.WithTimeout(ctx, e.cfg.StageTimeout)
		defer cancel()

		stageStart := time.Now()
		err := fn(sctx)
		elapsed := time.Since(stageStart)
		timings[name] = elapsed.Milliseconds()

		if err != nil {
			log.Warn("workflow: stage failed",
				zap.String("stage", name),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			e.deps.Emitter.Emit(progress.Event{
				Stage:    name,
				Status:   progress.StatusFailed,
				Message:  err.Error(),
				Progress: float64(stageNum) / totalStages,
			})
			return err
		}
		log.Info("workflow: stage complete",
			zap.String("stage", name),
			zap.Duration("elapsed", elapsed),
		)
		e.deps.Emitter.Emit(progress.Event{
			Stage:    name,
			Status:   progress.StatusCompleted,
			Progress: float64(stageNum) / totalStages,
		})
		return nil
	}

	// Location resolution falls back to the configured default rather than
	// failing the run.
	loc := model.Location{Target: e.cfg.DefaultLocation, Source: "default", Confidence: 0.3}
	_ = trackStage("resolve_location", func(ctx context.Context) error {
		resolved, err := e.deps.Location.Resolve(ctx, req.Query, req.UserAddress)
		if err != nil {
			return err
		}
		loc = resolved
		return nil
	})

	var personalization model.Personalization
	_ = trackStage("load_personalization", func(ctx context.Context) error {
		p, err := e.loadPersonalization(ctx, req.UserID)
		if err != nil {
			return err
		}
		personalization = p
		return nil
	})

	// A parse failure leaves the intent empty; the vagueness check below
	// turns that into a clarification rather than a guessed plan.
	intent := model.IntentResult{Actionable: true}
	_ = trackStage("parse_intent", func(ctx context.Context) error {
		parsed, err := e.deps.Intent.Parse(ctx, req.Query)
		if err != nil {
			return err
		}
		intent = parsed
		return nil
	})

	// An empty preference set means the request was too vague to act on,
	// whether or not the parser flagged it. Ask instead of guessing.
	if intent.Clarification == nil && intent.Preferences.Empty() {
		intent.Actionable = false
		intent.Clarification = &model.Clarification{
			Message:     "What would you like to explore?",
			Suggestions: []string{"Museums and coffee shops", "Parks and restaurants"},
		}
	}

	if !intent.Actionable && intent.Clarification != nil {
		log.Info("workflow: request needs clarification")
		result := &model.PlanResult{
			Status:        model.PlanStatusClarification,
			Clarification: intent.Clarification,
			Metadata: model.PlanMetadata{
				PlanID:       planID,
				TotalMS:      time.Since(start).Milliseconds(),
				StageTimings: timings,
			},
		}
		e.persist(req, loc, result)
		return result, nil
	}

	// Scouting is best effort. A failed scout, like an empty one, leaves
	// the venue list empty and lets the remaining stages degrade.
	var venues []model.Venue
	_ = trackStage("scout_venues", func(ctx context.Context) error {
		scouted, err := e.deps.Scout.Scout(ctx, loc.Target, intent.Preferences)
		if err != nil {
			return err
		}
		venues = scouted
		return nil
	})
	if len(venues) == 0 {
		log.Warn("workflow: no venues scouted, continuing with empty list",
			zap.String("location", loc.Target),
		)
	}

	var researched []model.ResearchedVenue
	var researchStats model.ResearchStats
	_ = trackStage("research_venues", func(ctx context.Context) error {
		researched, researchStats = e.deps.Enricher.ResearchAll(ctx, venues, loc.Target)
		return nil
	})

	var locations []model.EnhancedLocation
	_ = trackStage("summarize_research", func(ctx context.Context) error {
		locations = canonicalLocations(researched, loc.Target)
		return nil
	})

	mode := model.TravelModeWalking
	_ = trackStage("prepare_routing", func(ctx context.Context) error {
		if m := model.TravelMode(req.Mode); m == model.TravelModeTransit || m == model.TravelModeDriving {
			mode = m
		}
		return nil
	})

	var adventures []model.Adventure
	_ = trackStage("compose_adventures", func(ctx context.Context) error {
		composed, err := e.deps.Composer.Compose(ctx, ComposeInput{
			Location:      loc.Target,
			Preferences:   intent.Preferences,
			Venues:        researched,
			MaxAdventures: e.cfg.MaxAdventures,
		})
		if err != nil {
			log.Warn("workflow: composer failed, using fallback itinerary", zap.Error(err))
			composed = fallbackAdventures(researched, loc.Target)
		}
		adventures = e.deps.Routes.Enhance(ctx, composed, locations, req.UserAddress, loc.Target, mode)
		return nil
	})

	metadata := model.PlanMetadata{
		PlanID:          planID,
		TargetLocation:  loc.Target,
		TotalAdventures: len(adventures),
		TotalMS:         time.Since(start).Milliseconds(),
		StageTimings:    timings,
		Research:        &researchStats,
		Personalized:    personalization.HasHistory,
	}
	if e.deps.Cache != nil {
		stats := e.deps.Cache.Stats()
		metadata.Cache = &stats
	}

	result := &model.PlanResult{
		Status:     model.PlanStatusDone,
		Adventures: adventures,
		Metadata:   metadata,
	}
	e.persist(req, loc, result)

	log.Info("workflow: plan complete",
		zap.Int("adventures", len(adventures)),
		zap.Int64("total_ms", metadata.TotalMS),
	)
	return result, nil
}

// loadPersonalization summarizes the user's saved plans.
func (e *Engine) loadPersonalization(ctx context.Context, userID string) (model.Personalization, error) {
	if e.deps.Store == nil || userID == "" {
		return model.Personalization{}, nil
	}

	plans, err := e.deps.Store.ListPlans(ctx, store.PlanFilter{UserID: userID, Limit: 20})
	if err != nil {
		return model.Personalization{}, eris.Wrap(err, "list plans")
	}
	if len(plans) == 0 {
		return model.Personalization{}, nil
	}

	p := model.Personalization{HasHistory: true}
	locationCounts := make(map[string]int)
	for _, plan := range plans {
		p.TotalAdventures += plan.Result.Metadata.TotalAdventures
		if plan.Location != "" {
			locationCounts[plan.Location]++
		}
	}
	for location, count := range locationCounts {
		if count >= 2 {
			p.FavoriteLocations = append(p.FavoriteLocations, location)
		}
	}
	return p, nil
}

// persist saves the finished plan without blocking the response. Failures
// are logged and dropped; persistence is best effort.
func (e *Engine) persist(req model.Request, loc model.Location, result *model.PlanResult) {
	if e.deps.Store == nil || !e.cfg.PersistResults {
		return
	}

	plan := &model.Plan{
		ID:        result.Metadata.PlanID,
		UserID:    req.UserID,
		Query:     req.Query,
		Location:  loc.Target,
		Status:    result.Status,
		Result:    *result,
		CreatedAt: time.Now().UTC(),
	}

	e.persistWG.Add(1)
	go func() {
		defer e.persistWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.deps.Store.SavePlan(ctx, plan); err != nil {
			zap.L().Warn("workflow: failed to persist plan",
				zap.String("plan_id", plan.ID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until all background persistence started by Run has finished.
// Callers that close the store after a run should wait first, or the saved
// plan may be lost.
func (e *Engine) Wait() {
	e.persistWG.Wait()
}

// canonicalLocations builds the routable venue list the matcher works
// against, preferring researched address hints that would actually resolve.
func canonicalLocations(researched []model.ResearchedVenue, city string) []model.EnhancedLocation {
	locations := make([]model.EnhancedLocation, 0, len(researched))
	for _, v := range researched {
		if !v.Usable() {
			continue
		}
		address := v.AddressHint
		if !route.ValidAddress(address) {
			address = v.Name + ", " + city
		}
		locations = append(locations, model.EnhancedLocation{
			Name:    v.Name,
			Address: address,
			Type:    v.Type,
		})
	}
	return locations
}

// fallbackAdventures builds a plain itinerary when the composer is down, so
// a fully researched plan never comes back empty.
func fallbackAdventures(researched []model.ResearchedVenue, location string) []model.Adventure {
	var steps []model.Step
	var used []string
	for _, v := range researched {
		if !v.Usable() {
			continue
		}
		if len(steps) >= 4 {
			break
		}
		note := v.HoursInfo
		if note == "" {
			note = "Check current hours before visiting."
		}
		steps = append(steps, model.Step{
			Activity: fmt.Sprintf("Visit %s", v.Name),
			Venue:    v.Name,
			Note:     note,
		})
		used = append(used, v.Name)
	}
	if len(steps) == 0 {
		return nil
	}

	adventure := model.Adventure{
		Title:       fmt.Sprintf("A day out in %s", location),
		Description: fmt.Sprintf("A simple itinerary around %s built from the best-researched venues.", location),
		Steps:       steps,
		VenuesUsed:  used,
		Duration:    fmt.Sprintf("%d hours", len(steps)*2),
	}
	return []model.Adventure{adventure}
}
