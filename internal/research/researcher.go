// Package research enriches scouted venues with real-world detail: hours,
// admission, tips, and a confidence-scored summary.
package research

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/cache"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
)

// Config tunes the concurrent research fan-out.
type Config struct {
	// MaxVenues caps how many venues get researched per run. Default: 8.
	MaxVenues int
	// PerVenueTimeout bounds each venue's research. Default: 15s.
	PerVenueTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxVenues <= 0 {
		c.MaxVenues = 8
	}
	if c.PerVenueTimeout <= 0 {
		c.PerVenueTimeout = 15 * time.Second
	}
	return c
}

// Researcher fans venue research out across goroutines, with a shared cache
// in front of the provider. One venue failing never fails the batch.
type Researcher struct {
	provider Provider
	cache    *cache.Cache
	cfg      Config
}

// New creates a Researcher.
func New(provider Provider, researchCache *cache.Cache, cfg Config) *Researcher {
	return &Researcher{
		provider: provider,
		cache:    researchCache,
		cfg:      cfg.withDefaults(),
	}
}

// ResearchAll researches every venue concurrently and returns one profile per
// input venue, in input order. Venues whose research fails or times out come
// back as degraded fallback profiles rather than being dropped.
func (r *Researcher) ResearchAll(ctx context.Context, venues []model.Venue, location string) ([]model.ResearchedVenue, model.ResearchStats) {
	if len(venues) > r.cfg.MaxVenues {
		zap.L().Info("research: capping venue list",
			zap.Int("requested", len(venues)),
			zap.Int("cap", r.cfg.MaxVenues),
		)
		venues = venues[:r.cfg.MaxVenues]
	}

	start := time.Now()
	results := make([]model.ResearchedVenue, len(venues))
	cacheHits := make([]bool, len(venues))

	g, gctx := errgroup.WithContext(ctx)
	for i, venue := range venues {
		g.Go(func() error {
			results[i], cacheHits[i] = r.researchOne(gctx, venue, location)
			return nil
		})
	}
	// Workers never return errors; degraded profiles carry the failures.
	_ = g.Wait()

	stats := aggregate(results, cacheHits, time.Since(start))
	zap.L().Info("research: batch complete",
		zap.Int("venues", stats.TotalVenues),
		zap.Int("successful", stats.Successful),
		zap.Int("cache_hits", stats.CacheHits),
		zap.Duration("elapsed", stats.Elapsed),
	)
	return results, stats
}

func (r *Researcher) researchOne(ctx context.Context, venue model.Venue, location string) (model.ResearchedVenue, bool) {
	if cached, ok := r.cache.Get(venue.Name, location); ok && cached.Usable() {
		return cached, true
	}

	vctx, cancel := context.WithTimeout(ctx, r.cfg.PerVenueTimeout)
	defer cancel()

	profile, err := r.provider.Research(vctx, venue, location)
	if err != nil {
		zap.L().Warn("research: venue failed, using fallback profile",
			zap.String("venue", venue.Name),
			zap.Error(err),
		)
		return fallbackProfile(venue), false
	}

	if profile.Usable() {
		r.cache.Set(venue.Name, location, profile)
	}
	return profile, false
}

// fallbackProfile is the degraded stand-in for a venue whose research failed.
// It keeps the venue in the itinerary with honest low confidence.
func fallbackProfile(venue model.Venue) model.ResearchedVenue {
	return model.ResearchedVenue{
		Venue:      venue,
		Status:     model.ResearchStatusFailed,
		Researched: 0.2,
		Text:       fmt.Sprintf("%s is a local %s. Check current hours before visiting.", venue.Name, venue.Type),
	}
}

func aggregate(results []model.ResearchedVenue, cacheHits []bool, elapsed time.Duration) model.ResearchStats {
	stats := model.ResearchStats{
		TotalVenues: len(results),
		Elapsed:     elapsed,
		ElapsedMS:   elapsed.Milliseconds(),
	}

	var confidenceSum float64
	for i, res := range results {
		if res.Status != model.ResearchStatusFailed {
			stats.Successful++
		}
		stats.TotalInsights += res.InsightCount
		confidenceSum += res.Researched
		if cacheHits[i] {
			stats.CacheHits++
		}
	}

	if len(results) > 0 {
		stats.AvgConfidence = confidenceSum / float64(len(results))
		stats.CacheHitRate = fmt.Sprintf("%.0f%%", float64(stats.CacheHits)/float64(len(results))*100)
	} else {
		stats.CacheHitRate = "0%"
	}
	return stats
}
