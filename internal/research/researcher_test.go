package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/cache"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
)

func venues(names ...string) []model.Venue {
	out := make([]model.Venue, 0, len(names))
	for _, name := range names {
		out = append(out, model.Venue{Name: name, Type: "museum"})
	}
	return out
}

func goodProfile(v model.Venue) model.ResearchedVenue {
	return model.ResearchedVenue{
		Venue:        v,
		Status:       model.ResearchStatusGood,
		Researched:   0.8,
		Text:         "open daily",
		InsightCount: 2,
	}
}

func TestResearcher_PartialFailuresDegrade(t *testing.T) {
	// Eight venues in, three providers fail: still eight profiles out, in
	// input order, with the failures downgraded rather than dropped.
	names := []string{"v0", "v1", "v2", "v3", "v4", "v5", "v6", "v7"}
	failing := map[string]bool{"v2": true, "v5": true, "v7": true}

	p := &mockProvider{}
	for _, name := range names {
		v := model.Venue{Name: name, Type: "museum"}
		if failing[name] {
			p.On("Research", mock.Anything, v, "Boston, MA").
				Return(model.ResearchedVenue{}, errors.New("provider down"))
		} else {
			p.On("Research", mock.Anything, v, "Boston, MA").Return(goodProfile(v), nil)
		}
	}

	r := New(p, cache.New(cache.Config{}), Config{})
	results, stats := r.ResearchAll(context.Background(), venues(names...), "Boston, MA")

	require.Len(t, results, 8)
	for i, name := range names {
		assert.Equal(t, name, results[i].Name, "order must match input")
		if failing[name] {
			assert.Equal(t, model.ResearchStatusFailed, results[i].Status)
			assert.Equal(t, 0.2, results[i].Researched)
			assert.NotEmpty(t, results[i].Text)
		} else {
			assert.Equal(t, model.ResearchStatusGood, results[i].Status)
		}
	}

	assert.Equal(t, 8, stats.TotalVenues)
	assert.Equal(t, 5, stats.Successful)
	assert.Equal(t, 0, stats.CacheHits)
}

func TestResearcher_WarmCacheSkipsProvider(t *testing.T) {
	p := &mockProvider{}
	vs := venues("MIT Museum", "Trident Booksellers")
	for _, v := range vs {
		p.On("Research", mock.Anything, v, "Boston, MA").Return(goodProfile(v), nil).Once()
	}

	c := cache.New(cache.Config{})
	r := New(p, c, Config{})

	_, cold := r.ResearchAll(context.Background(), vs, "Boston, MA")
	assert.Equal(t, 0, cold.CacheHits)

	// Second run must be served entirely from cache.
	results, warm := r.ResearchAll(context.Background(), vs, "Boston, MA")

	require.Len(t, results, 2)
	assert.Equal(t, 2, warm.CacheHits)
	assert.Equal(t, "100%", warm.CacheHitRate)
	p.AssertNumberOfCalls(t, "Research", 2)
}

func TestResearcher_FailedProfileNotCached(t *testing.T) {
	p := &mockProvider{}
	v := model.Venue{Name: "Flaky Venue", Type: "museum"}
	p.On("Research", mock.Anything, v, "Boston, MA").
		Return(model.ResearchedVenue{}, errors.New("timeout")).Once()
	p.On("Research", mock.Anything, v, "Boston, MA").Return(goodProfile(v), nil).Once()

	c := cache.New(cache.Config{})
	r := New(p, c, Config{})

	first, _ := r.ResearchAll(context.Background(), []model.Venue{v}, "Boston, MA")
	assert.Equal(t, model.ResearchStatusFailed, first[0].Status)

	// The failure must not poison the cache; the retry reaches the provider.
	second, _ := r.ResearchAll(context.Background(), []model.Venue{v}, "Boston, MA")
	assert.Equal(t, model.ResearchStatusGood, second[0].Status)
	p.AssertExpectations(t)
}

func TestResearcher_CapsVenueList(t *testing.T) {
	p := &mockProvider{}
	p.On("Research", mock.Anything, mock.Anything, mock.Anything).
		Return(goodProfile(model.Venue{Name: "v"}), nil)

	r := New(p, cache.New(cache.Config{}), Config{MaxVenues: 3})
	results, stats := r.ResearchAll(context.Background(), venues("a", "b", "c", "d", "e"), "Boston, MA")

	assert.Len(t, results, 3)
	assert.Equal(t, 3, stats.TotalVenues)
	p.AssertNumberOfCalls(t, "Research", 3)
}

func TestResearcher_PerVenueTimeout(t *testing.T) {
	p := &mockProvider{}
	v := model.Venue{Name: "Slow Venue", Type: "museum"}
	p.On("Research", mock.Anything, v, "Boston, MA").
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return(model.ResearchedVenue{}, context.DeadlineExceeded)

	r := New(p, cache.New(cache.Config{}), Config{PerVenueTimeout: 20 * time.Millisecond})

	start := time.Now()
	results, _ := r.ResearchAll(context.Background(), []model.Venue{v}, "Boston, MA")

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, model.ResearchStatusFailed, results[0].Status)
}

func TestAggregate_Empty(t *testing.T) {
	stats := aggregate(nil, nil, time.Millisecond)
	assert.Equal(t, 0, stats.TotalVenues)
	assert.Equal(t, "0%", stats.CacheHitRate)
}
