package workflow

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/store"
	"github.com/lambdabypi/miniquest-adventure-planner/pkg/anthropic"
)

type mockLocationResolver struct {
	mock.Mock
}

func (m *mockLocationResolver) Resolve(ctx context.Context, query, userAddress string) (model.Location, error) {
	args := m.Called(ctx, query, userAddress)
	return args.Get(0).(model.Location), args.Error(1)
}

type mockIntentParser struct {
	mock.Mock
}

func (m *mockIntentParser) Parse(ctx context.Context, query string) (model.IntentResult, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(model.IntentResult), args.Error(1)
}

type mockVenueScout struct {
	mock.Mock
}

func (m *mockVenueScout) Scout(ctx context.Context, location string, prefs model.Preferences) ([]model.Venue, error) {
	args := m.Called(ctx, location, prefs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Venue), args.Error(1)
}

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) ResearchAll(ctx context.Context, venues []model.Venue, location string) ([]model.ResearchedVenue, model.ResearchStats) {
	args := m.Called(ctx, venues, location)
	var researched []model.ResearchedVenue
	if args.Get(0) != nil {
		researched = args.Get(0).([]model.ResearchedVenue)
	}
	return researched, args.Get(1).(model.ResearchStats)
}

type mockComposer struct {
	mock.Mock
}

func (m *mockComposer) Compose(ctx context.Context, input ComposeInput) ([]model.Adventure, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Adventure), args.Error(1)
}

type mockRouteEnhancer struct {
	mock.Mock
}

func (m *mockRouteEnhancer) Enhance(ctx context.Context, adventures []model.Adventure, locations []model.EnhancedLocation, userAddress, city string, mode model.TravelMode) []model.Adventure {
	args := m.Called(ctx, adventures, locations, userAddress, city, mode)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.Adventure)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SavePlan(ctx context.Context, plan *model.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *mockStore) GetPlan(ctx context.Context, planID string) (*model.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Plan), args.Error(1)
}

func (m *mockStore) ListPlans(ctx context.Context, filter store.PlanFilter) ([]model.Plan, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Plan), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// textResponse wraps a reply string in the response shape the agents expect.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}
