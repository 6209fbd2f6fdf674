package research

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
	"github.com/lambdabypi/miniquest-adventure-planner/pkg/tavily"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Research(ctx context.Context, venue model.Venue, location string) (model.ResearchedVenue, error) {
	args := m.Called(ctx, venue, location)
	return args.Get(0).(model.ResearchedVenue), args.Error(1)
}

type mockTavily struct {
	mock.Mock
}

func (m *mockTavily) Search(ctx context.Context, req tavily.SearchRequest) (*tavily.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tavily.SearchResponse), args.Error(1)
}

func (m *mockTavily) Extract(ctx context.Context, req tavily.ExtractRequest) (*tavily.ExtractResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tavily.ExtractResponse), args.Error(1)
}
