package route

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
)

type mockOptimizer struct {
	mock.Mock
}

func (m *mockOptimizer) Optimize(ctx context.Context, origin, destination string, waypoints []string, mode model.TravelMode) (*OptimizedRoute, error) {
	args := m.Called(ctx, origin, destination, waypoints, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OptimizedRoute), args.Error(1)
}
