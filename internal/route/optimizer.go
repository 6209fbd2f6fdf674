package route

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
	"github.com/lambdabypi/miniquest-adventure-planner/pkg/maps"
)

// OptimizedRoute is an optimizer's answer: a new waypoint order plus route
// totals. Order maps optimized position to requested waypoint index.
type OptimizedRoute struct {
	Order           []int
	DistanceMeters  int
	DurationSeconds int
}

// Optimizer reorders intermediate waypoints for a shorter route. The
// destination is fixed and never part of the reordering.
type Optimizer interface {
	Optimize(ctx context.Context, origin, destination string, waypoints []string, mode model.TravelMode) (*OptimizedRoute, error)
}

// MapsOptimizer backs Optimizer with the directions provider.
type MapsOptimizer struct {
	client maps.Client
}

// NewMapsOptimizer creates an optimizer over a directions client.
func NewMapsOptimizer(client maps.Client) *MapsOptimizer {
	return &MapsOptimizer{client: client}
}

func (o *MapsOptimizer) Optimize(ctx context.Context, origin, destination string, waypoints []string, mode model.TravelMode) (*OptimizedRoute, error) {
	resp, err := o.client.Directions(ctx, maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Waypoints:   waypoints,
		Mode:        string(mode),
		Optimize:    true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "route: optimize")
	}

	if !isPermutation(resp.WaypointOrder, len(waypoints)) {
		return nil, eris.Errorf("route: provider returned invalid waypoint order %v for %d waypoints",
			resp.WaypointOrder, len(waypoints))
	}

	out := &OptimizedRoute{Order: resp.WaypointOrder}
	for _, leg := range resp.Legs {
		out.DistanceMeters += leg.DistanceMeters
		out.DurationSeconds += leg.DurationSeconds
	}
	return out, nil
}

// isPermutation checks that order is a bijection over [0, n). Anything else
// would drop or duplicate a stop.
func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}
