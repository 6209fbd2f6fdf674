// Package store persists completed plans so users can revisit past
// adventures and the planner can personalize future ones.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
)

// PlanFilter specifies criteria for listing plans.
type PlanFilter struct {
	UserID string           `json:"user_id,omitempty"`
	Status model.PlanStatus `json:"status,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for plans.
type Store interface {
	SavePlan(ctx context.Context, plan *model.Plan) error
	GetPlan(ctx context.Context, planID string) (*model.Plan, error)
	ListPlans(ctx context.Context, filter PlanFilter) ([]model.Plan, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
