package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func testPlan(userID string) *model.Plan {
	return &model.Plan{
		ID:       uuid.New().String(),
		UserID:   userID,
		Query:    "fun day in Boston with museums",
		Location: "Boston, MA",
		Status:   model.PlanStatusDone,
		Result: model.PlanResult{
			Status: model.PlanStatusDone,
			Adventures: []model.Adventure{{
				Title:    "Museum crawl",
				Duration: "6 hours",
				Steps: []model.Step{
					{Time: "9:00 AM", Activity: "Explore the exhibits", Venue: "MIT Museum"},
				},
			}},
			Metadata: model.PlanMetadata{TotalAdventures: 1, TargetLocation: "Boston, MA"},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLiteStore_SaveAndGetPlan(t *testing.T) {
	s := newTestSQLite(t)
	plan := testPlan("user-1")

	require.NoError(t, s.SavePlan(context.Background(), plan))

	got, err := s.GetPlan(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.ID)
	assert.Equal(t, plan.Query, got.Query)
	assert.Equal(t, model.PlanStatusDone, got.Status)
	require.Len(t, got.Result.Adventures, 1)
	assert.Equal(t, "Museum crawl", got.Result.Adventures[0].Title)
	assert.Equal(t, "MIT Museum", got.Result.Adventures[0].Steps[0].Venue)
}

func TestSQLiteStore_GetPlan_NotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetPlan(context.Background(), "missing-plan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan not found")
}

func TestSQLiteStore_SavePlan_Upsert(t *testing.T) {
	s := newTestSQLite(t)
	plan := testPlan("user-1")

	require.NoError(t, s.SavePlan(context.Background(), plan))

	plan.Status = model.PlanStatusFailed
	plan.Result.Status = model.PlanStatusFailed
	require.NoError(t, s.SavePlan(context.Background(), plan))

	got, err := s.GetPlan(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanStatusFailed, got.Status)

	plans, err := s.ListPlans(context.Background(), PlanFilter{})
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestSQLiteStore_ListPlans_Filters(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p := testPlan("user-a")
		p.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SavePlan(ctx, p))
	}
	other := testPlan("user-b")
	other.Status = model.PlanStatusFailed
	require.NoError(t, s.SavePlan(ctx, other))

	byUser, err := s.ListPlans(ctx, PlanFilter{UserID: "user-a"})
	require.NoError(t, err)
	assert.Len(t, byUser, 3)

	byStatus, err := s.ListPlans(ctx, PlanFilter{Status: model.PlanStatusFailed})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "user-b", byStatus[0].UserID)

	limited, err := s.ListPlans(ctx, PlanFilter{UserID: "user-a", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	// Newest first.
	all, err := s.ListPlans(ctx, PlanFilter{UserID: "user-a"})
	require.NoError(t, err)
	assert.True(t, all[0].CreatedAt.After(all[2].CreatedAt))
}
