package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS plans (
	id         TEXT PRIMARY KEY,
	user_id    TEXT,
	query      TEXT NOT NULL,
	location   TEXT,
	status     TEXT NOT NULL,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_plans_user_id ON plans(user_id);
CREATE INDEX IF NOT EXISTS idx_plans_status ON plans(status);
CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans(created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SavePlan(ctx context.Context, plan *model.Plan) error {
	resultJSON, err := json.Marshal(plan.Result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal plan result")
	}

	createdAt := plan.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plans (id, user_id, query, location, status, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status, result = excluded.result`,
		plan.ID, plan.UserID, plan.Query, plan.Location, string(plan.Status), string(resultJSON), createdAt,
	)
	return eris.Wrapf(err, "sqlite: save plan %s", plan.ID)
}

func (s *SQLiteStore) GetPlan(ctx context.Context, planID string) (*model.Plan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, query, location, status, result, created_at FROM plans WHERE id = ?`,
		planID,
	)
	return scanPlan(row)
}

func (s *SQLiteStore) ListPlans(ctx context.Context, filter PlanFilter) ([]model.Plan, error) {
	query := `SELECT id, user_id, query, location, status, result, created_at FROM plans WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list plans")
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, eris.Wrap(rows.Err(), "sqlite: list plans iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPlan(row scannable) (*model.Plan, error) {
	var p model.Plan
	var userID, location sql.NullString
	var resultJSON string

	err := row.Scan(&p.ID, &userID, &p.Query, &location, &p.Status, &resultJSON, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("plan not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan plan")
	}

	p.UserID = userID.String
	p.Location = location.String
	if err := json.Unmarshal([]byte(resultJSON), &p.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal plan result")
	}
	return &p, nil
}
