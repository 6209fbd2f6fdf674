package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, kept narrow so tests
// can substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot store operations.
var preparedStatements = map[string]string{
	"save_plan": `INSERT INTO plans (id, user_id, query, location, status, result, created_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7)
	 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, result = EXCLUDED.result`,
	"get_plan": `SELECT id, user_id, query, location, status, result, created_at FROM plans WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS plans (
	id         TEXT PRIMARY KEY,
	user_id    TEXT,
	query      TEXT NOT NULL,
	location   TEXT,
	status     TEXT NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_plans_user_id ON plans(user_id);
CREATE INDEX IF NOT EXISTS idx_plans_status ON plans(status);
CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SavePlan(ctx context.Context, plan *model.Plan) error {
	resultJSON, err := json.Marshal(plan.Result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal plan result")
	}

	createdAt := plan.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO plans (id, user_id, query, location, status, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, result = EXCLUDED.result`,
		plan.ID, plan.UserID, plan.Query, plan.Location, string(plan.Status), resultJSON, createdAt,
	)
	return eris.Wrapf(err, "postgres: save plan %s", plan.ID)
}

func (s *PostgresStore) GetPlan(ctx context.Context, planID string) (*model.Plan, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, query, location, status, result, created_at FROM plans WHERE id = $1`,
		planID,
	)

	p, err := scanPgPlan(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get plan %s", planID)
	}
	return p, nil
}

func (s *PostgresStore) ListPlans(ctx context.Context, filter PlanFilter) ([]model.Plan, error) {
	query := `SELECT id, user_id, query, location, status, result, created_at FROM plans WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += ` AND user_id = $1`
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += ` LIMIT $` + itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list plans")
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		p, err := scanPgPlan(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan plan")
		}
		plans = append(plans, *p)
	}
	return plans, eris.Wrap(rows.Err(), "postgres: list plans iterate")
}

func scanPgPlan(row interface{ Scan(dest ...any) error }) (*model.Plan, error) {
	var p model.Plan
	var userID, location *string
	var resultJSON []byte

	err := row.Scan(&p.ID, &userID, &p.Query, &location, &p.Status, &resultJSON, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("plan not found")
	}
	if err != nil {
		return nil, err
	}

	if userID != nil {
		p.UserID = *userID
	}
	if location != nil {
		p.Location = *location
	}
	if err := json.Unmarshal(resultJSON, &p.Result); err != nil {
		return nil, eris.Wrap(err, "unmarshal plan result")
	}
	return &p, nil
}

func itoa(n int) string {
	// Positional args stay single digit for this query shape.
	return string(rune('0' + n))
}
