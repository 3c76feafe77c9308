package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/userdesk/internal/core/error"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

// PostgresUserRepository keeps each user as a JSONB document keyed by email,
// so arbitrary update fields are stored as-is.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository wraps an open pool and ensures the schema exists.
func NewPostgresUserRepository(ctx context.Context, pool *pgxpool.Pool) (*PostgresUserRepository, error) {
	if err := initSchema(ctx, pool); err != nil {
		return nil, err
	}
	return &PostgresUserRepository{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			email TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			doc JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_users_doc ON users USING GIN (doc jsonb_path_ops);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, errx.WrapPostgres(err))
		}
	}
	return nil
}

func (s *PostgresUserRepository) Ping(ctx context.Context) error {
	return errx.WrapPostgres(s.pool.Ping(ctx))
}

func (s *PostgresUserRepository) CreateUser(ctx context.Context, user model.User) (string, error) {
	doc, err := json.Marshal(user.Fields())
	if err != nil {
		return "", fmt.Errorf("marshal user: %w", err)
	}
	id := uuid.NewString()
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO users (email, id, doc) VALUES ($1, $2, $3::jsonb) ON CONFLICT (email) DO NOTHING`,
		user.Email, id, string(doc),
	)
	if err != nil {
		logx.Error().Err(err).Str("email", user.Email).Msg("failed to insert user")
		return "", errx.WrapPostgres(err)
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("create %s: %w", user.Email, errx.ErrUserExists)
	}
	return id, nil
}

func (s *PostgresUserRepository) GetUsers(ctx context.Context, filter map[string]any) ([]model.User, error) {
	if filter == nil {
		filter = map[string]any{}
	}
	b, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT doc FROM users WHERE doc @> $1::jsonb ORDER BY email`, string(b))
	if err != nil {
		logx.Error().Err(err).RawJSON("filter", b).Msg("failed to query users")
		return nil, errx.WrapPostgres(err)
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan user row: %w", errx.WrapPostgres(err))
		}
		var u model.User
		if err := json.Unmarshal(raw, &u); err != nil {
			logx.Warn().Err(err).Msg("skipping undecodable user document")
			continue
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", errx.WrapPostgres(err))
	}
	return out, nil
}

func (s *PostgresUserRepository) UpdateUser(ctx context.Context, email string, patch map[string]any) (bool, error) {
	b, err := json.Marshal(withoutIdentity(patch))
	if err != nil {
		return false, fmt.Errorf("marshal patch: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE users SET doc = doc || $2::jsonb WHERE email = $1`, email, string(b))
	if err != nil {
		logx.Error().Err(err).Str("email", email).Msg("failed to update user")
		return false, errx.WrapPostgres(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresUserRepository) DeleteUser(ctx context.Context, email string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		logx.Error().Err(err).Str("email", email).Msg("failed to delete user")
		return false, errx.WrapPostgres(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresUserRepository) Close() error {
	s.pool.Close()
	return nil
}

var _ model.UserRepository = (*PostgresUserRepository)(nil)
