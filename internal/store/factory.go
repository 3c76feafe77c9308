package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	pkgpostgres "github.com/Chative-core-poc-v1/userdesk/pkg/postgres"
	pkgredis "github.com/Chative-core-poc-v1/userdesk/pkg/redis"
)

// Options groups backend tuning consumed by NewUserRepository.
type Options struct {
	Redis    pkgredis.Config
	Postgres pkgpostgres.Config
}

// NewUserRepository selects a backend from the URL scheme and connects to it.
// Connection failures are returned; the caller treats them as fatal.
func NewUserRepository(ctx context.Context, url string, opts Options) (model.UserRepository, error) {
	scheme, _, _ := strings.Cut(strings.TrimSpace(url), "://")
	switch strings.ToLower(scheme) {
	case "redis", "rediss":
		rdb, err := opts.Redis.New(url)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisUserRepository(rdb), nil
	case "postgres", "postgresql":
		pool, err := opts.Postgres.New(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo, err := NewPostgresUserRepository(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil
	case "memory":
		return NewMemoryUserRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported store url scheme %q", scheme)
	}
}

// repositorySource adapts a repository to the index source contract.
type repositorySource struct {
	repo model.UserRepository
}

// AsSource lists every record of repo as an index source.
func AsSource(repo model.UserRepository) model.UserSource {
	return repositorySource{repo: repo}
}

func (s repositorySource) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.GetUsers(ctx, nil)
}
