package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config carries pool tuning for the Postgres record store.
type Config struct {
	MaxConns       int32 `split_words:"true" default:"4"`
	ConnectTimeout int   `split_words:"true" default:"5"`
}

// New opens a pool for url and pings it within ConnectTimeout seconds.
func (c *Config) New(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	if c.MaxConns > 0 {
		poolCfg.MaxConns = c.MaxConns
	}
	timeout := time.Duration(c.ConnectTimeout) * time.Second
	if timeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = timeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	pingCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
