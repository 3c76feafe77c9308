package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

// Config carries the connection tuning for the Redis record store. The URL
// itself comes from STORE_URL so one variable selects backend and address.
type Config struct {
	ReadTimeout  int `split_words:"true" default:"3"`
	WriteTimeout int `split_words:"true" default:"3"`
	DialTimeout  int `split_words:"true" default:"5"`
}

// New parses url, applies timeouts and pings the server. DialTimeout bounds
// connection establishment at startup; zero values keep the go-redis defaults.
func (r *Config) New(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	if r.ReadTimeout > 0 {
		opts.ReadTimeout = time.Duration(r.ReadTimeout) * time.Second
	}
	if r.WriteTimeout > 0 {
		opts.WriteTimeout = time.Duration(r.WriteTimeout) * time.Second
	}
	pingTimeout := defaultDialTimeout
	if r.DialTimeout > 0 {
		opts.DialTimeout = time.Duration(r.DialTimeout) * time.Second
		pingTimeout = opts.DialTimeout
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
