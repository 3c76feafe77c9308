package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapRedis(t *testing.T) {
	assert.Nil(t, WrapRedis(nil))

	err := WrapRedis(redis.Nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, redis.Nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	err = WrapRedis(errors.New("connection refused"))
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Contains(t, err.Error(), RedisErrorMessage)
}

func TestWrapPostgres(t *testing.T) {
	assert.Nil(t, WrapPostgres(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapPostgres(pgx.ErrNoRows)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapPostgres(errors.New("boom"))))
}

func TestAppErrorChain(t *testing.T) {
	inner := fmt.Errorf("create alice@example.com: %w", ErrUserExists)
	err := New(inner, http.StatusConflict, "conflict")

	assert.True(t, errors.Is(err, ErrUserExists))

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("outer: %w", err), &appErr))
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
}
