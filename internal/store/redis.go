package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/userdesk/internal/core/error"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

const redisEmailSet = "users:emails"

// RedisUserRepository stores each user as a JSON document under users:<email>
// and tracks the collection in the users:emails set.
type RedisUserRepository struct {
	rdb redis.UniversalClient
}

func NewRedisUserRepository(rdb redis.UniversalClient) *RedisUserRepository {
	return &RedisUserRepository{rdb: rdb}
}

func (r *RedisUserRepository) userKey(email string) string {
	return fmt.Sprintf("users:%s", email)
}

func (r *RedisUserRepository) Ping(ctx context.Context) error {
	return errx.WrapRedis(r.rdb.Ping(ctx).Err())
}

func (r *RedisUserRepository) CreateUser(ctx context.Context, user model.User) (string, error) {
	id := uuid.NewString()
	doc := user.Fields()
	doc[model.InternalIDField] = id
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal user: %w", err)
	}

	key := r.userKey(user.Email)
	ok, err := r.rdb.SetNX(ctx, key, b, 0).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to create user in redis")
		return "", errx.WrapRedis(err)
	}
	if !ok {
		return "", fmt.Errorf("create %s: %w", user.Email, errx.ErrUserExists)
	}
	if err := r.rdb.SAdd(ctx, redisEmailSet, user.Email).Err(); err != nil {
		logx.Error().Err(err).Str("key", redisEmailSet).Msg("failed to index user email")
		return "", errx.WrapRedis(err)
	}
	return id, nil
}

func (r *RedisUserRepository) GetUsers(ctx context.Context, filter map[string]any) ([]model.User, error) {
	// exact email lookups skip the collection scan
	if email, ok := filter["email"].(string); ok {
		doc, err := r.load(ctx, email)
		if err != nil || doc == nil {
			return []model.User{}, err
		}
		u := model.UserFromFields(doc)
		if !u.Matches(filter) {
			return []model.User{}, nil
		}
		return []model.User{u}, nil
	}

	emails, err := r.rdb.SMembers(ctx, redisEmailSet).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", redisEmailSet).Msg("failed to list user emails")
		return nil, errx.WrapRedis(err)
	}
	if len(emails) == 0 {
		return []model.User{}, nil
	}
	keys := make([]string, len(emails))
	for i, e := range emails {
		keys[i] = r.userKey(e)
	}
	rows, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		logx.Error().Err(err).Int("keys", len(keys)).Msg("failed to load users from redis")
		return nil, errx.WrapRedis(err)
	}

	out := make([]model.User, 0, len(rows))
	for i, row := range rows {
		s, ok := row.(string)
		if !ok {
			// set entry without a document; skip stale index members
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(s), &doc); err != nil {
			logx.Warn().Err(err).Str("key", keys[i]).Msg("skipping undecodable user document")
			continue
		}
		u := model.UserFromFields(doc)
		if u.Matches(filter) {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out, nil
}

func (r *RedisUserRepository) UpdateUser(ctx context.Context, email string, patch map[string]any) (bool, error) {
	doc, err := r.load(ctx, email)
	if err != nil || doc == nil {
		return false, err
	}
	for k, v := range withoutIdentity(patch) {
		doc[k] = v
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("marshal user: %w", err)
	}

	key := r.userKey(email)
	ok, err := r.rdb.SetXX(ctx, key, b, redis.KeepTTL).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to update user in redis")
		return false, errx.WrapRedis(err)
	}
	return ok, nil
}

func (r *RedisUserRepository) DeleteUser(ctx context.Context, email string) (bool, error) {
	key := r.userKey(email)
	n, err := r.rdb.Del(ctx, key).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete user from redis")
		return false, errx.WrapRedis(err)
	}
	if err := r.rdb.SRem(ctx, redisEmailSet, email).Err(); err != nil {
		logx.Warn().Err(err).Str("key", redisEmailSet).Msg("failed to drop email from user set")
	}
	return n > 0, nil
}

func (r *RedisUserRepository) Close() error {
	return r.rdb.Close()
}

// load returns the raw document for email, or nil when it does not exist.
func (r *RedisUserRepository) load(ctx context.Context, email string) (map[string]any, error) {
	key := r.userKey(email)
	s, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load user from redis")
		return nil, errx.WrapRedis(err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal user %s: %w", email, err)
	}
	return doc, nil
}

var _ model.UserRepository = (*RedisUserRepository)(nil)
