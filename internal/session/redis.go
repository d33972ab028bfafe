package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 5

// RedisStore keeps each session as a JSON value under <prefix>session:<user_id>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. prefix defaults to "hhbot:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "hhbot:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisStore) key(userID int64) string {
	return r.prefix + "session:" + strconv.FormatInt(userID, 10)
}

func (r *RedisStore) Get(ctx context.Context, userID int64) (Session, error) {
	return r.load(ctx, r.client, userID)
}

func (r *RedisStore) GetOrCreate(ctx context.Context, userID int64) (Session, error) {
	sess := New(userID)
	data, err := json.Marshal(sess)
	if err != nil {
		return Session{}, fmt.Errorf("encode session: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.key(userID), data, 0).Result()
	if err != nil {
		return Session{}, fmt.Errorf("redis setnx: %w", err)
	}
	if created {
		return sess, nil
	}
	return r.load(ctx, r.client, userID)
}

// Update applies fn under WATCH so a concurrent writer forces a retry instead of a lost update.
func (r *RedisStore) Update(ctx context.Context, userID int64, fn func(*Session) error) (Session, error) {
	key := r.key(userID)
	var result Session

	txf := func(tx *redis.Tx) error {
		sess, err := r.load(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := fn(&sess); err != nil {
			return err
		}
		sess.UserID = userID
		sess.UpdatedAt = time.Now()

		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = sess
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Session{}, err
		}
		return result, nil
	}
	return Session{}, fmt.Errorf("update session %d: too many concurrent writers", userID)
}

func (r *RedisStore) Clear(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// getter is the part of redis.Client and redis.Tx used for reads.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) load(ctx context.Context, c getter, userID int64) (Session, error) {
	data, err := c.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	sess.UserID = userID
	return sess, nil
}
