package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"vpexchange/internal/exchange/models"
	"vpexchange/pkg/platform/sentinel"
)

const (
	exchangeKeyPrefix    = "exchange:"
	transactionKeyPrefix = "exchange_tx:"

	// maxWatchAttempts bounds optimistic retries when a watched key changes.
	maxWatchAttempts = 5
)

// RedisStore persists JSON documents in Redis. Updates use WATCH/MULTI, so a
// mutator is re-run against fresh state when a concurrent writer wins.
type RedisStore struct {
	client  *redis.Client
	backoff func() backoff.BackOff
}

// NewRedis constructs a Redis-backed store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 10 * time.Millisecond
			b.MaxInterval = 200 * time.Millisecond
			return b
		},
	}
}

func exchangeKey(id string) string    { return exchangeKeyPrefix + id }
func transactionKey(id string) string { return transactionKeyPrefix + id }

func (s *RedisStore) CreateExchange(ctx context.Context, def *models.ExchangeDefinition) error {
	return s.create(ctx, exchangeKey(def.ExchangeID), def, "exchange")
}

func (s *RedisStore) FindExchange(ctx context.Context, exchangeID string) (*models.ExchangeDefinition, error) {
	var def models.ExchangeDefinition
	if err := s.get(ctx, s.client, exchangeKey(exchangeID), &def, "exchange"); err != nil {
		return nil, err
	}
	return &def, nil
}

func (s *RedisStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	exists, err := s.client.Exists(ctx, exchangeKey(tx.ExchangeID)).Result()
	if err != nil {
		return fmt.Errorf("check exchange: %w", err)
	}
	if exists == 0 {
		return sentinel.ErrNotFound
	}
	return s.create(ctx, transactionKey(tx.TransactionID), tx, "transaction")
}

func (s *RedisStore) FindTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.get(ctx, s.client, transactionKey(transactionID), &tx, "transaction"); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *RedisStore) UpdateTransaction(ctx context.Context, transactionID string, fn Mutator) (*models.Transaction, error) {
	key := transactionKey(transactionID)
	policy := backoff.WithContext(backoff.WithMaxRetries(s.backoff(), maxWatchAttempts-1), ctx)

	tx, err := backoff.RetryWithData(func() (*models.Transaction, error) {
		var result *models.Transaction
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			var current models.Transaction
			if err := s.get(ctx, rtx, key, &current, "transaction"); err != nil {
				return err
			}
			persist, err := fn(&current)
			if err != nil {
				return err
			}
			result = &current
			if !persist {
				return nil
			}
			doc, err := json.Marshal(&current)
			if err != nil {
				return fmt.Errorf("marshal transaction: %w", err)
			}
			_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, doc, 0)
				return nil
			})
			return err
		}, key)

		switch {
		case err == nil:
			return result, nil
		case errors.Is(err, redis.TxFailedErr):
			return nil, err
		default:
			return nil, backoff.Permanent(err)
		}
	}, policy)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, fmt.Errorf("transaction %s is contended: %w", transactionID, sentinel.ErrConflict)
	}
	return tx, err
}

func (s *RedisStore) create(ctx context.Context, key string, v any, kind string) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	ok, err := s.client.SetNX(ctx, key, doc, 0).Result()
	if err != nil {
		return fmt.Errorf("create %s: %w", kind, err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) get(ctx context.Context, c stringGetter, key string, v any, kind string) error {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("find %s: %w", kind, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}
