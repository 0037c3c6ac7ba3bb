package usage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "usage:"
	// retention keeps a little over a month of daily hashes.
	retention = 35 * 24 * time.Hour
)

const (
	fieldQueries   = "queries"
	fieldEstimated = "estimated_records"
	fieldReturned  = "returned_records"
	fieldTruncated = "truncated"
)

// RedisLedger stores one hash per user per UTC day.
type RedisLedger struct {
	client redis.UniversalClient
}

// NewRedisLedger creates a ledger on an existing client.
func NewRedisLedger(client redis.UniversalClient) *RedisLedger {
	return &RedisLedger{client: client}
}

func redisKey(userID string, day time.Time) string {
	return keyPrefix + userID + ":" + dayKey(day)
}

// Record increments the day's counters atomically and refreshes the expiry.
func (l *RedisLedger) Record(ctx context.Context, e Entry) error {
	key := redisKey(e.UserID, e.At)
	truncated := int64(0)
	if e.Truncated {
		truncated = 1
	}
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, key, fieldQueries, 1)
		p.HIncrBy(ctx, key, fieldEstimated, int64(e.Estimated))
		p.HIncrBy(ctx, key, fieldReturned, int64(e.Returned))
		p.HIncrBy(ctx, key, fieldTruncated, truncated)
		p.Expire(ctx, key, retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// Totals reads the day's counters. A missing day is all zeros.
func (l *RedisLedger) Totals(ctx context.Context, userID string, day time.Time) (Totals, error) {
	fields, err := l.client.HGetAll(ctx, redisKey(userID, day)).Result()
	if err != nil {
		return Totals{}, fmt.Errorf("read usage: %w", err)
	}
	var t Totals
	for name, dst := range map[string]*int64{
		fieldQueries:   &t.Queries,
		fieldEstimated: &t.EstimatedRecords,
		fieldReturned:  &t.ReturnedRecords,
		fieldTruncated: &t.Truncated,
	} {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Totals{}, fmt.Errorf("read usage: field %s: %w", name, err)
		}
		*dst = n
	}
	return t, nil
}
