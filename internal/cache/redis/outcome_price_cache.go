package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// OutcomePriceCache implements domain.OutcomePriceCache using Redis hashes.
// Each (session, outcome) pair is stored as a hash at key
// "outcome_price:{session}:{index}" with fields "price" and "ts" (Unix
// nanosecond timestamp).
type OutcomePriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOutcomePriceCache creates an OutcomePriceCache backed by the given
// Client. ttl of 0 means entries never expire.
func NewOutcomePriceCache(c *Client, ttl time.Duration) *OutcomePriceCache {
	return &OutcomePriceCache{rdb: c.Underlying(), ttl: ttl}
}

func outcomePriceKey(sessionID string, outcomeIndex int) string {
	return fmt.Sprintf("outcome_price:%s:%d", sessionID, outcomeIndex)
}

// SetPrice stores the latest traded price for an outcome.
func (pc *OutcomePriceCache) SetPrice(ctx context.Context, sessionID string, outcomeIndex int, price float64, ts time.Time) error {
	key := outcomePriceKey(sessionID, outcomeIndex)
	fields := map[string]interface{}{
		"price": strconv.FormatFloat(price, 'f', -1, 64),
		"ts":    strconv.FormatInt(ts.UnixNano(), 10),
	}
	if err := pc.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set outcome price %s/%d: %w", sessionID, outcomeIndex, err)
	}
	if pc.ttl > 0 {
		if err := pc.rdb.Expire(ctx, key, pc.ttl).Err(); err != nil {
			return fmt.Errorf("redis: expire outcome price %s/%d: %w", sessionID, outcomeIndex, err)
		}
	}
	return nil
}

// GetPrice retrieves the latest price and timestamp for an outcome. It
// returns domain.ErrNotFound when no price has been recorded.
func (pc *OutcomePriceCache) GetPrice(ctx context.Context, sessionID string, outcomeIndex int) (float64, time.Time, error) {
	key := outcomePriceKey(sessionID, outcomeIndex)
	vals, err := pc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get outcome price %s/%d: %w", sessionID, outcomeIndex, err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, domain.ErrNotFound
	}

	priceStr, ok := vals["price"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse outcome price %s/%d: %w", sessionID, outcomeIndex, err)
	}

	tsStr, ok := vals["ts"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse outcome price ts %s/%d: %w", sessionID, outcomeIndex, err)
	}

	return price, time.Unix(0, tsNano), nil
}

// GetPrices retrieves the latest prices for multiple outcomes using a
// pipeline. Outcomes with no recorded price are silently omitted from the
// result map, which is exactly the shape the profit engine expects for its
// current-price lookup.
func (pc *OutcomePriceCache) GetPrices(ctx context.Context, sessionID string, outcomeIndexes []int) (map[int]float64, error) {
	if len(outcomeIndexes) == 0 {
		return map[int]float64{}, nil
	}

	pipe := pc.rdb.Pipeline()
	cmds := make(map[int]*redis.MapStringStringCmd, len(outcomeIndexes))
	for _, idx := range outcomeIndexes {
		cmds[idx] = pipe.HGetAll(ctx, outcomePriceKey(sessionID, idx))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get outcome prices pipeline: %w", err)
	}

	result := make(map[int]float64, len(outcomeIndexes))
	for idx, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		priceStr, ok := vals["price"]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			continue
		}
		result[idx] = price
	}

	return result, nil
}

// Compile-time interface check.
var _ domain.OutcomePriceCache = (*OutcomePriceCache)(nil)
