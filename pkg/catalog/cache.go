package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KV is the minimal key-value contract the cache needs. Get must return
// ErrCacheMiss when the key is absent or expired.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ErrCacheMiss reports an absent or expired cache entry.
var ErrCacheMiss = errors.New("catalog cache miss")

// redisKV adapts a go-redis client to the KV contract.
type redisKV struct {
	client *redis.Client
}

// NewRedisKV wraps a Redis client for use as the catalog cache backend.
func NewRedisKV(client *redis.Client) KV {
	if client == nil {
		panic("catalog: redis client is required")
	}
	return &redisKV{client: client}
}

func (r *redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return val, nil
}

func (r *redisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

const (
	keyActivePlans = "catalog:plans:active"
	keyFeatures    = "catalog:features"
	keyPlanByID    = "catalog:plan:id:"
	keyPlanByName  = "catalog:plan:name:"
)

// DefaultCacheTTL bounds catalog staleness. Plans and features change only
// through rare administrative action, so a short TTL keeps reads cheap
// without risking stale entitlement decisions for long.
const DefaultCacheTTL = 30 * time.Second

// CachedStorage is a read-through cache over a Storage. Only catalog and
// registry data is cached; per-user subscription state never flows through
// this package. Cache failures degrade to direct storage reads rather than
// failing the request. Administrative writes pass through and invalidate.
type CachedStorage struct {
	next Storage
	kv   KV
	ttl  time.Duration
}

// NewCachedStorage wraps a Storage with a bounded-TTL read cache.
// A non-positive ttl falls back to DefaultCacheTTL.
func NewCachedStorage(next Storage, kv KV, ttl time.Duration) *CachedStorage {
	if next == nil {
		panic("catalog: Storage is required")
	}
	if kv == nil {
		panic("catalog: KV is required")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStorage{next: next, kv: kv, ttl: ttl}
}

func (c *CachedStorage) ListActivePlans(ctx context.Context) ([]Plan, error) {
	if raw, err := c.kv.Get(ctx, keyActivePlans); err == nil {
		var plans []Plan
		if json.Unmarshal(raw, &plans) == nil {
			return plans, nil
		}
	}
	plans, err := c.next.ListActivePlans(ctx)
	if err != nil {
		return nil, err
	}
	c.put(ctx, keyActivePlans, plans)
	return plans, nil
}

func (c *CachedStorage) ListFeatures(ctx context.Context) ([]Feature, error) {
	if raw, err := c.kv.Get(ctx, keyFeatures); err == nil {
		var features []Feature
		if json.Unmarshal(raw, &features) == nil {
			return features, nil
		}
	}
	features, err := c.next.ListFeatures(ctx)
	if err != nil {
		return nil, err
	}
	c.put(ctx, keyFeatures, features)
	return features, nil
}

func (c *CachedStorage) PlanByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	key := keyPlanByID + id.String()
	if raw, err := c.kv.Get(ctx, key); err == nil {
		var plan Plan
		if json.Unmarshal(raw, &plan) == nil {
			return &plan, nil
		}
	}
	plan, err := c.next.PlanByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, plan)
	return plan, nil
}

func (c *CachedStorage) PlanByName(ctx context.Context, name string) (*Plan, error) {
	key := keyPlanByName + name
	if raw, err := c.kv.Get(ctx, key); err == nil {
		var plan Plan
		if json.Unmarshal(raw, &plan) == nil {
			return &plan, nil
		}
	}
	plan, err := c.next.PlanByName(ctx, name)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, plan)
	return plan, nil
}

// PlanIDByPriceID is a webhook-path lookup; it stays uncached because webhook
// volume is negligible next to entitlement reads.
func (c *CachedStorage) PlanIDByPriceID(ctx context.Context, priceID string) (uuid.UUID, error) {
	return c.next.PlanIDByPriceID(ctx, priceID)
}

func (c *CachedStorage) CreateFeature(ctx context.Context, f Feature) error {
	if err := c.next.CreateFeature(ctx, f); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedStorage) UpdateFeature(ctx context.Context, key string, f Feature) error {
	if err := c.next.UpdateFeature(ctx, key, f); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedStorage) CreatePlan(ctx context.Context, p *Plan) error {
	if err := c.next.CreatePlan(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p)
	return nil
}

func (c *CachedStorage) UpdatePlan(ctx context.Context, p *Plan) error {
	if err := c.next.UpdatePlan(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p)
	return nil
}

func (c *CachedStorage) DeactivatePlan(ctx context.Context, id uuid.UUID) error {
	if err := c.next.DeactivatePlan(ctx, id); err != nil {
		return err
	}
	// Name key is unknown here; it expires within the TTL, which is the
	// documented staleness bound.
	c.kv.Del(ctx, keyActivePlans, keyPlanByID+id.String()) //nolint:errcheck
	return nil
}

func (c *CachedStorage) put(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.kv.Set(ctx, key, raw, c.ttl)
}

func (c *CachedStorage) invalidate(ctx context.Context, plans ...*Plan) {
	keys := []string{keyActivePlans, keyFeatures}
	for _, p := range plans {
		keys = append(keys, keyPlanByID+p.ID.String(), keyPlanByName+p.Name)
	}
	_ = c.kv.Del(ctx, keys...)
}
