package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache is a read-through JSON cache over redis. A nil *Cache is a no-op so
// the service keeps working when redis is unavailable.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Client: client, TTL: ttl}
}

// RegistrationKey is the cache key for a single registration detail.
func RegistrationKey(registrationID string) string {
	return "registration:" + registrationID
}

// EventRegistrationsKey covers aggregate reads for an event (ticket sums,
// analytics). Invalidated on any registration mutation for that event.
func EventRegistrationsKey(eventID string) string {
	return "event-registrations:" + eventID
}

// RegistrationInvalidationKeys lists every key a registration mutation must
// drop. Centralized here so repositories never concatenate key strings ad hoc.
func RegistrationInvalidationKeys(registrationID, eventID string) []string {
	return []string{
		RegistrationKey(registrationID),
		EventRegistrationsKey(eventID),
	}
}

// GetJSON loads key into dest. Returns false on a miss or when the cache is
// disabled; unmarshal failures are treated as misses.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil || c.Client == nil {
		return false, nil
	}

	raw, err := c.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON stores value under key with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) error {
	if c == nil || c.Client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	return c.Client.Set(ctx, key, data, c.TTL).Err()
}

// Invalidate drops the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.Client == nil || len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}
