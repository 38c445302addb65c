package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"crm-api/domain"
)

type backend interface {
	LoadClients(ctx context.Context, userID string) ([]domain.Client, error)
	SaveClients(ctx context.Context, userID string, clients []domain.Client) error
	FetchSettings(ctx context.Context, userID string) (domain.Settings, error)
	SaveSettings(ctx context.Context, userID string, settings domain.Settings) error
	EnqueueAlert(ctx context.Context, alert Alert) error
}

// Cache wraps a Storage instance with Redis-backed caching for read operations.
type Cache struct {
	*Storage
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Storage); ok {
		c.Storage = s
	}
	return c
}

func (c *Cache) LoadClients(ctx context.Context, userID string) ([]domain.Client, error) {
	if clients, ok := c.loadClientsFromCache(ctx, userID); ok {
		return clients, nil
	}

	clients, err := c.base.LoadClients(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.storeClients(ctx, userID, clients)
	return clients, nil
}

// SaveClients writes through to the backing storage and evicts the cached
// board so the next read observes the persisted state.
func (c *Cache) SaveClients(ctx context.Context, userID string, clients []domain.Client) error {
	if err := c.base.SaveClients(ctx, userID, clients); err != nil {
		return err
	}

	c.evict(ctx, clientsCacheKey(userID))
	return nil
}

func (c *Cache) FetchSettings(ctx context.Context, userID string) (domain.Settings, error) {
	if settings, ok := c.loadSettingsFromCache(ctx, userID); ok {
		return settings, nil
	}

	settings, err := c.base.FetchSettings(ctx, userID)
	if err != nil {
		return domain.Settings{}, err
	}

	c.storeSettings(ctx, userID, settings)
	return settings, nil
}

func (c *Cache) SaveSettings(ctx context.Context, userID string, settings domain.Settings) error {
	if err := c.base.SaveSettings(ctx, userID, settings); err != nil {
		return err
	}

	c.evict(ctx, settingsCacheKey(userID))
	return nil
}

// EnqueueAlert passes through; alerts never touch cached board state.
func (c *Cache) EnqueueAlert(ctx context.Context, alert Alert) error {
	return c.base.EnqueueAlert(ctx, alert)
}

func (c *Cache) loadClientsFromCache(ctx context.Context, userID string) ([]domain.Client, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, clientsCacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, clientsCacheKey(userID)).Err()
		}
		return nil, false
	}
	var clients []domain.Client
	if err := json.Unmarshal(data, &clients); err != nil {
		_ = c.redis.Del(ctx, clientsCacheKey(userID)).Err()
		return nil, false
	}
	return clients, true
}

func (c *Cache) loadSettingsFromCache(ctx context.Context, userID string) (domain.Settings, bool) {
	if c.redis == nil {
		return domain.Settings{}, false
	}
	data, err := c.redis.Get(ctx, settingsCacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, settingsCacheKey(userID)).Err()
		}
		return domain.Settings{}, false
	}
	var settings domain.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		_ = c.redis.Del(ctx, settingsCacheKey(userID)).Err()
		return domain.Settings{}, false
	}
	return settings, true
}

func (c *Cache) storeClients(ctx context.Context, userID string, clients []domain.Client) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(clients)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, clientsCacheKey(userID), data, c.ttl).Err()
}

func (c *Cache) storeSettings(ctx context.Context, userID string, settings domain.Settings) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, settingsCacheKey(userID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, key).Result()
}

func clientsCacheKey(userID string) string {
	return "clients:" + userID
}

func settingsCacheKey(userID string) string {
	return "settings:" + userID
}
