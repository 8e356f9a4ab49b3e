package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"veenoe/internal/model"
)

// SessionCache fronts the public session-details read path. Entries
// are invalidated on every mutation, so the TTL only bounds staleness
// for sessions mutated outside this process.
type SessionCache interface {
	Set(ctx context.Context, session *model.VivaSession) error
	Get(ctx context.Context, id string) (*model.VivaSession, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    10 * time.Minute,
	}
}

func (c *sessionCache) Set(ctx context.Context, session *model.VivaSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "viva:session:"+session.ID, data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.VivaSession, error) {
	data, err := c.client.Get(ctx, "viva:session:"+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}
	var session model.VivaSession
	err = json.Unmarshal([]byte(data), &session)
	return &session, err
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, "viva:session:"+id).Err()
}
