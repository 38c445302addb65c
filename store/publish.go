package store

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// UpdatesChannel carries board-update events between instances.
const UpdatesChannel = "board-updates"

// UpdateEvent is the payload published after every persisted mutation.
type UpdateEvent struct {
	UserID string `json:"userId"`
}

// RedisPublisher fans board-update events out over Redis pub/sub so every
// instance can refresh the streams it serves.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a publisher over the given Redis client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// BoardUpdated publishes the event. Publish failures are logged, not
// propagated: the mutation already persisted and streams recover on
// their next push.
func (p *RedisPublisher) BoardUpdated(ctx context.Context, userID string) {
	if p == nil || p.client == nil {
		return
	}
	data, err := sonic.Marshal(UpdateEvent{UserID: userID})
	if err != nil {
		return
	}
	if err := p.client.Publish(ctx, UpdatesChannel, data).Err(); err != nil {
		log.Errorf("publish board update: %v", err)
	}
}
