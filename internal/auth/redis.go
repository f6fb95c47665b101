package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/models"
)

const (
	eventsChannel    = "shortlink:auth"
	revokedKeyPrefix = "shortlink:revoked:"
)

// RedisNotifier shares auth events between instances over Redis pub/sub.
// Events published here reach local subscribers through the subscription,
// so each event is delivered once per instance.
type RedisNotifier struct {
	client *redis.Client
	pubsub *redis.PubSub
	local  *LocalNotifier
	logger *zap.Logger
	done   chan struct{}
}

func NewRedisNotifier(ctx context.Context, client *redis.Client, logger *zap.Logger) (*RedisNotifier, error) {
	pubsub := client.Subscribe(ctx, eventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", eventsChannel, err)
	}

	n := &RedisNotifier{
		client: client,
		pubsub: pubsub,
		local:  NewLocalNotifier(),
		logger: logger,
		done:   make(chan struct{}),
	}
	go n.listen()

	return n, nil
}

func (n *RedisNotifier) listen() {
	defer close(n.done)

	for msg := range n.pubsub.Channel() {
		var event models.AuthEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			n.logger.Warn("Dropping malformed auth event", zap.Error(err))
			continue
		}
		_ = n.local.Publish(context.Background(), event)
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, event models.AuthEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal auth event: %w", err)
	}
	if err := n.client.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish auth event: %w", err)
	}
	return nil
}

func (n *RedisNotifier) Subscribe(fn func(models.AuthEvent)) func() {
	return n.local.Subscribe(fn)
}

func (n *RedisNotifier) Close() error {
	err := n.pubsub.Close()
	<-n.done
	_ = n.local.Close()
	return err
}

type RedisRevocations struct {
	client *redis.Client
}

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func (r *RedisRevocations) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+sessionID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("store revocation: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}
