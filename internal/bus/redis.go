package bus

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
)

// RedisBus delivers job status messages over redis pub/sub, letting
// subscribers live in other processes.
type RedisBus struct {
	client *redis.Client
	log    *logger.Logger
}

// RedisOptions configures the redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis connects to redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions, log *logger.Logger) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisBus{client: client, log: log}, nil
}

// Publish implements Bus. Messages are JSON-encoded on the wire.
func (b *RedisBus) Publish(ctx context.Context, msg Message) error {
	data, err := encodeMessage(msg)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, Channel(msg.JobID), data).Err(); err != nil {
		return fmt.Errorf("publish status message: %w", err)
	}
	return nil
}

// Subscribe implements Bus.
func (b *RedisBus) Subscribe(ctx context.Context, jobID string) (<-chan Message, func(), error) {
	sub := b.client.Subscribe(ctx, Channel(jobID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe to job %s: %w", jobID, err)
	}

	out := make(chan Message, subscriberBuffer)
	go func() {
		defer close(out)
		for raw := range sub.Channel() {
			msg, err := decodeMessage([]byte(raw.Payload))
			if err != nil {
				b.log.Error(err, "discarding undecodable status message")
				continue
			}
			out <- msg
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}

// Close releases the redis connection.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
