package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultPushStream = "mentl2:push"

// PushIntent asks the web-push worker to notify every subscription of a user.
type PushIntent struct {
	UserID   string            `json:"user_id"`
	Kind     string            `json:"kind"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Severity string            `json:"severity,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
}

type PushSender interface {
	Publish(ctx context.Context, intent PushIntent) error
}

// StreamPublisher appends push intents to a Redis stream.
type StreamPublisher struct {
	client *redis.Client
	stream string
}

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	if stream == "" {
		stream = DefaultPushStream
	}
	return &StreamPublisher{client: client, stream: stream}
}

func (p *StreamPublisher) Publish(ctx context.Context, intent PushIntent) error {
	if intent.UserID == "" {
		return fmt.Errorf("notify: push intent has no user")
	}
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("notify: encode push intent: %w", err)
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"user_id":   intent.UserID,
			"kind":      intent.Kind,
			"data":      string(payload),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("notify: publish push intent: %w", err)
	}
	return nil
}

var _ PushSender = (*StreamPublisher)(nil)
