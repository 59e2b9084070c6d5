package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"phiz-quiz-service/internal/domain"
)

const (
	channelPrefix = "notifications:"
	inboxLimit    = 100
)

// Notifier publishes notifications on notifications:{recipient} and keeps the
// most recent ones in a capped inbox list for recipients that were offline.
type Notifier struct {
	client *redis.Client
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Notify(ctx context.Context, msg domain.Notification) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	pipe := n.client.TxPipeline()
	pipe.LPush(ctx, inboxKey(msg.Recipient), payload)
	pipe.LTrim(ctx, inboxKey(msg.Recipient), 0, inboxLimit-1)
	pipe.Publish(ctx, Channel(msg.Recipient), payload)
	_, err = pipe.Exec(ctx)
	return err
}

// Inbox returns the stored notifications for recipient, newest first.
func (n *Notifier) Inbox(ctx context.Context, recipient string) ([]domain.Notification, error) {
	raw, err := n.client.LRange(ctx, inboxKey(recipient), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(raw))
	for _, item := range raw {
		var msg domain.Notification
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// Subscribe listens for notifications addressed to recipient until ctx ends.
func (n *Notifier) Subscribe(ctx context.Context, recipient string) (<-chan domain.Notification, error) {
	sub := n.client.Subscribe(ctx, Channel(recipient))
	// wait for the subscription to be confirmed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	out := make(chan domain.Notification, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var msg domain.Notification
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Channel is the pub/sub channel for recipient.
func Channel(recipient string) string {
	return channelPrefix + recipient
}

func inboxKey(recipient string) string {
	return channelPrefix + recipient + ":inbox"
}
