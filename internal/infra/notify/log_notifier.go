package notify

import (
	"context"
	"log"
	"sync"

	"phiz-quiz-service/internal/app"
	"phiz-quiz-service/internal/domain"
)

// LogNotifier writes notifications to the standard logger and keeps a count per kind.
type LogNotifier struct {
	logger *log.Logger

	mu     sync.Mutex
	counts map[domain.NotificationKind]int
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger, counts: make(map[domain.NotificationKind]int)}
}

func (n *LogNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	n.counts[msg.Kind]++
	n.mu.Unlock()
	n.logger.Printf("notify %s to %s: %s: %s", msg.Kind, msg.Recipient, msg.Title, msg.Body)
	return nil
}

// Count returns how many notifications of kind were sent.
func (n *LogNotifier) Count(kind domain.NotificationKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.counts[kind]
}

// Fanout delivers to every notifier and returns the first error.
type Fanout []app.Notifier

func (f Fanout) Notify(ctx context.Context, msg domain.Notification) error {
	var firstErr error
	for _, n := range f {
		if err := n.Notify(ctx, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
