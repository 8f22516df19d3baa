package service

import (
	"kusheet-cart/internal/model"
	"sync"

	"go.uber.org/zap"
)

// Notifier surfaces transient messages to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
	Info(message string)
}

// BufferedNotifier queues messages until the next response drains them.
type BufferedNotifier struct {
	mu      sync.Mutex
	pending []model.Notification
	logger  *zap.Logger
}

func NewBufferedNotifier(logger *zap.Logger) *BufferedNotifier {
	return &BufferedNotifier{
		logger: logger,
	}
}

func (n *BufferedNotifier) Success(message string) {
	n.push(model.NotificationSuccess, message)
}

func (n *BufferedNotifier) Error(message string) {
	n.push(model.NotificationError, message)
}

func (n *BufferedNotifier) Info(message string) {
	n.push(model.NotificationInfo, message)
}

func (n *BufferedNotifier) push(level model.NotificationLevel, message string) {
	n.mu.Lock()
	n.pending = append(n.pending, model.Notification{Level: level, Message: message})
	n.mu.Unlock()

	n.logger.Debug("notification", zap.String("level", string(level)), zap.String("message", message))
}

// Drain returns and forgets the queued messages. Never nil.
func (n *BufferedNotifier) Drain() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := n.pending
	n.pending = nil
	if out == nil {
		out = []model.Notification{}
	}
	return out
}
