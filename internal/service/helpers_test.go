package service

import (
	"context"
	"errors"
	"kusheet-cart/internal/client"
	"kusheet-cart/internal/dto"
	"kusheet-cart/internal/model"
	"kusheet-cart/internal/repository"
	"sync"

	"go.uber.org/zap"
)

var errStorageDown = errors.New("storage unavailable")

// failingStorage errors on every call.
type failingStorage struct{}

func (failingStorage) GetItem(ctx context.Context, key string) (string, error) {
	return "", errStorageDown
}

func (failingStorage) SetItem(ctx context.Context, key, value string) error {
	return errStorageDown
}

func (failingStorage) RemoveItem(ctx context.Context, key string) error {
	return errStorageDown
}

// recordingNotifier keeps every message in order.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []model.Notification
}

func (n *recordingNotifier) Success(message string) {
	n.push(model.NotificationSuccess, message)
}

func (n *recordingNotifier) Error(message string) {
	n.push(model.NotificationError, message)
}

func (n *recordingNotifier) Info(message string) {
	n.push(model.NotificationInfo, message)
}

func (n *recordingNotifier) push(level model.NotificationLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, model.Notification{Level: level, Message: message})
}

func (n *recordingNotifier) last() model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return model.Notification{}
	}
	return n.messages[len(n.messages)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// fakeDiscountClient answers with the configured result or error. When
// before is set it runs ahead of answering, with the caller's lock released.
type fakeDiscountClient struct {
	mu     sync.Mutex
	calls  int
	codes  []string
	lines  [][]*dto.Item
	result *client.DiscountResult
	err    error
	before func(call int)
}

func (c *fakeDiscountClient) Validate(ctx context.Context, code string, items []*dto.Item) (*client.DiscountResult, error) {
	c.mu.Lock()
	c.calls++
	call := c.calls
	c.codes = append(c.codes, code)
	c.lines = append(c.lines, items)
	before := c.before
	result, err := c.result, c.err
	c.mu.Unlock()

	if before != nil {
		before(call)
	}
	if err != nil {
		return nil, err
	}
	out := *result
	return &out, nil
}

func (c *fakeDiscountClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// staticIdentity is an IdentitySource whose user can be changed by tests.
type staticIdentity struct {
	mu     sync.Mutex
	userID string
}

func (i *staticIdentity) CurrentUserID(ctx context.Context) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.userID
}

func (i *staticIdentity) set(userID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.userID = userID
}

func newMemoryLocalStorage(deviceID string) repository.LocalStorage {
	return repository.NewLocalStorage(repository.NewMemoryStorageRepository(), deviceID)
}

func newLoadedStore(storage repository.LocalStorage, notifier Notifier) *CartStore {
	store := NewCartStore(storage, notifier, zap.NewNop())
	store.Load(context.Background(), "")
	return store
}
