package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdentityBus tells every session of a device that the signed-in identity
// changed somewhere else. Callbacks run on their own goroutine.
type IdentityBus interface {
	Publish(ctx context.Context, deviceID string) error
	Subscribe(deviceID string, fn func()) (unsubscribe func())
	Close() error
}

type subscriberSet struct {
	mu   sync.Mutex
	next uint64
	subs map[string]map[uint64]func()
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{subs: make(map[string]map[uint64]func())}
}

func (s *subscriberSet) add(deviceID string, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	id := s.next
	if s.subs[deviceID] == nil {
		s.subs[deviceID] = make(map[uint64]func())
	}
	s.subs[deviceID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[deviceID], id)
			if len(s.subs[deviceID]) == 0 {
				delete(s.subs, deviceID)
			}
		})
	}
}

func (s *subscriberSet) dispatch(deviceID string) {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs[deviceID]))
	for _, fn := range s.subs[deviceID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		go fn()
	}
}

type memoryIdentityBus struct {
	*subscriberSet
}

func NewMemoryIdentityBus() IdentityBus {
	return &memoryIdentityBus{subscriberSet: newSubscriberSet()}
}

func (b *memoryIdentityBus) Publish(ctx context.Context, deviceID string) error {
	b.dispatch(deviceID)
	return nil
}

func (b *memoryIdentityBus) Subscribe(deviceID string, fn func()) func() {
	return b.add(deviceID, fn)
}

func (b *memoryIdentityBus) Close() error {
	return nil
}

// redisIdentityBus fans identity changes out through redis pub/sub so
// sessions of the same device on other instances see them too.
type redisIdentityBus struct {
	*subscriberSet
	rdb     *redis.Client
	pubsub  *redis.PubSub
	channel string
	logger  *zap.Logger
}

func NewRedisIdentityBus(ctx context.Context, rdb *redis.Client, prefix string, logger *zap.Logger) (IdentityBus, error) {
	b := &redisIdentityBus{
		subscriberSet: newSubscriberSet(),
		rdb:           rdb,
		channel:       prefix + ":identity:",
		logger:        logger,
	}

	b.pubsub = rdb.PSubscribe(ctx, b.channel+"*")
	if _, err := b.pubsub.Receive(ctx); err != nil {
		b.pubsub.Close()
		return nil, fmt.Errorf("subscribe identity channel: %w", err)
	}

	go b.listen()
	return b, nil
}

func (b *redisIdentityBus) listen() {
	for msg := range b.pubsub.Channel() {
		deviceID := strings.TrimPrefix(msg.Channel, b.channel)
		b.logger.Debug("identity change signal", zap.String("device_id", deviceID))
		b.dispatch(deviceID)
	}
}

func (b *redisIdentityBus) Publish(ctx context.Context, deviceID string) error {
	if err := b.rdb.Publish(ctx, b.channel+deviceID, "changed").Err(); err != nil {
		return fmt.Errorf("publish identity change: %w", err)
	}
	return nil
}

func (b *redisIdentityBus) Subscribe(deviceID string, fn func()) func() {
	return b.add(deviceID, fn)
}

func (b *redisIdentityBus) Close() error {
	return b.pubsub.Close()
}
