package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// UserScopeSwitcher keeps the CartStore bound to the cart of whoever is
// signed in, so one user's cart never shows up in another user's session.
type UserScopeSwitcher struct {
	store    *CartStore
	identity IdentitySource
	logger   *zap.Logger

	unsubscribe func()
}

func NewUserScopeSwitcher(store *CartStore, identity IdentitySource, logger *zap.Logger) *UserScopeSwitcher {
	return &UserScopeSwitcher{
		store:    store,
		identity: identity,
		logger:   logger,
	}
}

// Sync loads the cart of the current identity when it differs from the
// active scope, flushing a non-empty previous cart under its own key first
// unless another session already cleared that key. It reports whether the
// scope was switched.
func (s *UserScopeSwitcher) Sync(ctx context.Context) bool {
	userID := s.identity.CurrentUserID(ctx)
	if s.store.IsLoaded() && userID == s.store.Scope() {
		return false
	}

	previous := s.store.Scope()
	if s.store.IsLoaded() && !s.store.IsCartEmpty() {
		s.store.Flush(ctx)
	}

	s.store.Load(ctx, userID)

	s.logger.Info("cart scope switched",
		zap.String("from", CartKey(previous)),
		zap.String("to", CartKey(userID)),
		zap.Int("items", s.store.GetCartCount()),
	)
	return true
}

// Watch re-runs Sync, holding locker, whenever bus reports an identity
// change for deviceID.
func (s *UserScopeSwitcher) Watch(bus IdentityBus, deviceID string, locker sync.Locker) {
	s.Stop()
	s.unsubscribe = bus.Subscribe(deviceID, func() {
		locker.Lock()
		defer locker.Unlock()
		s.Sync(context.Background())
	})
}

func (s *UserScopeSwitcher) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}
