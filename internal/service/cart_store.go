package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"kusheet-cart/internal/model"
	"kusheet-cart/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	cartKeyPrefix = "cart_"
	guestCartKey  = "cart_guest"
)

// CartKey is the storage key of a user scope. An empty userID is the guest.
func CartKey(userID string) string {
	if userID == "" {
		return guestCartKey
	}
	return cartKeyPrefix + "user_" + userID
}

// CartStore holds the cart of the active user scope and mirrors it into
// device storage. It is not safe for concurrent use; Session serializes it.
type CartStore struct {
	storage  repository.LocalStorage
	notifier Notifier
	logger   *zap.Logger

	scope  string
	items  []model.CartItem
	total  decimal.Decimal
	loaded bool

	// bumped whenever the id set or total may have changed
	version   uint64
	listeners []func()
}

func NewCartStore(storage repository.LocalStorage, notifier Notifier, logger *zap.Logger) *CartStore {
	return &CartStore{
		storage:  storage,
		notifier: notifier,
		logger:   logger,
		total:    decimal.Zero,
	}
}

// OnChange registers fn to run after every change of the cart contents.
func (s *CartStore) OnChange(fn func()) {
	s.listeners = append(s.listeners, fn)
}

// AddItem appends a normalized copy of raw. It reports false, without
// touching state, when an item with the same id is already in the cart.
func (s *CartStore) AddItem(ctx context.Context, raw map[string]any) (bool, error) {
	item, err := newCartItem(raw)
	if err != nil {
		return false, err
	}
	if s.IsInCart(item.ID) {
		return false, nil
	}

	s.items = append(s.items, item)
	s.changed(ctx)

	s.notifier.Success(fmt.Sprintf("Added %s to cart", item.Title()))
	return true, nil
}

func (s *CartStore) RemoveItem(ctx context.Context, id string) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}

	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	s.changed(ctx)

	s.notifier.Success(msgItemRemoved)
	return true
}

// ClearCart empties the cart, resets the discount and deletes the persisted
// entry of the active scope.
func (s *CartStore) ClearCart(ctx context.Context) {
	s.items = nil
	s.total = decimal.Zero
	s.version++
	s.emit()

	if err := s.storage.RemoveItem(ctx, CartKey(s.scope)); err != nil {
		s.logger.Warn("remove persisted cart", zap.String("key", CartKey(s.scope)), zap.Error(err))
	}
}

func (s *CartStore) IsInCart(id string) bool {
	return s.indexOf(id) >= 0
}

func (s *CartStore) GetCartCount() int {
	return len(s.items)
}

func (s *CartStore) GetCartTotal() float64 {
	return s.total.InexactFloat64()
}

func (s *CartStore) IsCartEmpty() bool {
	return len(s.items) == 0
}

func (s *CartStore) GetCartItems() []model.CartItem {
	out := make([]model.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *CartStore) Snapshot() model.CartState {
	return model.CartState{
		Items:     s.GetCartItems(),
		Total:     s.GetCartTotal(),
		ItemCount: s.GetCartCount(),
	}
}

func (s *CartStore) Scope() string {
	return s.scope
}

func (s *CartStore) IsLoaded() bool {
	return s.loaded
}

func (s *CartStore) Version() uint64 {
	return s.version
}

func (s *CartStore) totalDecimal() decimal.Decimal {
	return s.total
}

// Load replaces the in-memory cart with the one persisted for userID and
// marks the store loaded. Missing, unreadable or corrupt data gives an empty
// cart.
func (s *CartStore) Load(ctx context.Context, userID string) {
	s.scope = userID
	s.items = s.readPersisted(ctx, CartKey(userID))
	s.total = sumPrices(s.items)
	s.loaded = true
	s.version++
	s.emit()
}

// Flush writes the current cart under the active scope key. A loaded,
// non-empty cart always has a persisted entry, so a missing key means another
// session of the device cleared this scope; Flush then writes nothing and
// reports false.
func (s *CartStore) Flush(ctx context.Context) bool {
	key := CartKey(s.scope)
	if _, err := s.storage.GetItem(ctx, key); errors.Is(err, repository.ErrKeyNotFound) {
		s.logger.Info("skipping flush of cart cleared elsewhere", zap.String("key", key))
		return false
	}

	s.persist(ctx)
	return true
}

func (s *CartStore) readPersisted(ctx context.Context, key string) []model.CartItem {
	raw, err := s.storage.GetItem(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrKeyNotFound) {
			s.logger.Warn("read persisted cart", zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	items, err := decodeCart(raw)
	if err != nil {
		s.logger.Warn("discarding corrupt persisted cart", zap.String("key", key), zap.Error(err))
		return nil
	}
	return items
}

func (s *CartStore) changed(ctx context.Context) {
	s.total = sumPrices(s.items)
	s.version++
	s.emit()
	s.persist(ctx)
}

func (s *CartStore) emit() {
	for _, fn := range s.listeners {
		fn()
	}
}

// persist is a no-op until the scope is loaded so a transient empty cart
// never overwrites stored data.
func (s *CartStore) persist(ctx context.Context) {
	if !s.loaded {
		return
	}

	key := CartKey(s.scope)
	payload, err := json.Marshal(s.Snapshot())
	if err != nil {
		s.logger.Error("marshal cart", zap.String("key", key), zap.Error(err))
		return
	}

	if err := s.storage.SetItem(ctx, key, string(payload)); err != nil {
		s.logger.Warn("persist cart", zap.String("key", key), zap.Error(err))
	}
}

func (s *CartStore) indexOf(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

type persistedCart struct {
	Items []map[string]any `json:"items"`
}

// decodeCart parses a stored cart record. Any item failing the shape check
// invalidates the whole record. Duplicate ids keep their first occurrence.
func decodeCart(raw string) ([]model.CartItem, error) {
	var stored persistedCart
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	items := make([]model.CartItem, 0, len(stored.Items))
	seen := make(map[string]struct{}, len(stored.Items))
	for i, rawItem := range stored.Items {
		if !isStoredItemValid(rawItem) {
			return nil, fmt.Errorf("invalid cart item at index %d", i)
		}
		item, err := newCartItem(rawItem)
		if err != nil {
			return nil, fmt.Errorf("cart item at index %d: %w", i, err)
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}

	return items, nil
}
