package service

import (
	"context"
	"encoding/json"
	"fmt"
	"kusheet-cart/internal/client"
	"kusheet-cart/internal/config"
	"kusheet-cart/internal/dto"
	"kusheet-cart/internal/repository"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one open tab: a single logical task owning one cart state
// container. Every exported method takes the session lock.
type Session struct {
	ID       string
	DeviceID string

	mu       sync.Mutex
	storage  repository.LocalStorage
	store    *CartStore
	discount *DiscountResolver
	scope    *UserScopeSwitcher
	notifier *BufferedNotifier
	bus      IdentityBus
	verifier TokenVerifier
	logger   *zap.Logger
	lastSeen time.Time
}

func (s *Session) View(ctx context.Context) *dto.CartResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.response()
}

// AddToCart adds raw to the cart. A duplicate id is not an error.
func (s *Session) AddToCart(ctx context.Context, raw map[string]any) (*dto.CartResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.AddItem(ctx, raw); err != nil {
		return s.response(), err
	}
	return s.response(), nil
}

func (s *Session) RemoveFromCart(ctx context.Context, id string) *dto.CartResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.RemoveItem(ctx, id)
	return s.response()
}

func (s *Session) ClearCart(ctx context.Context) *dto.CartResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.ClearCart(ctx)
	return s.response()
}

func (s *Session) IsInCart(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.IsInCart(id)
}

func (s *Session) Summary() *dto.SummaryResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &dto.SummaryResponse{
		Count:      s.store.GetCartCount(),
		Total:      s.store.GetCartTotal(),
		Discount:   s.discount.GetDiscount(),
		FinalTotal: s.discount.GetFinalTotal(),
		Empty:      s.store.IsCartEmpty(),
	}
}

// ApplyDiscount releases the session lock while the code is validated
// remotely, so the tab stays usable.
func (s *Session) ApplyDiscount(ctx context.Context, code string) (*dto.CartResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.discount.ApplyDiscount(ctx, code)
	return s.response(), err
}

func (s *Session) ClearDiscount(ctx context.Context) *dto.CartResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discount.ClearDiscount()
	return s.response()
}

// Login stores the user record for the device, signals the other sessions
// and switches this one to the user's cart.
func (s *Session) Login(ctx context.Context, req *dto.LoginRequest) (*dto.CartResponse, error) {
	record := req.User
	if req.Token != "" {
		verified, err := s.verifier.Verify(req.Token)
		if err != nil {
			return nil, err
		}
		record = verified
	}
	if userIDOf(record) == "" {
		return nil, ErrMissingUserID
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal user record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.SetItem(ctx, UserStorageKey, string(payload)); err != nil {
		return nil, fmt.Errorf("store user record: %w", err)
	}
	s.signal(ctx)
	s.scope.Sync(ctx)

	return s.response(), nil
}

// Logout clears the departing user's cart, forgets the user record and
// falls back to the guest cart.
func (s *Session) Logout(ctx context.Context) (*dto.CartResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Scope() != "" {
		s.store.ClearCart(ctx)
	}
	if err := s.storage.RemoveItem(ctx, UserStorageKey); err != nil {
		return nil, fmt.Errorf("remove user record: %w", err)
	}
	s.signal(ctx)
	s.scope.Sync(ctx)

	return s.response(), nil
}

func (s *Session) signal(ctx context.Context) {
	if err := s.bus.Publish(ctx, s.DeviceID); err != nil {
		s.logger.Warn("publish identity change", zap.Error(err))
	}
}

func (s *Session) response() *dto.CartResponse {
	snapshot := s.store.Snapshot()
	return &dto.CartResponse{
		SessionID:      s.ID,
		Scope:          CartKey(s.store.Scope()),
		Items:          snapshot.Items,
		Total:          snapshot.Total,
		ItemCount:      snapshot.ItemCount,
		Discount:       s.discount.Info(),
		DiscountAmount: s.discount.GetDiscount(),
		FinalTotal:     s.discount.GetFinalTotal(),
		Notifications:  s.notifier.Drain(),
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scope.Stop()
}

type SessionManager interface {
	// Open returns the session for sessionID, creating it (and loading the
	// cart of the device's current identity) when unknown. An empty or
	// foreign sessionID gets a fresh id.
	Open(ctx context.Context, deviceID, sessionID string) (*Session, error)
	Sweep(now time.Time) int
	Run(ctx context.Context)
	Close()
}

type sessionManagerImpl struct {
	mu       sync.Mutex
	sessions map[string]*Session

	storageRepo    repository.StorageRepository
	discountClient client.DiscountClient
	bus            IdentityBus
	verifier       TokenVerifier
	logger         *zap.Logger
	idleTimeout    time.Duration
	sweepInterval  time.Duration
}

func NewSessionManager(
	storageRepo repository.StorageRepository,
	discountClient client.DiscountClient,
	bus IdentityBus,
	verifier TokenVerifier,
	logger *zap.Logger,
	sessionCfg *config.Session,
) SessionManager {
	return &sessionManagerImpl{
		sessions:       make(map[string]*Session),
		storageRepo:    storageRepo,
		discountClient: discountClient,
		bus:            bus,
		verifier:       verifier,
		logger:         logger,
		idleTimeout:    sessionCfg.IdleTimeout,
		sweepInterval:  sessionCfg.SweepInterval,
	}
}

func (m *sessionManagerImpl) Open(ctx context.Context, deviceID, sessionID string) (*Session, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}

	if session, ok := m.lookup(deviceID, sessionID); ok {
		return session, nil
	}

	// built without m.mu, the initial sync reads storage
	created := m.newSession(ctx, deviceID, uuid.NewString())

	m.mu.Lock()
	if session, ok := m.sessions[sessionID]; ok && session.DeviceID == deviceID {
		session.lastSeen = time.Now()
		m.mu.Unlock()
		created.close()
		return session, nil
	}
	m.sessions[created.ID] = created
	m.mu.Unlock()

	return created, nil
}

func (m *sessionManagerImpl) lookup(deviceID, sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok || session.DeviceID != deviceID {
		return nil, false
	}
	session.lastSeen = time.Now()
	return session, true
}

func (m *sessionManagerImpl) newSession(ctx context.Context, deviceID, sessionID string) *Session {
	logger := m.logger.With(zap.String("device_id", deviceID), zap.String("session_id", sessionID))
	storage := repository.NewLocalStorage(m.storageRepo, deviceID)
	notifier := NewBufferedNotifier(logger)

	s := &Session{
		ID:       sessionID,
		DeviceID: deviceID,
		storage:  storage,
		notifier: notifier,
		bus:      m.bus,
		verifier: m.verifier,
		logger:   logger,
		lastSeen: time.Now(),
	}
	s.store = NewCartStore(storage, notifier, logger)
	s.discount = NewDiscountResolver(s.store, m.discountClient, notifier, logger, &s.mu)
	s.scope = NewUserScopeSwitcher(s.store, NewStorageIdentitySource(storage, logger), logger)

	s.mu.Lock()
	s.scope.Sync(ctx)
	s.scope.Watch(m.bus, deviceID, &s.mu)
	s.mu.Unlock()

	logger.Info("session opened")
	return s
}

func (m *sessionManagerImpl) Sweep(now time.Time) int {
	m.mu.Lock()
	var idle []*Session
	for id, session := range m.sessions {
		if now.Sub(session.lastSeen) > m.idleTimeout {
			idle = append(idle, session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, session := range idle {
		session.close()
		session.logger.Info("session closed after idle timeout")
	}
	return len(idle)
}

func (m *sessionManagerImpl) Run(ctx context.Context) {
	if m.sweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				m.logger.Info("swept idle sessions", zap.Int("count", n))
			}
		}
	}
}

func (m *sessionManagerImpl) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.close()
	}
}
