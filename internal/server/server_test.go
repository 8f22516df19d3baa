package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"kusheet-cart/internal/client"
	"kusheet-cart/internal/config"
	"kusheet-cart/internal/dto"
	"kusheet-cart/internal/middleware"
	"kusheet-cart/internal/repository"
	"kusheet-cart/internal/service"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const testSecret = "server-test-secret"

type ServerTestSuite struct {
	suite.Suite
	ts       *httptest.Server
	sessions service.SessionManager
	bus      service.IdentityBus
}

func (s *ServerTestSuite) SetupTest() {
	ctx := context.Background()

	// the cart validates discounts against this same server
	var handler http.Handler
	s.ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))

	name := strings.NewReplacer("/", "_", " ", "_").Replace(s.T().Name())
	db, err := client.InitDBClient(&config.Database{
		Driver: "sqlite",
		URL:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(s.T(), err)

	couponService := service.NewCouponService(repository.NewCouponRepository(db))
	require.NoError(s.T(), couponService.Seed(ctx))

	s.bus = service.NewMemoryIdentityBus()
	s.sessions = service.NewSessionManager(
		repository.NewStorageRepository(db),
		client.NewDiscountClient(&config.Discount{BaseApiURL: s.ts.URL, Timeout: 5 * time.Second}),
		s.bus,
		service.NewJWTVerifier(testSecret),
		zap.NewNop(),
		&config.Session{IdleTimeout: time.Minute},
	)

	handler = NewServer(s.sessions, couponService).Handler()
}

func (s *ServerTestSuite) TearDownTest() {
	s.ts.Close()
	s.sessions.Close()
	s.bus.Close()
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

type tab struct {
	deviceID  string
	sessionID string
}

func (s *ServerTestSuite) do(t *tab, method, path string, body any, out any) int {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.ts.URL+path, reader)
	require.NoError(s.T(), err)
	req.Header.Set("Content-Type", "application/json")
	if t != nil {
		req.Header.Set(middleware.HeaderDeviceID, t.deviceID)
		req.Header.Set(middleware.HeaderSessionID, t.sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	if t != nil {
		if id := resp.Header.Get(middleware.HeaderSessionID); id != "" {
			t.sessionID = id
		}
	}
	if out != nil {
		require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *ServerTestSuite) TestHealth() {
	var body map[string]string
	require.Equal(s.T(), http.StatusOK, s.do(nil, http.MethodGet, "/api/health", nil, &body))
	assert.Equal(s.T(), "ok", body["status"])
}

func (s *ServerTestSuite) TestCartRequiresDevice() {
	assert.Equal(s.T(), http.StatusBadRequest, s.do(nil, http.MethodGet, "/api/cart", nil, nil))
}

func (s *ServerTestSuite) TestCheckoutFlow() {
	t := &tab{deviceID: "browser-1"}

	var cart dto.CartResponse
	require.Equal(s.T(), http.StatusOK, s.do(t, http.MethodPost, "/api/cart/items",
		map[string]any{"id": 1, "title": "Thermo", "price": "600"}, &cart))
	require.NotEmpty(s.T(), t.sessionID)
	assert.Equal(s.T(), 600.0, cart.Total)

	require.Equal(s.T(), http.StatusOK, s.do(t, http.MethodPost, "/api/cart/items",
		map[string]any{"id": 2, "price": 400}, &cart))
	assert.Equal(s.T(), 2, cart.ItemCount)

	var inCart dto.InCartResponse
	require.Equal(s.T(), http.StatusOK, s.do(t, http.MethodGet, "/api/cart/items/1", nil, &inCart))
	assert.True(s.T(), inCart.InCart)

	require.Equal(s.T(), http.StatusOK, s.do(t, http.MethodPost, "/api/cart/discount",
		map[string]any{"code": "SAVE200"}, &cart))
	assert.Equal(s.T(), 200.0, cart.DiscountAmount)
	assert.Equal(s.T(), 800.0, cart.FinalTotal)
	assert.Equal(s.T(), "SAVE200", cart.Discount.Code)

	var summary dto.SummaryResponse
	require.Equal(s.T(), http.StatusOK, s.do(t, http.MethodGet, "/api/cart/summary", nil, &summary))
	assert.Equal(s.T(), 800.0, summary.FinalTotal)

	require.Equal(s.T(), http.StatusOK, s.do(t, http.MethodDelete, "/api/cart/items/2", nil, &cart))
	assert.Equal(s.T(), 0.0, cart.DiscountAmount)
	assert.Equal(s.T(), 600.0, cart.FinalTotal)

	require.Equal(s.T(), http.StatusOK, s.do(t, http.MethodDelete, "/api/cart", nil, &cart))
	assert.Equal(s.T(), 0, cart.ItemCount)
}

func (s *ServerTestSuite) TestDiscountErrors() {
	t := &tab{deviceID: "browser-1"}

	var cart dto.CartResponse
	require.Equal(s.T(), http.StatusBadRequest, s.do(t, http.MethodPost, "/api/cart/discount",
		map[string]any{"code": "SAVE200"}, &cart))
	require.Len(s.T(), cart.Notifications, 1)
	assert.Equal(s.T(), "Your cart is empty", cart.Notifications[0].Message)

	s.do(t, http.MethodPost, "/api/cart/items", map[string]any{"id": "x", "price": 100}, nil)

	require.Equal(s.T(), http.StatusBadRequest, s.do(t, http.MethodPost, "/api/cart/discount",
		map[string]any{"code": "  "}, &cart))

	require.Equal(s.T(), http.StatusUnprocessableEntity, s.do(t, http.MethodPost, "/api/cart/discount",
		map[string]any{"code": "BUNDLE3"}, &cart))
	require.Len(s.T(), cart.Notifications, 1)
	assert.Equal(s.T(), "Add at least 3 sheets to use this code", cart.Notifications[0].Message)
	assert.Equal(s.T(), 100.0, cart.FinalTotal)
}

func (s *ServerTestSuite) TestAddItemWithoutID() {
	t := &tab{deviceID: "browser-1"}
	assert.Equal(s.T(), http.StatusBadRequest, s.do(t, http.MethodPost, "/api/cart/items",
		map[string]any{"price": 1}, nil))
}

func (s *ServerTestSuite) TestLoginIsolatesCarts() {
	tabA := &tab{deviceID: "browser-1"}
	s.do(tabA, http.MethodPost, "/api/cart/items", map[string]any{"id": 5}, nil)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "userA",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(s.T(), err)

	var cart dto.CartResponse
	require.Equal(s.T(), http.StatusOK, s.do(tabA, http.MethodPost, "/api/session/login",
		map[string]any{"token": token}, &cart))
	assert.Equal(s.T(), "cart_user_userA", cart.Scope)
	assert.Equal(s.T(), 0, cart.ItemCount)

	// a second tab of the same browser opens signed in
	tabB := &tab{deviceID: "browser-1"}
	require.Equal(s.T(), http.StatusOK, s.do(tabB, http.MethodGet, "/api/cart", nil, &cart))
	assert.Equal(s.T(), "cart_user_userA", cart.Scope)

	require.Equal(s.T(), http.StatusOK, s.do(tabA, http.MethodPost, "/api/session/logout", nil, &cart))
	assert.Equal(s.T(), "cart_guest", cart.Scope)
	assert.Equal(s.T(), 1, cart.ItemCount)
}

func (s *ServerTestSuite) TestLoginWithBadToken() {
	t := &tab{deviceID: "browser-1"}
	assert.Equal(s.T(), http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/session/login",
		map[string]any{"token": "nope"}, nil))
}

func (s *ServerTestSuite) TestValidateEndpoint() {
	var resp dto.ValidateDiscountResponse
	require.Equal(s.T(), http.StatusOK, s.do(nil, http.MethodPost, "/api/discounts/validate",
		&dto.ValidateDiscountRequest{Code: "KU10", Items: []*dto.Item{{ID: "a", Quantity: 1, Price: 250}}}, &resp))
	assert.True(s.T(), resp.Success)
	assert.Equal(s.T(), 25.0, resp.Data["amount"])

	require.Equal(s.T(), http.StatusUnprocessableEntity, s.do(nil, http.MethodPost, "/api/discounts/validate",
		&dto.ValidateDiscountRequest{Code: "NOPE", Items: []*dto.Item{{ID: "a", Quantity: 1, Price: 250}}}, &resp))
	assert.False(s.T(), resp.Success)
	assert.Equal(s.T(), "Discount code not found", resp.Message)
}
