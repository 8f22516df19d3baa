package service

import (
	"context"
	"fmt"
	"kusheet-cart/internal/client"
	"kusheet-cart/internal/config"
	"kusheet-cart/internal/dto"
	"kusheet-cart/internal/model"
	"kusheet-cart/internal/repository"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CouponServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	repo    repository.CouponRepository
	service *couponServiceImpl
	now     time.Time
}

func (s *CouponServiceTestSuite) SetupTest() {
	s.ctx = context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(s.T().Name())
	db, err := client.InitDBClient(&config.Database{
		Driver: "sqlite",
		URL:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(s.T(), err)

	s.repo = repository.NewCouponRepository(db)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.service = NewCouponService(s.repo).(*couponServiceImpl)
	s.service.now = func() time.Time { return s.now }

	require.NoError(s.T(), s.service.Seed(s.ctx))
}

func TestCouponServiceSuite(t *testing.T) {
	suite.Run(t, new(CouponServiceTestSuite))
}

func lines(prices ...float64) []*dto.Item {
	items := make([]*dto.Item, len(prices))
	for i, price := range prices {
		items[i] = &dto.Item{ID: fmt.Sprintf("s%d", i), Quantity: 1, Price: price}
	}
	return items
}

func (s *CouponServiceTestSuite) validate(code string, items []*dto.Item) *dto.ValidateDiscountResponse {
	resp, err := s.service.Validate(s.ctx, &dto.ValidateDiscountRequest{Code: code, Items: items})
	require.NoError(s.T(), err)
	return resp
}

func (s *CouponServiceTestSuite) TestFixedCoupon() {
	resp := s.validate("SAVE200", lines(600, 400))

	require.True(s.T(), resp.Success)
	assert.Equal(s.T(), "SAVE200", resp.Data["code"])
	assert.Equal(s.T(), 200.0, resp.Data["amount"])
	assert.Equal(s.T(), "FIXED", resp.Data["type"])
}

func (s *CouponServiceTestSuite) TestFixedCouponCappedAtSubtotal() {
	resp := s.validate("save200", lines(150))

	require.True(s.T(), resp.Success)
	assert.Equal(s.T(), 150.0, resp.Data["amount"])
}

func (s *CouponServiceTestSuite) TestPercentCouponRounds() {
	resp := s.validate(" ku10 ", lines(33.33, 0.02))

	require.True(s.T(), resp.Success)
	assert.Equal(s.T(), "KU10", resp.Data["code"])
	assert.Equal(s.T(), 3.34, resp.Data["amount"])
}

func (s *CouponServiceTestSuite) TestQuantityMultiplies() {
	resp := s.validate("KU10", []*dto.Item{{ID: "a", Quantity: 3, Price: 100}})

	require.True(s.T(), resp.Success)
	assert.Equal(s.T(), 30.0, resp.Data["amount"])
}

func (s *CouponServiceTestSuite) TestMinItems() {
	resp := s.validate("BUNDLE3", lines(100, 100))
	assert.False(s.T(), resp.Success)
	assert.Equal(s.T(), "Add at least 3 sheets to use this code", resp.Message)

	resp = s.validate("BUNDLE3", lines(100, 100, 100))
	require.True(s.T(), resp.Success)
	assert.Equal(s.T(), 45.0, resp.Data["amount"])
}

func (s *CouponServiceTestSuite) TestRejections() {
	past := s.now.Add(-time.Hour)
	require.NoError(s.T(), s.repo.Upsert(s.ctx, &model.Coupon{Code: "old", Type: model.CouponTypeFixed, Value: 50, Active: true, ExpiresAt: &past}))
	require.NoError(s.T(), s.repo.Upsert(s.ctx, &model.Coupon{Code: "OFF", Type: model.CouponTypeFixed, Value: 50, Active: false}))

	cases := []struct {
		code    string
		items   []*dto.Item
		message string
	}{
		{"", lines(10), "No discount code provided"},
		{"KU10", nil, "Cart is empty"},
		{"NOPE", lines(10), "Discount code not found"},
		{"OFF", lines(10), "Discount code is no longer active"},
		{"OLD", lines(10), "Discount code has expired"},
	}

	for _, tc := range cases {
		resp := s.validate(tc.code, tc.items)
		assert.False(s.T(), resp.Success, tc.code)
		assert.Equal(s.T(), tc.message, resp.Message, tc.code)
	}
}

func (s *CouponServiceTestSuite) TestSeedIsIdempotent() {
	require.NoError(s.T(), s.repo.Upsert(s.ctx, &model.Coupon{Code: "KU10", Type: model.CouponTypePercent, Value: 20, Active: true}))
	require.NoError(s.T(), s.service.Seed(s.ctx))

	coupon, err := s.repo.FindByCode(s.ctx, "ku10")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 20.0, coupon.Value)
}
