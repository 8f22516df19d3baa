package service

import (
	"context"
	"errors"
	"fmt"
	"kusheet-cart/internal/dto"
	"kusheet-cart/internal/model"
	"kusheet-cart/internal/repository"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponService is the discount authority that DiscountResolver talks to
// over HTTP. It owns the monetary rules.
type CouponService interface {
	Seed(ctx context.Context) error
	Validate(ctx context.Context, req *dto.ValidateDiscountRequest) (*dto.ValidateDiscountResponse, error)
}

type couponServiceImpl struct {
	couponRepo repository.CouponRepository
	now        func() time.Time
}

func NewCouponService(couponRepo repository.CouponRepository) CouponService {
	return &couponServiceImpl{
		couponRepo: couponRepo,
		now:        time.Now,
	}
}

func (s *couponServiceImpl) Seed(ctx context.Context) error {
	return s.couponRepo.Seed(ctx)
}

func (s *couponServiceImpl) Validate(ctx context.Context, req *dto.ValidateDiscountRequest) (*dto.ValidateDiscountResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return rejected("No discount code provided"), nil
	}
	if len(req.Items) == 0 {
		return rejected("Cart is empty"), nil
	}

	coupon, err := s.couponRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rejected("Discount code not found"), nil
		}
		return nil, fmt.Errorf("find coupon %s: %w", code, err)
	}

	if !coupon.Active {
		return rejected("Discount code is no longer active"), nil
	}
	if coupon.ExpiresAt != nil && s.now().After(*coupon.ExpiresAt) {
		return rejected("Discount code has expired"), nil
	}

	itemCount := 0
	subtotal := decimal.Zero
	for _, item := range req.Items {
		if item == nil {
			continue
		}
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		itemCount += int(quantity)
		subtotal = subtotal.Add(decimal.NewFromFloat(NormalizePrice(item.Price)).Mul(decimal.NewFromInt32(quantity)))
	}
	if itemCount < coupon.MinItems {
		return rejected(fmt.Sprintf("Add at least %d sheets to use this code", coupon.MinItems)), nil
	}

	var amount decimal.Decimal
	switch coupon.Type {
	case model.CouponTypePercent:
		amount = subtotal.Mul(decimal.NewFromFloat(coupon.Value)).Div(decimal.NewFromInt(100)).Round(2)
	case model.CouponTypeFixed:
		amount = decimal.NewFromFloat(coupon.Value)
		if subtotal.IsPositive() && amount.GreaterThan(subtotal) {
			amount = subtotal
		}
	default:
		return nil, fmt.Errorf("coupon %s has unknown type %q", code, coupon.Type)
	}

	return &dto.ValidateDiscountResponse{
		Success: true,
		Data: map[string]any{
			"code":   coupon.Code,
			"amount": amount.InexactFloat64(),
			"type":   string(coupon.Type),
			"value":  coupon.Value,
		},
	}, nil
}

func rejected(message string) *dto.ValidateDiscountResponse {
	return &dto.ValidateDiscountResponse{
		Success: false,
		Message: message,
	}
}
