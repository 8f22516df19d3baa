package repository

import (
	"context"
	"kusheet-cart/internal/model"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CouponRepository interface {
	Seed(ctx context.Context) error
	Upsert(ctx context.Context, coupon *model.Coupon) error
	FindByCode(ctx context.Context, code string) (*model.Coupon, error)
}

type couponRepoImpl struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepoImpl{
		db: db,
	}
}

func (r *couponRepoImpl) Seed(ctx context.Context) error {
	coupons := []model.Coupon{
		{Code: "SAVE200", Type: model.CouponTypeFixed, Value: 200, Active: true},
		{Code: "KU10", Type: model.CouponTypePercent, Value: 10, Active: true},
		{Code: "BUNDLE3", Type: model.CouponTypePercent, Value: 15, Active: true, MinItems: 3},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&coupons).Error
}

func (r *couponRepoImpl) Upsert(ctx context.Context, coupon *model.Coupon) error {
	coupon.Code = strings.ToUpper(coupon.Code)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"type":       coupon.Type,
			"value":      coupon.Value,
			"active":     coupon.Active,
			"min_items":  coupon.MinItems,
			"expires_at": coupon.ExpiresAt,
			"updated_at": time.Now(),
		}),
	}).Create(coupon).Error
}

func (r *couponRepoImpl) FindByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&coupon).Error

	if err != nil {
		return nil, err
	}

	return &coupon, nil
}
