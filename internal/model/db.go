package model

import "time"

// StorageEntry is one key of a device's local storage.
type StorageEntry struct {
	Namespace string `gorm:"primaryKey;size:64;not null"` // device id
	Key       string `gorm:"primaryKey;size:128;not null"`
	Value     string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CouponType string

const (
	CouponTypePercent CouponType = "PERCENT"
	CouponTypeFixed   CouponType = "FIXED"
)

type Coupon struct {
	Code      string     `gorm:"primaryKey;size:64;not null"` // stored upper case
	Type      CouponType `gorm:"size:16;not null"`            // PERCENT, FIXED
	Value     float64    `gorm:"not null"`
	Active    bool       `gorm:"not null"`
	MinItems  int        `gorm:"not null;default:0"`
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
