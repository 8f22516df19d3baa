package dto

import "kusheet-cart/internal/model"

type Item struct {
	ID       string  `json:"id"`
	Quantity int32   `json:"quantity"`
	Price    float64 `json:"price,omitempty"`
}

type ValidateDiscountRequest struct {
	Code  string  `json:"code"`
	Items []*Item `json:"items"`
}

type ValidateDiscountResponse struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
}

type ApplyDiscountRequest struct {
	Code string `json:"code"`
}

// LoginRequest carries either a signed token or the raw user record.
type LoginRequest struct {
	Token string         `json:"token"`
	User  map[string]any `json:"user"`
}

type CartResponse struct {
	SessionID      string               `json:"session_id"`
	Scope          string               `json:"scope"`
	Items          []model.CartItem     `json:"items"`
	Total          float64              `json:"total"`
	ItemCount      int                  `json:"itemCount"`
	Discount       model.DiscountState  `json:"discountInfo"`
	DiscountAmount float64              `json:"discount"`
	FinalTotal     float64              `json:"finalTotal"`
	Notifications  []model.Notification `json:"notifications"`
}

type SummaryResponse struct {
	Count      int     `json:"count"`
	Total      float64 `json:"total"`
	Discount   float64 `json:"discount"`
	FinalTotal float64 `json:"finalTotal"`
	Empty      bool    `json:"empty"`
}

type InCartResponse struct {
	ID     string `json:"id"`
	InCart bool   `json:"in_cart"`
}
