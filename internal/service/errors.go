package service

import "errors"

var (
	ErrMissingItemID        = errors.New("cart item has no id")
	ErrDiscountCodeRequired = errors.New("discount code is required")
	ErrCartEmpty            = errors.New("cart is empty")
	// ErrDiscountSuperseded means a validation finished after the cart changed
	// or after a newer apply/clear, so its result was dropped.
	ErrDiscountSuperseded = errors.New("discount validation superseded")
	ErrInvalidToken       = errors.New("invalid identity token")
	ErrMissingUserID      = errors.New("user record has no id")
)

// user facing messages
const (
	msgDiscountCodeRequired = "Please enter a discount code"
	msgCartEmpty            = "Your cart is empty"
	msgDiscountInvalid      = "Invalid discount code"
	msgDiscountFailed       = "Failed to apply discount. Please try again"
	msgDiscountStale        = "Your cart changed, please apply the discount again"
	msgItemRemoved          = "Item removed from cart"
)
