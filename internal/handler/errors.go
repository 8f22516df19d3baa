package handler

import (
	"errors"
	"kusheet-cart/internal/client"
	"kusheet-cart/internal/service"
	"net/http"
)

// statusOf maps service errors to HTTP status codes, falling back to def.
func statusOf(err error, def int) int {
	var rejected *client.RejectedError

	switch {
	case errors.Is(err, service.ErrMissingItemID),
		errors.Is(err, service.ErrDiscountCodeRequired),
		errors.Is(err, service.ErrCartEmpty),
		errors.Is(err, service.ErrMissingUserID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrDiscountSuperseded):
		return http.StatusConflict
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity
	default:
		return def
	}
}
