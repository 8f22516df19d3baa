package handler

import (
	"kusheet-cart/internal/dto"
	"kusheet-cart/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type DiscountHandler struct {
	couponService service.CouponService
}

func NewDiscountHandler(couponService service.CouponService) *DiscountHandler {
	return &DiscountHandler{
		couponService: couponService,
	}
}

func (h *DiscountHandler) Validate(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ValidateDiscountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, &dto.ValidateDiscountResponse{
			Success: false,
			Message: "Invalid request payload",
		})
	}

	resp, err := h.couponService.Validate(ctx, &req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return c.JSON(http.StatusUnprocessableEntity, resp)
	}

	return c.JSON(http.StatusOK, resp)
}
