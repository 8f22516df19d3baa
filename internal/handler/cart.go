package handler

import (
	"kusheet-cart/internal/dto"
	"kusheet-cart/internal/middleware"
	"kusheet-cart/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	sessions service.SessionManager
}

func NewCartHandler(sessions service.SessionManager) *CartHandler {
	return &CartHandler{
		sessions: sessions,
	}
}

// openSession resolves the tab behind the request and echoes its id back.
func openSession(c echo.Context, sessions service.SessionManager) (*service.Session, error) {
	ctx := c.Request().Context()

	deviceID, _ := c.Get(middleware.ContextDeviceID).(string)
	sessionID, _ := c.Get(middleware.ContextSessionID).(string)

	session, err := sessions.Open(ctx, deviceID, sessionID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	c.Response().Header().Set(middleware.HeaderSessionID, session.ID)
	return session, nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	session, err := openSession(c, h.sessions)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, session.View(c.Request().Context()))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := openSession(c, h.sessions)
	if err != nil {
		return err
	}

	var item map[string]any
	if err := c.Bind(&item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	resp, err := session.AddToCart(ctx, item)
	if err != nil {
		return c.JSON(statusOf(err, http.StatusInternalServerError), resp)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	session, err := openSession(c, h.sessions)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, session.RemoveFromCart(c.Request().Context(), c.Param("id")))
}

func (h *CartHandler) IsInCart(c echo.Context) error {
	session, err := openSession(c, h.sessions)
	if err != nil {
		return err
	}

	id := c.Param("id")
	return c.JSON(http.StatusOK, &dto.InCartResponse{
		ID:     id,
		InCart: session.IsInCart(id),
	})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	session, err := openSession(c, h.sessions)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, session.ClearCart(c.Request().Context()))
}

func (h *CartHandler) Summary(c echo.Context) error {
	session, err := openSession(c, h.sessions)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, session.Summary())
}

func (h *CartHandler) ApplyDiscount(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := openSession(c, h.sessions)
	if err != nil {
		return err
	}

	var req dto.ApplyDiscountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	resp, err := session.ApplyDiscount(ctx, req.Code)
	if err != nil {
		return c.JSON(statusOf(err, http.StatusBadGateway), resp)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) ClearDiscount(c echo.Context) error {
	session, err := openSession(c, h.sessions)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, session.ClearDiscount(c.Request().Context()))
}
