package handler

import (
	"kusheet-cart/internal/dto"
	"kusheet-cart/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type SessionHandler struct {
	sessions service.SessionManager
}

func NewSessionHandler(sessions service.SessionManager) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

func (h *SessionHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := openSession(c, h.sessions)
	if err != nil {
		return err
	}

	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	resp, err := session.Login(ctx, &req)
	if err != nil {
		return echo.NewHTTPError(statusOf(err, http.StatusInternalServerError), err.Error())
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := openSession(c, h.sessions)
	if err != nil {
		return err
	}

	resp, err := session.Logout(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}
