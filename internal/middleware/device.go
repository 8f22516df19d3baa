package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	HeaderDeviceID  = "X-Device-Id"
	HeaderSessionID = "X-Session-Id"

	ContextDeviceID  = "device_id"
	ContextSessionID = "session_id"
)

// DeviceMiddleware identifies the calling browser (device) and tab (session).
// The device id is required; the session id is optional and gets assigned
// by the session manager when missing.
func DeviceMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			deviceID := c.Request().Header.Get(HeaderDeviceID)
			if deviceID == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "missing "+HeaderDeviceID+" header")
			}
			if len(deviceID) > 64 {
				return echo.NewHTTPError(http.StatusBadRequest, HeaderDeviceID+" header too long")
			}

			c.Set(ContextDeviceID, deviceID)
			c.Set(ContextSessionID, c.Request().Header.Get(HeaderSessionID))
			return next(c)
		}
	}
}
