package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDevice(t *testing.T, deviceID, sessionID string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	if deviceID != "" {
		req.Header.Set(HeaderDeviceID, deviceID)
	}
	if sessionID != "" {
		req.Header.Set(HeaderSessionID, sessionID)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	err := DeviceMiddleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
	return c, err
}

func TestDeviceMiddleware(t *testing.T) {
	c, err := runDevice(t, "browser-1", "tab-1")
	require.NoError(t, err)
	assert.Equal(t, "browser-1", c.Get(ContextDeviceID))
	assert.Equal(t, "tab-1", c.Get(ContextSessionID))
}

func TestDeviceMiddleware_Rejects(t *testing.T) {
	for name, deviceID := range map[string]string{
		"missing":  "",
		"too long": strings.Repeat("x", 65),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := runDevice(t, deviceID, "")

			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		})
	}
}
