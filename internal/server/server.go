package server

import (
	"context"
	"kusheet-cart/internal/handler"
	"kusheet-cart/internal/middleware"
	"kusheet-cart/internal/service"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo            *echo.Echo
	cartHandler     *handler.CartHandler
	sessionHandler  *handler.SessionHandler
	discountHandler *handler.DiscountHandler
}

func NewServer(sessions service.SessionManager, couponService service.CouponService) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowHeaders:  []string{echo.HeaderContentType, middleware.HeaderDeviceID, middleware.HeaderSessionID},
		ExposeHeaders: []string{middleware.HeaderSessionID},
	}))

	s := &Server{
		echo:            e,
		cartHandler:     handler.NewCartHandler(sessions),
		sessionHandler:  handler.NewSessionHandler(sessions),
		discountHandler: handler.NewDiscountHandler(couponService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- discount authority --------
	api.POST("/discounts/validate", s.discountHandler.Validate)

	// -------- cart --------
	cart := api.Group("/cart", middleware.DeviceMiddleware())
	cart.GET("", s.cartHandler.GetCart)
	cart.DELETE("", s.cartHandler.ClearCart)
	cart.GET("/summary", s.cartHandler.Summary)
	cart.POST("/items", s.cartHandler.AddItem)
	cart.GET("/items/:id", s.cartHandler.IsInCart)
	cart.DELETE("/items/:id", s.cartHandler.RemoveItem)
	cart.POST("/discount", s.cartHandler.ApplyDiscount)
	cart.DELETE("/discount", s.cartHandler.ClearDiscount)

	// -------- identity --------
	session := api.Group("/session", middleware.DeviceMiddleware())
	session.POST("/login", s.sessionHandler.Login)
	session.POST("/logout", s.sessionHandler.Logout)
}

func (s *Server) Handler() *echo.Echo {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
