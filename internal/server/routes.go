package server

import (
	"net/http"

	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
)

// ルート登録に必要なhandler一式。
type Handlers struct {
	Otp        *handler.OtpHandler
	Product    *handler.ProductHandler
	Cart       *handler.CartHandler
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
	Payment    *handler.PaymentHandler
	Course     *handler.CourseHandler
}

func registerRoutes(e *echo.Echo, cfg config.Config, hs Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	hs.Otp.RegisterRoutes(e)
	hs.Product.RegisterRoutes(e)
	hs.Cart.RegisterRoutes(e, cfg)
	hs.Order.RegisterRoutes(e, cfg)
	hs.AdminOrder.RegisterRoutes(e, cfg)
	hs.Payment.RegisterRoutes(e, cfg)
	hs.Course.RegisterRoutes(e, cfg)
}
