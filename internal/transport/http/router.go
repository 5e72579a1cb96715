package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/uzhavansanthai/marketplace/internal/handlers"
	"github.com/uzhavansanthai/marketplace/internal/middleware/auth"
	"github.com/uzhavansanthai/marketplace/internal/middleware/metrics"
)

type Deps struct {
	DB             *gorm.DB
	Auth           *auth.Middleware
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	ProductHandler *handlers.ProductHandler
	OrderHandler   *handlers.OrderHandler
	ChatHandler    *handlers.ChatHandler
	MLHandler      *handlers.MLHandler
	AdminHandler   *handlers.AdminHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		sqlDB, err := d.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())

	v1 := e.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.POST("/refresh", d.AuthHandler.Refresh)
	authGroup.POST("/logout", d.AuthHandler.Logout)

	v1.GET("/products", d.ProductHandler.List)
	v1.GET("/products/:id", d.ProductHandler.Get)
	v1.GET("/products/farmer/:farmerId", d.ProductHandler.FarmerProducts)
	v1.GET("/search", d.SearchHandler.Products)

	users := v1.Group("/users", d.Auth.Authenticate)
	users.GET("/profile", d.UserHandler.GetProfile)
	users.PUT("/profile", d.UserHandler.UpdateProfile)
	users.PUT("/profile/image", d.UserHandler.UpdateProfileImage)
	users.PUT("/location", d.UserHandler.UpdateLocation)
	users.GET("/nearby", d.UserHandler.Nearby)
	users.GET("/stats", d.UserHandler.Stats)
	users.DELETE("/account", d.UserHandler.DeactivateAccount)

	products := v1.Group("/products", d.Auth.Authenticate)
	products.POST("", d.ProductHandler.Create,
		auth.RequireRoles("farmer"), auth.RequireVerified)
	products.PUT("/:id", d.ProductHandler.Update, auth.RequireRoles("farmer"))
	products.DELETE("/:id", d.ProductHandler.Delete, auth.RequireRoles("farmer"))

	orders := v1.Group("/orders", d.Auth.Authenticate)
	orders.POST("", d.OrderHandler.Create,
		auth.RequireRoles("buyer", "retailer"), auth.RequireVerified)
	orders.GET("/my-orders", d.OrderHandler.MyOrders)
	orders.GET("/:id", d.OrderHandler.Get)
	orders.PATCH("/:id/status", d.OrderHandler.UpdateStatus)
	orders.PATCH("/:id/payment", d.OrderHandler.UpdatePayment)
	orders.GET("/:id/contract", d.OrderHandler.GetContract)

	chat := v1.Group("/chat", d.Auth.Authenticate)
	chat.POST("/send", d.ChatHandler.Send, auth.RequireVerified)
	chat.GET("/conversation/:userId", d.ChatHandler.Conversation)
	chat.GET("/conversations", d.ChatHandler.Conversations)
	chat.PATCH("/mark-read", d.ChatHandler.MarkRead)
	chat.GET("/unread-count", d.ChatHandler.UnreadCount)

	ml := v1.Group("/ml", d.Auth.Authenticate)
	ml.POST("/predict-price", d.MLHandler.PredictPrice)
	ml.GET("/recommendations", d.MLHandler.Recommendations)
	ml.GET("/predictions/:cropId", d.MLHandler.Predictions)
	ml.GET("/price-history/:cropId", d.MLHandler.PriceHistory)
	ml.GET("/analytics", d.MLHandler.Analytics)

	admin := v1.Group("/admin", d.Auth.Authenticate, auth.RequireRoles("admin"))
	admin.GET("/dashboard", d.AdminHandler.Dashboard)
	admin.GET("/users", d.AdminHandler.ListUsers)
	admin.PATCH("/users/:id/status", d.AdminHandler.UpdateUserStatus)
	admin.GET("/orders", d.AdminHandler.ListOrders)
	admin.GET("/products", d.AdminHandler.ListProducts)
}
