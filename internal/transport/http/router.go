package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/greenbasket/backend/internal/handlers"
	"github.com/greenbasket/backend/internal/handlers/cart"
	orderhandlers "github.com/greenbasket/backend/internal/handlers/order"
	svc "github.com/greenbasket/backend/internal/service"
)

type Deps struct {
	AuthHandler     *handlers.AuthHandler
	AddressHandler  *handlers.AddressHandler
	CategoryHandler *handlers.CategoryHandler
	ProductHandler  *handlers.ProductHandler
	SearchHandler   *handlers.SearchHandler
	CartHandler     *cart.CartHandler
	OrderHandler    *orderhandlers.OrderHandler
	Tokens          *svc.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api/v1")

	user := api.Group("/user")
	user.POST("/register", d.AuthHandler.Register)
	user.POST("/login", d.AuthHandler.Login)
	user.POST("/logout", d.AuthHandler.Logout)
	user.POST("/forgot-password", d.AuthHandler.ForgotPassword)
	user.POST("/verify-otp", d.AuthHandler.VerifyOTP)
	user.PUT("/reset-password", d.AuthHandler.ResetPassword)
	user.GET("/me", d.AuthHandler.Me, d.Tokens.RequireAuth)
	user.PUT("/update", d.AuthHandler.UpdateProfile, d.Tokens.RequireAuth)

	api.GET("/search", d.SearchHandler.Search)

	categories := api.Group("/category")
	categories.GET("", d.CategoryHandler.ListCategories)
	categories.GET("/sub", d.CategoryHandler.ListSubCategories)

	products := api.Group("/product")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	admin := api.Group("/admin", d.Tokens.RequireAdmin)
	admin.POST("/category", d.CategoryHandler.CreateCategory)
	admin.PUT("/category/:id", d.CategoryHandler.UpdateCategory)
	admin.DELETE("/category/:id", d.CategoryHandler.DeleteCategory)
	admin.POST("/subcategory", d.CategoryHandler.CreateSubCategory)
	admin.PUT("/subcategory/:id", d.CategoryHandler.UpdateSubCategory)
	admin.DELETE("/subcategory/:id", d.CategoryHandler.DeleteSubCategory)
	admin.POST("/product", d.ProductHandler.CreateProduct)
	admin.PUT("/product/:id", d.ProductHandler.UpdateProduct)
	admin.DELETE("/product/:id", d.ProductHandler.DeleteProduct)
	admin.GET("/order/all", d.OrderHandler.ListAllOrders)
	admin.PUT("/order/status/:orderId", d.OrderHandler.UpdateDeliveryStatus)

	address := api.Group("/address", d.Tokens.RequireAuth)
	address.POST("", d.AddressHandler.Create)
	address.GET("", d.AddressHandler.List)
	address.PUT("/:id", d.AddressHandler.Update)
	address.DELETE("/:id", d.AddressHandler.Disable)

	cartGroup := api.Group("/cart", d.Tokens.RequireAuth)
	cartGroup.GET("", d.CartHandler.GetCart)
	cartGroup.POST("", d.CartHandler.AddToCart)
	cartGroup.PUT("/:id", d.CartHandler.UpdateQuantity)
	cartGroup.DELETE("/clear", d.CartHandler.ClearCart)
	cartGroup.DELETE("/:id", d.CartHandler.RemoveItem)

	order := api.Group("/order", d.Tokens.RequireAuth)
	order.POST("/cash-on-delivery", d.OrderHandler.CashOnDelivery)
	order.POST("/checkout", d.OrderHandler.Checkout)
	order.POST("/save-payment", d.OrderHandler.SavePayment)
	order.POST("/initiate-razorpay-order", d.OrderHandler.InitiateRazorpayOrder)
	order.POST("/verify-razorpay-payment", d.OrderHandler.VerifyRazorpayPayment)
	order.GET("/list", d.OrderHandler.ListMyOrders)
}
