package router

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/golightpay/internal/config"
	"github.com/polkiloo/golightpay/internal/server/http/handlers"
	"github.com/polkiloo/golightpay/internal/server/http/middleware"
)

// Params lists router dependencies.
type Params struct {
	fx.In

	Facade  handlers.StoreFacade
	Config  *config.Config
	Logger  *slog.Logger
	Metrics http.Handler
}

// Setup configures gin router with handlers and middleware. Forwarding
// headers are honoured only from Config.TrustedProxies.
func Setup(p Params) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	if err := engine.SetTrustedProxies(p.Config.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(p.Logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(p.Facade)
	orderHandler := handlers.NewOrderHandler(p.Facade)
	checkoutHandler := handlers.NewCheckoutHandler(p.Facade)
	pageHandler := handlers.NewPaymentPageHandler(p.Facade, p.Logger)
	webhookHandler := handlers.NewWebhookHandler(p.Facade, p.Logger)
	healthHandler := handlers.NewHealthHandler(p.Facade)

	engine.GET("/metrics", gin.WrapH(p.Metrics))
	engine.POST(config.WebhookPath, middleware.RateLimit(p.Config.WebhookRateLimit), webhookHandler.Receive)

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Check)

	shop := api.Group("/orders")
	shop.Use(middleware.AuthOptional(p.Facade))
	shop.POST("", orderHandler.Place)
	shop.POST("/:id/checkout", checkoutHandler.Checkout)

	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	userAuth := user.Group("")
	userAuth.Use(middleware.AuthRequired(p.Facade))
	userAuth.GET("/orders", orderHandler.List)
	userAuth.GET("/orders/:id/notes", orderHandler.Notes)

	checkout := engine.Group(p.Config.CheckoutPath)
	checkout.Use(middleware.AuthOptional(p.Facade))
	checkout.GET("", pageHandler.ByQuery)
	checkout.GET("/order-pay/:id/", pageHandler.ByPath)

	return engine, nil
}
