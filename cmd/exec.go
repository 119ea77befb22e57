package cmd

import (
	"log"
	"net/http"

	"festpass/config"
	"festpass/internal/handlers"
	"festpass/internal/notify"
	"festpass/internal/qr"
	"festpass/internal/ratelimit"
	"festpass/internal/services"
	"festpass/internal/services/gateway/cashfree"
	"festpass/internal/token"
	"festpass/monitoring"
	"festpass/utils"

	_ "festpass/migrations"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration; missing secrets are a startup error, never a
	// silent fallback.
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// Rate-limit counters live in redis when configured, otherwise in a
	// process-local map (single-instance deployments only).
	var redisClient *redis.Client
	var counterStore ratelimit.Store
	if cfg.RedisURL != "" {
		redisClient = utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()
		counterStore = ratelimit.NewRedisStore(redisClient)
	} else {
		log.Println("REDIS_URL not set, using in-memory rate limit store")
		counterStore = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.New(counterStore, int64(cfg.ScanRateLimit), cfg.ScanRateWindow)

	tokenCodec, err := token.New(cfg.QRSecretKey)
	if err != nil {
		log.Fatal(err)
	}
	qrCodec := qr.New(tokenCodec, cfg.QRTokenValidity)

	gateway := cashfree.NewClient(&cashfree.Config{
		BaseURL:   cfg.CashfreeBaseURL,
		AppID:     cfg.CashfreeAppID,
		SecretKey: cfg.CashfreeSecretKey,
		ReturnURL: cfg.CashfreeReturnURL,
		Timeout:   cfg.GatewayTimeout,
	})

	notifier := notify.New(cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, cfg.PubNubSecretKey)
	monitor := monitoring.NewMonitor()

	// Initialize services
	passService := services.NewPassService(app, qrCodec)
	checkinService := services.NewCheckinService(tokenCodec, passService)
	orderService := services.NewOrderService(app, gateway, passService, notifier, monitor, cfg.CashfreeWebhookSecret)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(app, orderService)
	webhookHandler := handlers.NewWebhookHandler(app, orderService)
	passHandler := handlers.NewPassHandler(app, passService, checkinService, qrCodec, limiter, notifier, monitor)
	adminHandler := handlers.NewAdminHandler(app)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Order endpoints
		e.Router.POST("/api/orders", orderHandler.CreateOrder)
		e.Router.POST("/api/orders/{orderId}/verify", orderHandler.VerifyOrder)

		// Gateway webhook
		e.Router.POST("/api/webhooks/payment", webhookHandler.PaymentWebhook)

		// Pass endpoints
		e.Router.GET("/api/passes/types", passHandler.PassTypes)
		e.Router.GET("/api/passes/qr", passHandler.GetPassQR)
		e.Router.POST("/api/passes/qr", passHandler.RenderQR)
		e.Router.POST("/api/passes/scan", passHandler.Scan)
		e.Router.POST("/api/passes/scan-member", passHandler.ScanMember)

		// Admin endpoints
		e.Router.GET("/api/admin/checkin-stats", adminHandler.CheckinStats)

		// Metrics
		if cfg.EnableMetrics {
			e.Router.GET("/metrics", func(e *core.RequestEvent) error {
				promhttp.Handler().ServeHTTP(e.Response, e.Request)
				return nil
			})
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if redisClient != nil {
				if err := utils.RedisHealthCheck(redisClient); err != nil {
					return e.JSON(http.StatusServiceUnavailable, map[string]string{
						"status": "unhealthy",
						"error":  err.Error(),
					})
				}
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	return app.Start()
}
