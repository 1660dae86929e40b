package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"self-checkout/cart"
	"self-checkout/checkout"
	"self-checkout/config"
	"self-checkout/consumers"
	"self-checkout/controllers"
	"self-checkout/database"
	"self-checkout/events"
	"self-checkout/middlewares"
	"self-checkout/rabbitmq"
)

func main() {
	// 加载配置
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据存储
	store, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Store initialization failed: %v", err)
	}

	ledger := cart.NewLedger(
		cart.NewStoreFinder(store, nil),
		cart.WithDefaultSession(cfg.DefaultSession),
		cart.WithSourceTag(cfg.SourceTag),
	)

	hub := events.NewHub()
	go hub.Run(ctx)
	publisher := events.Publisher(hub)

	checkoutOpts := []checkout.Option{checkout.WithTaxRate(cfg.TaxRate)}

	// 初始化RabbitMQ（可选）
	var rmq *rabbitmq.RabbitMQ
	if cfg.RabbitMQURL != "" {
		rmq, err = rabbitmq.NewRabbitMQ(cfg)
		if err != nil {
			log.Printf("RabbitMQ unavailable, continuing without it: %v", err)
		} else if err := rmq.SetupQueues(); err != nil {
			log.Printf("Failed to setup RabbitMQ queues, continuing without it: %v", err)
			rmq.Close()
			rmq = nil
		}
	}
	if rmq != nil {
		defer rmq.Close()
		publisher = events.Multi(hub, rmq)
		if cfg.PaymentExpiry > 0 && !rmq.DelaySupported() {
			log.Printf("PAYMENT_EXPIRY set but the delayed exchange is unavailable, payments will not expire")
		} else if cfg.PaymentExpiry > 0 {
			checkoutOpts = append(checkoutOpts, checkout.WithExpiry(rmq, cfg.PaymentExpiry))
		}
	}
	checkoutOpts = append(checkoutOpts, checkout.WithPublisher(publisher))
	svc := checkout.NewService(store, ledger, checkoutOpts...)

	// 启动消息消费者
	if rmq != nil {
		if err := consumers.StartPaymentConsumer(rmq.Channel, cfg, svc); err != nil {
			log.Printf("Payment consumer not started: %v", err)
		}
	}

	go ledger.RunCleanup(ctx, cfg.CleanupInterval, cfg.SessionMaxAge)
	middlewares.RegisterGauges(ledger.SessionCount, hub.ClientCount)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(middlewares.PrometheusMiddleware())

	// 暴露Prometheus指标端点
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	controllers.NewHandler(store, ledger, svc, publisher, hub).RegisterRoutes(r, cfg.JWTSecret)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Checkout service starting on port %s (store %s)", cfg.Port, store.Path())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	hub.Wait()
}
