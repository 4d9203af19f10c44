package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bouncer-system/internal/config"
	"bouncer-system/internal/database"
	"bouncer-system/internal/handlers"
	"bouncer-system/internal/kafka"
	"bouncer-system/internal/logger"
	"bouncer-system/internal/models"
	"bouncer-system/internal/redis"
	"bouncer-system/internal/services"
	"bouncer-system/internal/shopify"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	loadMerchant     = config.LoadMerchant
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	merchant *config.MerchantConfig
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	mux      *http.ServeMux
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting bouncer server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = app.consumer.Stop()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	_ = app.producer.Close()
	_ = app.redis.Close()
	_ = app.db.Close()
	app.log.Info("Server exited")
}

// buildApplication создает все зависимости (подменяемые в тестах).
// Невалидный merchant-конфиг — ошибка сборки: сервер не стартует
// с коридором торга, нарушающим маржу.
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)

	merchant, err := loadMerchant()
	if err != nil {
		return nil, fmt.Errorf("merchant config: %w", err)
	}

	db, err := dbConnect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	producer, err := newKafkaProducer(&cfg.Kafka, log)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	consumer, err := newKafkaConsumer(&cfg.Kafka, log)
	if err != nil {
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	// Без Shopify-кредов коды выпускаются локально и помечаются unconfirmed.
	var shopifyAPI services.ShopifyAPI
	if shopifyClient, err := shopify.New(&cfg.Shopify, log); err == nil {
		shopifyAPI = shopifyClient
	} else {
		log.WithError(err).Warn("Shopify not configured, discount codes will be simulated")
	}

	sessionStore := services.NewSessionStore(redisClient, log, &cfg.Session)
	negotiationService := services.NewNegotiationService(merchant, log)
	intentClassifier := services.NewKeywordIntentClassifier()
	traitDetector := services.NewTraitDetector(merchant)
	factCheckService := services.NewFactCheckService(&cfg.FactCheck, log)
	discountService := services.NewDiscountService(db, shopifyAPI, log, merchant)
	rateLimiter := services.NewRateLimiter(redisClient, log, &cfg.RateLimit)

	chatService := services.NewChatService(
		sessionStore,
		negotiationService,
		intentClassifier,
		traitDetector,
		discountService,
		factCheckService,
		producer,
		log,
		&cfg.Session,
	)

	chatHandler := handlers.NewChatHandler(chatService, log)
	negotiationsHandler := handlers.NewNegotiationsHandler(sessionStore, negotiationService, producer, log)
	offersHandler := handlers.NewOffersHandler(discountService, log)
	healthHandler := handlers.NewHealthHandler(db, redisClient, cfg.Kafka.Brokers, kafkaHealthCheck)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter, log, &cfg.RateLimit)

	registerEventHandlers(consumer, log)
	if err := consumer.Start(); err != nil {
		_ = consumer.Stop()
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer start: %w", err)
	}

	mux := setupRoutes(chatHandler, negotiationsHandler, offersHandler, healthHandler, rateLimitHandler, rateLimiter, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return &application{
		cfg:      cfg,
		merchant: merchant,
		log:      log,
		db:       db,
		redis:    redisClient,
		producer: producer,
		consumer: consumer,
		mux:      mux,
		server:   server,
	}, nil
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(chatHandler *handlers.ChatHandler, negotiationsHandler *handlers.NegotiationsHandler, offersHandler *handlers.OffersHandler, healthHandler *handlers.HealthHandler, rateLimitHandler *handlers.RateLimitHandler, rateLimiter *services.RateLimiter, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	applyAPI := func(h http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(handlers.RateLimitMiddleware(rateLimiter, log, h))
	}

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(healthHandler.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(healthHandler.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(healthHandler.Liveness))

	// Chat endpoint
	mux.HandleFunc("/api/chat", applyAPI(chatHandler.Chat))

	// Negotiation endpoints
	mux.HandleFunc("/api/negotiations/", applyAPI(negotiationsHandler.HandleNegotiation))

	// Offers endpoints
	mux.HandleFunc("/api/offers", applyAPI(offersHandler.ListOffers))

	// Rate limit status
	mux.HandleFunc("/api/rate-limit/status", applyAPI(rateLimitHandler.Status))

	return mux
}

// registerEventHandlers регистрирует обработчики событий Kafka
func registerEventHandlers(consumer *kafka.Consumer, log *logger.Logger) {
	consumer.RegisterHandler(models.EventTypeCodeIssued, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing code issued event")
		// Здесь можно добавить уведомление магазина о выданном коде
		return nil
	})

	consumer.RegisterHandler(models.EventTypeNegotiationFinalized, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing negotiation finalized event")
		// Здесь можно добавить обновление статистики торгов
		return nil
	})
}

// corsMiddleware и другие helper функции
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
