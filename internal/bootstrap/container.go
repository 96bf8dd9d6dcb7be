package bootstrap

import (
	"context"
	"log"
	"time"

	"stratos-backend/internal/config"
	"stratos-backend/internal/constant"
	"stratos-backend/internal/controller"
	"stratos-backend/internal/handler"
	"stratos-backend/internal/pkg/logger"
	"stratos-backend/internal/pkg/mailer"
	"stratos-backend/internal/repository/implementation"
	"stratos-backend/internal/repository/unitofwork"
	"stratos-backend/internal/service"
	"stratos-backend/internal/websocket"
	"stratos-backend/pkg/bus"
	"stratos-backend/pkg/dispatch"
	"stratos-backend/pkg/embedding"
	"stratos-backend/pkg/embedding/jina"
	"stratos-backend/pkg/llm/factory"
	"stratos-backend/pkg/scrape"
	"stratos-backend/pkg/search"

	pktNats "stratos-backend/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	OAuthController   controller.IOAuthController
	SessionController controller.ISessionController
	ReportController  controller.IReportController

	// Background plumbing (exposed for main.go lifecycle control)
	EventBus   *bus.EventBus
	Dispatcher *dispatch.Dispatcher

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Eventing
	watermillLogger := watermill.NewStdLogger(false, false)
	eventBus := bus.New(watermillLogger)

	retryPolicy := dispatch.RetryPolicy{
		MaxAttempts: cfg.Jobs.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Jobs.BackoffBaseSeconds) * time.Second,
		Multiplier:  2,
	}
	dispatcher, err := dispatch.New(retryPolicy, watermillLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize job dispatcher: %v", err)
	}

	// 3. AI providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		llmProviderKey(cfg),
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	searchProvider := search.NewSerpProvider(cfg.Keys.SerpApi)
	fetcher := scrape.NewHTTPFetcher()

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Pipeline services
	orchestratorService := service.NewOrchestratorService(uowFactory, eventBus, dispatcher, emailService, sysLogger)
	clarificationService := service.NewClarificationService(uowFactory, llmProvider, eventBus, sysLogger)
	outlineService := service.NewOutlineService(uowFactory, llmProvider, eventBus, sysLogger)
	researchService := service.NewResearchService(uowFactory, llmProvider, searchProvider, fetcher, eventBus, dispatcher, sysLogger)
	consumerService := service.NewConsumerService(uowFactory, embeddingProvider, sysLogger)

	dispatcher.Register(constant.JobClarification, clarificationService.Run)
	dispatcher.Register(constant.JobOutline, outlineService.Run)
	dispatcher.Register(constant.JobResearch, researchService.Run)
	dispatcher.Register(constant.JobEmbedEvidence, consumerService.Run)

	listenerService := service.NewListenerService(eventBus, orchestratorService, sysLogger)
	if err := listenerService.Listen(context.Background()); err != nil {
		log.Fatalf("[FATAL] Failed to start event listener: %v", err)
	}

	relayService := service.NewRelayService(eventBus, uowFactory, wsHub, natsPub, sysLogger)
	if err := relayService.Start(context.Background()); err != nil {
		log.Printf("[WARN] Failed to start event relay: %v", err)
	}

	authService := service.NewAuthService(uowFactory, natsPub)
	oauthService := service.NewOAuthService(uowFactory)
	reportService := service.NewReportService(uowFactory, embeddingProvider)

	// 6. Notification system
	notifRepo := implementation.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, natsSub, wsHub, wsLogger) // Hub implements NotificationDelivery

	if natsSub != nil {
		go notifService.Start()
	}

	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	return &Container{
		AuthController:    controller.NewAuthController(authService),
		OAuthController:   controller.NewOAuthController(oauthService),
		SessionController: controller.NewSessionController(orchestratorService),
		ReportController:  controller.NewReportController(reportService),

		EventBus:   eventBus,
		Dispatcher: dispatcher,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}

func llmProviderKey(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "huggingface" {
		return cfg.Keys.HuggingFace
	}
	return cfg.Keys.GoogleGemini
}
