package app

import (
	"context"
	"fmt"

	"habbit_backend/database"
	"habbit_backend/internal/ai"
	"habbit_backend/internal/config"
	"habbit_backend/internal/email"
	"habbit_backend/internal/handlers"
	"habbit_backend/internal/logger"
	"habbit_backend/internal/middleware"
	"habbit_backend/internal/payment"
	"habbit_backend/internal/repositories"
	"habbit_backend/internal/routes"
	"habbit_backend/internal/services"
	"habbit_backend/internal/validator"
	"habbit_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}
	logger.Info("Database connected and migrated")

	ginRouter := SetupRouter(cfg, gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := workers.NewSubscriptionWorker(repositories.NewSubscriptionRepository(gormDB))
	go worker.Run(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter builds the full dependency graph and returns the configured
// gin engine.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	paymentClient := payment.NewClient(payment.Config{
		APIKey:        cfg.Payment.APIKey,
		BaseURL:       cfg.Payment.BaseURL,
		WebhookSecret: cfg.Payment.WebhookSecret,
		FrontendURL:   cfg.Payment.FrontendURL,
	})

	serviceContainer := initializeServices(cfg, gormDB, paymentClient)
	appHandlers := initializeHandlers(serviceContainer, paymentClient)

	ginRouter := initializeGinRouter(cfg)
	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB, paymentClient *payment.Client) *services.ServiceContainer {
	userRepo := repositories.NewUserRepository(gormDB)
	correctionRepo := repositories.NewCorrectionRepository(gormDB)
	subscriptionRepo := repositories.NewSubscriptionRepository(gormDB)

	aiProvider := ai.NewOpenAIProvider(ai.OpenAIConfig{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
	})

	mailer, err := email.NewSMTPMailer(email.SMTPConfig{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		Username:    cfg.Email.SMTPUsername,
		Password:    cfg.Email.SMTPPassword,
		FromEmail:   cfg.Email.FromEmail,
		FromName:    cfg.Email.FromName,
		FrontendURL: cfg.Payment.FrontendURL,
	})
	if err != nil {
		logger.Fatal("Failed to initialize mailer", "error", err)
	}

	quotaService := services.NewQuotaService(correctionRepo)

	return &services.ServiceContainer{
		AuthService:       services.NewAuthService(userRepo),
		UserService:       services.NewUserService(userRepo),
		QuotaService:      quotaService,
		CorrectionService: services.NewCorrectionService(correctionRepo, userRepo, quotaService, aiProvider),
		BillingService:    services.NewBillingService(userRepo, subscriptionRepo, paymentClient, mailer),
	}
}

func initializeHandlers(serviceContainer *services.ServiceContainer, paymentClient *payment.Client) *handlers.AppHandlers {
	base := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		AuthHandler:       handlers.NewAuthHandler(base, serviceContainer.AuthService),
		UserHandler:       handlers.NewUserHandler(base, serviceContainer.UserService),
		CorrectionHandler: handlers.NewCorrectionHandler(base, serviceContainer.CorrectionService),
		PaymentHandler:    handlers.NewPaymentHandler(base, serviceContainer.BillingService, paymentClient),
	}
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ginRouter := gin.New()
	ginRouter.Use(middleware.RequestIDMiddleware())
	ginRouter.Use(middleware.LoggingMiddleware())
	ginRouter.Use(gin.Recovery())

	return ginRouter
}
