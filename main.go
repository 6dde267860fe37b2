// Package main provides the main entry point for the EcoTrace carbon tracking API
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecotrace/ecotrace/app/handlers"
	"github.com/ecotrace/ecotrace/app/middleware"
	"github.com/ecotrace/ecotrace/app/router"
	"github.com/ecotrace/ecotrace/app/services"
	businessflow "github.com/ecotrace/ecotrace/business_flow"
	"github.com/ecotrace/ecotrace/config"
	"github.com/ecotrace/ecotrace/models"
	"github.com/ecotrace/ecotrace/repository"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting EcoTrace application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	closeLogs, err := utils.SetupLogging(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLogs()

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeVisionService selects the bill extraction backend from configuration
func initializeVisionService(cfg config.ExtractionConfig) services.VisionService {
	switch cfg.Provider {
	case "mock":
		return services.NewMockVisionService("", "")
	default:
		return services.NewVisionClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout)
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Seed the global challenge and recommendation catalogs
	if err := ensureCatalogEntries(db); err != nil {
		return nil, err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	billRepo := repository.NewBillRepository(db)
	scoreRepo := repository.NewCarbonScoreRepository(db)
	budgetRepo := repository.NewCarbonBudgetRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	userChallengeRepo := repository.NewUserChallengeRepository(db)
	recommendationRepo := repository.NewRecommendationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	visionService := initializeVisionService(cfg.Extraction)
	pdfTextService := services.NewPDFTextService()

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	billFlow := businessflow.NewBillFlow(
		billRepo,
		userRepo,
		scoreRepo,
		auditRepo,
		cfg.Emission,
		db,
		rc,
	)

	extractionFlow := businessflow.NewExtractionFlow(
		visionService,
		pdfTextService,
		billFlow,
		auditRepo,
		db,
	)

	scoreFlow := businessflow.NewScoreFlow(
		scoreRepo,
		billRepo,
		userRepo,
		db,
		rc,
	)

	budgetFlow := businessflow.NewCarbonBudgetFlow(
		budgetRepo,
		scoreRepo,
		userRepo,
		auditRepo,
		db,
	)

	challengeFlow := businessflow.NewChallengeFlow(
		challengeRepo,
		userChallengeRepo,
		userRepo,
		auditRepo,
		db,
	)

	recommendationFlow := businessflow.NewRecommendationFlow(
		recommendationRepo,
		scoreRepo,
		userRepo,
		db,
		rc,
	)

	reportFlow := businessflow.NewReportFlow(
		billRepo,
		scoreRepo,
		userRepo,
		auditRepo,
		db,
	)

	// Initialize handlers
	billHandler := handlers.NewBillHandler(billFlow)
	extractionHandler := handlers.NewExtractionHandler(extractionFlow)
	carbonHandler := handlers.NewCarbonHandler(scoreFlow, budgetFlow)
	challengeHandler := handlers.NewChallengeHandler(challengeFlow)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationFlow)
	reportHandler := handlers.NewReportHandler(reportFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		cfg,
		authMiddleware,
		billHandler,
		extractionHandler,
		carbonHandler,
		challengeHandler,
		recommendationHandler,
		reportHandler,
	)

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

// ensureCatalogEntries seeds the global challenge and recommendation catalogs
// on first start. Existing catalogs are left untouched.
func ensureCatalogEntries(db *gorm.DB) error {
	challengeRepo := repository.NewChallengeRepository(db)
	recommendationRepo := repository.NewRecommendationRepository(db)

	count, err := challengeRepo.Count(context.Background(), models.ChallengeFilter{})
	if err != nil {
		return err
	}
	if count == 0 {
		if err := challengeRepo.SaveBatch(context.Background(), defaultChallenges()); err != nil {
			return fmt.Errorf("failed to seed challenge catalog: %w", err)
		}
		log.Println("Seeded default challenge catalog")
	}

	count, err = recommendationRepo.Count(context.Background(), models.RecommendationFilter{})
	if err != nil {
		return err
	}
	if count == 0 {
		if err := recommendationRepo.SaveBatch(context.Background(), defaultRecommendations()); err != nil {
			return fmt.Errorf("failed to seed recommendation catalog: %w", err)
		}
		log.Println("Seeded default recommendation catalog")
	}

	return nil
}

func defaultChallenges() []*models.Challenge {
	return []*models.Challenge{
		{
			Title:        "No-AC Week",
			Description:  "Keep the air conditioner off for seven days straight.",
			Category:     models.ChallengeCategoryEnergy,
			TargetSaving: 15,
			DurationDays: 7,
			Points:       50,
			IsActive:     utils.ToPtr(true),
		},
		{
			Title:        "Lights Out",
			Description:  "Switch off all lights in unoccupied rooms for a month.",
			Category:     models.ChallengeCategoryEnergy,
			TargetSaving: 8,
			DurationDays: 30,
			Points:       30,
			IsActive:     utils.ToPtr(true),
		},
		{
			Title:        "Cycle to Work",
			Description:  "Replace your daily commute with cycling for two weeks.",
			Category:     models.ChallengeCategoryTransport,
			TargetSaving: 24,
			DurationDays: 14,
			Points:       80,
			IsActive:     utils.ToPtr(true),
		},
		{
			Title:        "Public Transport Month",
			Description:  "Use only public transport for personal travel this month.",
			Category:     models.ChallengeCategoryTransport,
			TargetSaving: 45,
			DurationDays: 30,
			Points:       100,
			IsActive:     utils.ToPtr(true),
		},
		{
			Title:        "Meat-Free Week",
			Description:  "Skip meat for a full week.",
			Category:     models.ChallengeCategoryLifestyle,
			TargetSaving: 12,
			DurationDays: 7,
			Points:       40,
			IsActive:     utils.ToPtr(true),
		},
		{
			Title:        "Short Showers",
			Description:  "Keep every shower under five minutes for two weeks.",
			Category:     models.ChallengeCategoryWater,
			TargetSaving: 6,
			DurationDays: 14,
			Points:       25,
			IsActive:     utils.ToPtr(true),
		},
	}
}

func defaultRecommendations() []*models.Recommendation {
	return []*models.Recommendation{
		{
			Title:           "Switch to LED bulbs",
			Description:     "Replacing incandescent bulbs with LEDs cuts lighting energy use by up to 80%.",
			Category:        models.RecommendationCategoryEnergy,
			Impact:          models.RecommendationImpactMedium,
			PotentialSaving: 10,
			IsGlobal:        utils.ToPtr(true),
		},
		{
			Title:           "Raise AC setpoint to 24°C",
			Description:     "Each degree higher saves roughly 6% of cooling energy.",
			Category:        models.RecommendationCategoryEnergy,
			Impact:          models.RecommendationImpactHigh,
			PotentialSaving: 20,
			IsGlobal:        utils.ToPtr(true),
		},
		{
			Title:           "Run appliances on full loads",
			Description:     "Washing machines and dishwashers use nearly the same energy half-full.",
			Category:        models.RecommendationCategoryEnergy,
			Impact:          models.RecommendationImpactLow,
			PotentialSaving: 4,
			IsGlobal:        utils.ToPtr(true),
		},
		{
			Title:           "Carpool twice a week",
			Description:     "Sharing two commutes a week roughly halves those trips' fuel burn.",
			Category:        models.RecommendationCategoryTransport,
			Impact:          models.RecommendationImpactHigh,
			PotentialSaving: 18,
			IsGlobal:        utils.ToPtr(true),
		},
		{
			Title:           "Keep tyres inflated",
			Description:     "Correct tyre pressure improves fuel economy by around 3%.",
			Category:        models.RecommendationCategoryTransport,
			Impact:          models.RecommendationImpactLow,
			PotentialSaving: 3,
			IsGlobal:        utils.ToPtr(true),
		},
		{
			Title:           "Service the diesel engine",
			Description:     "A tuned engine and clean air filter reduce diesel consumption noticeably.",
			Category:        models.RecommendationCategoryTransport,
			Impact:          models.RecommendationImpactMedium,
			PotentialSaving: 8,
			IsGlobal:        utils.ToPtr(true),
		},
		{
			Title:           "Pressure-cook staples",
			Description:     "Pressure cooking uses up to 50% less LPG than open-pot boiling.",
			Category:        models.RecommendationCategoryEnergy,
			Impact:          models.RecommendationImpactMedium,
			PotentialSaving: 5,
			IsGlobal:        utils.ToPtr(true),
		},
		{
			Title:           "Fix dripping taps",
			Description:     "A single dripping tap wastes thousands of litres a year.",
			Category:        models.RecommendationCategoryWater,
			Impact:          models.RecommendationImpactLow,
			PotentialSaving: 2,
			IsGlobal:        utils.ToPtr(true),
		},
		{
			Title:           "Install aerators on taps",
			Description:     "Tap aerators cut water flow by up to 50% without losing pressure.",
			Category:        models.RecommendationCategoryWater,
			Impact:          models.RecommendationImpactMedium,
			PotentialSaving: 4,
			IsGlobal:        utils.ToPtr(true),
		},
		{
			Title:           "Insulate the water heater",
			Description:     "An insulated tank and pipes reduce gas heating losses.",
			Category:        models.RecommendationCategoryEnergy,
			Impact:          models.RecommendationImpactMedium,
			PotentialSaving: 6,
			IsGlobal:        utils.ToPtr(true),
		},
	}
}
