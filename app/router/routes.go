// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ecotrace/ecotrace/app/dto"
	"github.com/ecotrace/ecotrace/app/handlers"
	"github.com/ecotrace/ecotrace/app/middleware"
	"github.com/ecotrace/ecotrace/config"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cache"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app                   *fiber.App
	cfg                   *config.ProductionConfig
	authMiddleware        *middleware.AuthMiddleware
	billHandler           handlers.BillHandlerInterface
	extractionHandler     handlers.ExtractionHandlerInterface
	carbonHandler         handlers.CarbonHandlerInterface
	challengeHandler      handlers.ChallengeHandlerInterface
	recommendationHandler handlers.RecommendationHandlerInterface
	reportHandler         handlers.ReportHandlerInterface
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	authMiddleware *middleware.AuthMiddleware,
	billHandler handlers.BillHandlerInterface,
	extractionHandler handlers.ExtractionHandlerInterface,
	carbonHandler handlers.CarbonHandlerInterface,
	challengeHandler handlers.ChallengeHandlerInterface,
	recommendationHandler handlers.RecommendationHandlerInterface,
	reportHandler handlers.ReportHandlerInterface,
) Router {
	// Configure Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "EcoTrace API",
		ServerHeader: "EcoTrace",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:                   app,
		cfg:                   cfg,
		authMiddleware:        authMiddleware,
		billHandler:           billHandler,
		extractionHandler:     extractionHandler,
		carbonHandler:         carbonHandler,
		challengeHandler:      challengeHandler,
		recommendationHandler: recommendationHandler,
		reportHandler:         reportHandler,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// API routes
	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// Prometheus metrics endpoint
	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// API documentation route (development only)
	if os.Getenv("APP_ENV") == "development" || os.Getenv("APP_ENV") == "local" {
		api.Get("/docs", r.getAPIDocumentation)
		log.Println("API documentation enabled for development")
	}

	// Apply general rate limiting to all API routes (aligned with nginx)
	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			// Skip rate limiting for health checks
			return c.Path() == "/api/v1/health"
		},
	}))

	// All domain routes require a valid access token
	authenticated := api.Group("", r.authMiddleware.Authenticate())

	// Bill routes
	bills := authenticated.Group("/bills")

	// Extraction endpoints call the vision provider, so they get a tighter limit
	extractionLimiter := limiter.New(limiter.Config{
		Max:        r.cfg.Security.AuthRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
	})

	bills.Post("/extract", r.extractionHandler.ExtractBill, extractionLimiter)
	bills.Post("/upload", r.extractionHandler.UploadBill, extractionLimiter)
	bills.Post("/", r.billHandler.CreateBill)
	bills.Get("/", r.billHandler.ListBills)
	bills.Get("/:uuid", r.billHandler.GetBill)
	bills.Put("/:uuid", r.billHandler.UpdateBill)
	bills.Delete("/:uuid", r.billHandler.DeleteBill)

	// Carbon score and budget routes
	carbon := authenticated.Group("/carbon")
	carbon.Get("/score", r.carbonHandler.GetScore)
	carbon.Get("/score/history", r.carbonHandler.GetScoreHistory)
	carbon.Get("/budget", r.carbonHandler.GetBudget)
	carbon.Put("/budget", r.carbonHandler.UpsertBudget)

	// Challenge routes
	challenges := authenticated.Group("/challenges")
	challenges.Get("/", r.challengeHandler.ListChallenges)
	challenges.Get("/mine", r.challengeHandler.ListUserChallenges)
	challenges.Post("/:id/join", r.challengeHandler.JoinChallenge)
	challenges.Put("/:id/progress", r.challengeHandler.UpdateProgress)
	challenges.Post("/:id/leave", r.challengeHandler.LeaveChallenge)

	// Recommendation routes
	authenticated.Get("/recommendations", r.recommendationHandler.ListRecommendations)

	// Report routes
	authenticated.Get("/reports/monthly", r.reportHandler.ExportMonthlyReport)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// SetupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             r.cfg.Security.XSSProtection,
		ContentTypeNosniff:        r.cfg.Security.XContentTypeOptions,
		XFrameOptions:             r.cfg.Security.XFrameOptions,
		HSTSMaxAge:                r.cfg.Security.HSTSMaxAge,
		HSTSExcludeSubdomains:     !r.cfg.Security.HSTSIncludeSubDoms,
		ContentSecurityPolicy:     r.cfg.Security.CSPPolicy,
		ReferrerPolicy:            r.cfg.Security.ReferrerPolicy,
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	// CORS middleware with production settings
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.cfg.Security.AllowedOrigins,
		AllowMethods: r.cfg.Security.AllowedMethods,
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"X-API-Key",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-Response-Time",
		},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           utils.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// Skip compression for binary downloads
			contentType := c.Get("Content-Type")
			return contains(contentType, "image/") ||
				contains(contentType, "application/pdf") ||
				contains(contentType, "application/octet-stream")
		},
	}))

	// Cache middleware for static content
	r.app.Use(cache.New(cache.Config{
		Next: func(c fiber.Ctx) bool {
			// Only cache GET requests to specific endpoints
			return c.Method() != "GET" ||
				!contains(c.Path(), "/health") &&
					!contains(c.Path(), "/docs")
		},
		// Cache-Control headers stay on (DisableCacheControl defaults to false)
		Expiration: 30 * time.Minute,
	}))

	// Advanced logging middleware
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for health checks in production
			return c.Path() == "/api/v1/health"
		},
	}))

	// Prometheus HTTP metrics
	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	// Custom security middleware
	r.app.Use(r.securityMiddleware)

	// API key validation middleware (optional)
	r.app.Use(r.apiKeyMiddleware)

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Log panic with request context
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Custom security middleware
func (r *FiberRouter) securityMiddleware(c fiber.Ctx) error {
	// Add security headers
	c.Set("X-Response-Time", utils.UTCNow().Format(time.RFC3339))
	c.Set("Server", "EcoTrace")

	// IP blacklist (if configured)
	clientIP := c.IP()
	for _, blockedIP := range r.cfg.Security.IPBlacklist {
		if clientIP == blockedIP {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "Access denied from this IP address",
				Error: dto.ErrorDetail{
					Code: "ACCESS_DENIED",
				},
			})
		}
	}

	// Continue to next middleware
	return c.Next()
}

// API key validation middleware
func (r *FiberRouter) apiKeyMiddleware(c fiber.Ctx) error {
	// Skip API key validation for certain endpoints
	if c.Path() == "/api/v1/health" || c.Path() == "/api/v1/docs" {
		return c.Next()
	}

	if r.cfg.Security.RequireAPIKey {
		apiKey := c.Get(r.cfg.Security.APIKeyHeader)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "API key is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_API_KEY",
				},
			})
		}

		isValid := false
		for _, validKey := range r.cfg.Security.AllowedAPIKeys {
			if apiKey == validKey {
				isValid = true
				break
			}
		}

		if !isValid {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid API key",
				Error: dto.ErrorDetail{
					Code: "INVALID_API_KEY",
				},
			})
		}
	}

	return c.Next()
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Deployment.Version,
			"service":   "ecotrace-api",
		},
	})
}

// API documentation endpoint
func (r *FiberRouter) getAPIDocumentation(c fiber.Ctx) error {
	docs := GetRouteDocumentation()
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "API documentation retrieved successfully",
		Data: fiber.Map{
			"title":       "EcoTrace API Documentation",
			"version":     r.cfg.Deployment.Version,
			"description": "Personal carbon footprint tracking API",
			"endpoints":   docs,
		},
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	// Default error code
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Log the error
	log.Printf("Error %d: %v", code, err)

	// Get RequestID for tracing
	requestID := c.Locals("requestid")

	// Return JSON error response
	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// Helper functions

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// contains checks if a string contains a substring
func contains(str, substr string) bool {
	return strings.Contains(str, substr)
}

// GetRouteDocumentation returns API documentation
func GetRouteDocumentation() []map[string]any {
	return []map[string]any{
		{
			"method":      "POST",
			"path":        "/api/v1/bills",
			"description": "Record a utility or fuel bill manually",
			"parameters": map[string]any{
				"type":         "string (required) - electricity|petrol|diesel|lpg|gas|water",
				"amount":       "number (optional) - Currency amount; units are estimated when omitted",
				"units":        "number (optional) - Consumption in the category's unit (kWh, liters, kg, kL)",
				"date":         "string (required) - Bill date, YYYY-MM-DD",
				"entry_method": "string (optional) - scanner|manual (default manual)",
				"provider":     "string (optional) - Billing provider name",
				"notes":        "string (optional) - Free-form notes",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/bills/extract",
			"description": "Analyze an uploaded bill image or PDF and return extracted fields",
			"parameters": map[string]any{
				"file": "file (required) - jpg/png/webp/pdf, max 10MB",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/bills/upload",
			"description": "Record a bill from an uploaded document, OCR text, or manual fields",
			"parameters": map[string]any{
				"file":     "file (optional) - jpg/png/webp/pdf, max 10MB",
				"type":     "string (optional) - electricity|petrol|diesel|lpg|gas|water",
				"ocr_text": "string (optional) - Client-side OCR text to parse instead of the document",
				"units":    "number (optional) - Consumed quantity, skips extraction (requires type)",
				"amount":   "number (optional) - Billed amount",
				"date":     "string (optional) - Bill date, YYYY-MM-DD",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/bills",
			"description": "List the authenticated user's bills with pagination and filters",
			"parameters": map[string]any{
				"page":      "number (optional) - Page number (default 1)",
				"page_size": "number (optional) - Items per page, max 100 (default 20)",
				"month":     "string (optional) - Filter by month, YYYY-MM",
				"type":      "string (optional) - Filter by bill type",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/carbon/score",
			"description": "Retrieve the carbon score, breakdown, and impact for a month",
			"parameters": map[string]any{
				"month": "string (optional) - Month key YYYY-MM (default current month)",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/carbon/score/history",
			"description": "Retrieve recent monthly carbon scores, newest first",
			"parameters": map[string]any{
				"months": "number (optional) - Months to return, max 36 (default 12)",
			},
		},
		{
			"method":      "PUT",
			"path":        "/api/v1/carbon/budget",
			"description": "Set or replace the emission target for a month",
			"parameters": map[string]any{
				"month":           "string (required) - Month key YYYY-MM",
				"target_emission": "number (required) - Target emission in kg CO2",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/challenges",
			"description": "List active challenges, optionally filtered by category",
			"parameters": map[string]any{
				"category": "string (optional) - energy|transport|lifestyle|water",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/recommendations",
			"description": "List emission-reduction suggestions prioritized by the user's footprint",
			"parameters": map[string]any{
				"month":    "string (optional) - Month key YYYY-MM (default current month)",
				"limit":    "number (optional) - Maximum suggestions (default 10)",
				"category": "string (optional) - energy|transport|lifestyle|water",
				"impact":   "string (optional) - high|medium|low",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/reports/monthly",
			"description": "Download the month's carbon report as an XLSX workbook",
			"parameters": map[string]any{
				"month": "string (optional) - Month key YYYY-MM (default current month)",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/health",
			"description": "Health check endpoint",
			"parameters":  map[string]any{},
		},
	}
}
