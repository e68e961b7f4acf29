// @title Campus Portal API
// @version 1.0
// @description Academic administration portal for admins, professors and students.
// @description Every /api route except /auth/login requires the session and role cookies set by login.
// @host localhost:8090
// @BasePath /api
// @schemes http https
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"campus-portal/internal/adapter"
	"campus-portal/internal/apiclient"
	"campus-portal/internal/authz"
	"campus-portal/internal/cache"
	"campus-portal/internal/config"
	"campus-portal/internal/database"
	"campus-portal/internal/domain"
	"campus-portal/internal/handler"
	"campus-portal/internal/logger"
	"campus-portal/internal/middleware"
	"campus-portal/internal/repository"
	"campus-portal/internal/resource"
	"campus-portal/internal/service"
	"campus-portal/internal/session"
	"campus-portal/internal/upload"

	_ "campus-portal/cmd/portal/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	appLogger.Info("Successfully connected to Redis")

	// The audit log is optional; without a database entries are only logged.
	var db *sqlx.DB
	var auditRepo domain.AuditRepository
	if cfg.DB.Host != "" {
		db, err = database.NewSQLXOracleDB(cfg.GetDSN())
		if err != nil {
			appLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		auditRepo = repository.NewAuditRepository(db)
	} else {
		appLogger.Warn("No database configured, audit entries will only be logged")
	}

	notifications := service.NewNotificationService(cacheAdapter)
	client := apiclient.New(cfg.Backend, notifications)

	queries := cache.NewQueryCache(cacheAdapter, cfg.QueryCache)
	audit := service.NewAuditService(auditRepo)
	catalogs := service.NewCatalogs(client, queries, audit)

	sessions := session.NewManager(cfg.Session, session.RealClock())
	authService, err := service.NewAuthService(
		resource.NewAuthRouter(client),
		session.NewStore(cacheAdapter),
		sessions,
		notifications,
		audit,
		cfg,
	)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}

	grading := service.NewGradingService(
		resource.NewExamRouter(client),
		resource.NewStudentRouter(client),
		upload.NewChunker(cfg.Upload, ".zip"),
		upload.NewRegistry(cacheAdapter),
		queries,
		audit,
		notifications,
	)
	dashboard := service.NewDashboardService(catalogs, resource.NewProfessorRouter(client), grading, queries)
	transfers := service.NewTransferService(catalogs, audit, notifications)

	var dbPing func(ctx context.Context) error
	if db != nil {
		dbPing = func(ctx context.Context) error { return database.Ping(ctx, db) }
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: middleware.ErrorHandler(cfg.Session),
	})

	app.Use(requestid.New(requestid.Config{Header: apiclient.HeaderRequestID}))
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept," + apiclient.HeaderRequestID,
		ExposeHeaders:    middleware.HeaderSessionState + "," + middleware.HeaderSessionRemaining + "," + fiber.HeaderContentDisposition,
		AllowCredentials: true,
		MaxAge:           300,
	}))
	app.Use(recover.New())
	app.Use(middleware.Session(authService, cfg.Session, middleware.PassivePaths...))
	app.Use(middleware.Authorize(authz.NewAuthorizer(cfg.JWT.SecretKey), cfg.Session))

	app.Get("/swagger/*", swagger.HandlerDefault)

	handler.RegisterRoutes(app, handler.Routes{
		Auth:       handler.NewAuthHandler(authService, cfg),
		Session:    handler.NewSessionHandler(authService, notifications),
		Transfer:   handler.NewTransferHandler(transfers),
		Grading:    handler.NewGradingHandler(grading, ""),
		Dashboard:  handler.NewDashboardHandler(dashboard, audit),
		Health:     handler.NewHealthHandler(cacheAdapter, dbPing),
		Catalogs:   catalogs,
		Validation: middleware.NewValidationMiddleware(),
	})

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("backend", cfg.Backend.BaseURL))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Uploads already accepted keep running until they finish or the timeout hits.
	done := make(chan struct{})
	go func() {
		grading.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		appLogger.Warn("Background uploads still running at shutdown")
	}
	appLogger.Info("Server exited gracefully")
}
