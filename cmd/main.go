package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pagemarkhq/pagemark-backend/internal/clients/gdrive"
	"github.com/pagemarkhq/pagemark-backend/internal/clients/redis"
	"github.com/pagemarkhq/pagemark-backend/internal/db"
	"github.com/pagemarkhq/pagemark-backend/internal/extraction"
	"github.com/pagemarkhq/pagemark-backend/internal/handlers"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/middleware"
	"github.com/pagemarkhq/pagemark-backend/internal/observability"
	"github.com/pagemarkhq/pagemark-backend/internal/repos"
	"github.com/pagemarkhq/pagemark-backend/internal/server"
	"github.com/pagemarkhq/pagemark-backend/internal/services"
	"github.com/pagemarkhq/pagemark-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Tracing
	ctx := context.Background()
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "pagemark-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Warn("OTel shutdown failed", "error", err)
			}
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	pdfFileRepo := repos.NewPdfFileRepo(thePG, log)
	annotationRepo := repos.NewAnnotationRepo(thePG, log)
	drawingRepo := repos.NewDrawingRepo(thePG, log)
	contentUnitRepo := repos.NewContentUnitRepo(thePG, log)
	if err := userTokenRepo.DeleteExpired(ctx, nil, time.Now()); err != nil {
		log.Warn("Expired token cleanup failed", "error", err)
	}

	// Clients
	log.Info("Setting up clients from main...")
	titleCache, err := redis.NewTitleCache(log)
	if err != nil {
		log.Warn("Could not init TitleCache (continuing without cache)", "error", err)
		titleCache = nil
	} else {
		defer titleCache.Close()
	}
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	extractor := extraction.NewPdfExtractor(log)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	indexService := services.NewIndexService(thePG, log, contentUnitRepo, annotationRepo, pdfFileRepo, bucketService, extractor)
	pdfService := services.NewPdfService(thePG, log, pdfFileRepo, annotationRepo, drawingRepo, contentUnitRepo, bucketService, titleCache)
	annotationService := services.NewAnnotationService(thePG, log, annotationRepo, pdfFileRepo, indexService)
	drawingService := services.NewDrawingService(thePG, log, drawingRepo, pdfFileRepo)
	searchService := services.NewSearchService(thePG, log, contentUnitRepo, pdfFileRepo, indexService, titleCache)

	var driveSyncService services.DriveSyncService
	driveClient, err := gdrive.NewDriveClient(ctx, log)
	if err != nil {
		log.Warn("Could not init DriveClient (drive sync disabled)", "error", err)
	} else {
		driveSyncService = services.NewDriveSyncService(thePG, log, pdfFileRepo, contentUnitRepo, bucketService, driveClient)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	pdfHandler := handlers.NewPdfHandler(log, pdfService)
	annotationHandler := handlers.NewAnnotationHandler(annotationService)
	drawingHandler := handlers.NewDrawingHandler(drawingService)
	searchHandler := handlers.NewSearchHandler(log, searchService, indexService)
	driveHandler := handlers.NewDriveHandler(log, driveSyncService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
		UserHandler:       userHandler,
		PdfHandler:        pdfHandler,
		AnnotationHandler: annotationHandler,
		DrawingHandler:    drawingHandler,
		SearchHandler:     searchHandler,
		DriveHandler:      driveHandler,
		TracingEnabled:    otelShutdown != nil,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
