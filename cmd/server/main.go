package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"fittrack/backend/internal/api"
	"fittrack/backend/internal/config"
	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/repository"
	mongorepo "fittrack/backend/internal/repository/mongo"
	mysqlrepo "fittrack/backend/internal/repository/mysql"
	"fittrack/backend/internal/service"
	"fittrack/backend/internal/stats"
	"fittrack/backend/internal/storage"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load config")
	}
	mode, err := cfg.Storage.ParsedMode()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid storage mode")
	}
	logger.Info().Str("mode", string(mode)).Msg("starting fittrack server")

	// --- Store connections (per configured mode) ---
	var mongoDB *mongodriver.Database
	if mode.UsesMongo() {
		client, err := mongorepo.ConnectDB(cfg.Mongo.URI)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not connect to MongoDB")
		}
		defer func() {
			if err := mongorepo.DisconnectDB(client); err != nil {
				logger.Error().Err(err).Msg("failed to disconnect MongoDB")
			}
		}()
		mongoDB = client.Database(cfg.Mongo.Name)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			mongorepo.EnsureIndexes(ctx, mongoDB)
		}()
		logger.Info().Msg("MongoDB connection established")
	}

	var mysqlDB *gorm.DB
	if mode.UsesMySQL() {
		mysqlDB, err = mysqlrepo.ConnectDB(cfg.MySQL.DSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not connect to MySQL")
		}
		if err := mysqlrepo.AutoMigrate(mysqlDB); err != nil {
			logger.Fatal().Err(err).Msg("could not migrate MySQL schema")
		}
		logger.Info().Msg("MySQL connection established")
	}

	coordinator := dualstore.NewCoordinator(mode, logger)

	// --- Repositories ---
	// Repositories for inactive stores stay nil; the coordinator never
	// invokes the closure of a store the mode excludes.
	var (
		userMongo     repository.UserRepository
		userMySQL     repository.UserRepository
		progressMongo repository.ProgressRepository
		progressMySQL repository.ProgressRepository
		planMongo     repository.PlanRepository
		planMySQL     repository.PlanRepository
		analysisMongo repository.AnalysisRepository
		analysisMySQL repository.AnalysisRepository
	)
	if mode.UsesMongo() {
		userMongo = mongorepo.NewUserRepository(mongoDB)
		progressMongo = mongorepo.NewProgressRepository(mongoDB)
		planMongo = mongorepo.NewPlanRepository(mongoDB)
		analysisMongo = mongorepo.NewAnalysisRepository(mongoDB)
	}
	if mode.UsesMySQL() {
		userMySQL = mysqlrepo.NewUserRepository(mysqlDB)
		progressMySQL = mysqlrepo.NewProgressRepository(mysqlDB)
		planMySQL = mysqlrepo.NewPlanRepository(mysqlDB)
		analysisMySQL = mysqlrepo.NewAnalysisRepository(mysqlDB)
	}

	// --- Optional archive storage ---
	var archives storage.ArchiveStorage
	if cfg.S3.Enabled {
		archives, err = storage.NewS3Storage(cfg.S3, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not initialize S3 storage")
		}
		logger.Info().Str("bucket", cfg.S3.BucketName).Msg("archive storage enabled")
	}

	// --- External indicator providers ---
	healthProvider := stats.NewClient("health", cfg.Stats.HealthBaseURL, cfg.Stats.HealthAPIKey, cfg.Stats.CacheTTL, logger)
	economicProvider := stats.NewClient("economic", cfg.Stats.EconomicBaseURL, cfg.Stats.EconomicAPIKey, cfg.Stats.CacheTTL, logger)

	// --- Services ---
	authService := service.NewAuthService(coordinator, userMongo, userMySQL, cfg.JWT.Secret, cfg.JWT.Expiration, logger)
	userService := service.NewUserService(coordinator, userMongo, userMySQL, logger)
	progressService := service.NewProgressService(coordinator, progressMongo, progressMySQL, logger)
	planService := service.NewPlanService(coordinator, planMongo, planMySQL, archives, logger)
	analysisService := service.NewAnalysisService(coordinator, analysisMongo, analysisMySQL, healthProvider, economicProvider, archives, logger)

	router := gin.Default()
	api.SetupRoutes(router, mode, authService, userService, progressService, planService, analysisService, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server exited")
}
