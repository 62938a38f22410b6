package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/whompratt/claans/internal/config"
	"github.com/whompratt/claans/internal/handlers"
	"github.com/whompratt/claans/internal/repository"
	"github.com/whompratt/claans/internal/service"
	"github.com/whompratt/claans/internal/service/bootstrap"
	"github.com/whompratt/claans/internal/service/credit"
	"github.com/whompratt/claans/internal/service/market"
	"github.com/whompratt/claans/internal/service/season"
	"github.com/whompratt/claans/internal/service/settlement"
	"github.com/whompratt/claans/internal/service/task"
	"github.com/whompratt/claans/internal/service/user"
	"github.com/whompratt/claans/pkg/database"
	"github.com/whompratt/claans/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env file not found: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	db, err := database.NewPostgresDB(database.Config{
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		Username: os.Getenv("POSTGRES_USERNAME"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  os.Getenv("DB_SSL"),
	}, logger)
	if err != nil {
		logger.Error("failed to initialize db", "error", err.Error())
		os.Exit(1)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal("Migration driver error:", err)
	}
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		logger.Error("migrate init error", slog.Any("error", err))
		os.Exit(1)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Error("migration error", slog.Any("error", err))
		os.Exit(1)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error occured on closing database connection", slog.Any("error", err))
		} else {
			logger.Info("Database connection closed gracefully")
		}
	}()

	dbInstance := database.NewDB(db)
	txManager, err := database.NewTransactionManager(db)
	if err != nil {
		logger.Error("error creating transaction manager", slog.Any("error", err))
		os.Exit(1)
	}

	game := config.LoadGame()

	userRepo := repository.NewUserRepository(dbInstance)
	taskRepo := repository.NewTaskRepository(dbInstance)
	recordRepo := repository.NewRecordRepository(dbInstance)
	companyRepo := repository.NewCompanyRepository(dbInstance)
	instrumentRepo := repository.NewInstrumentRepository(dbInstance)
	shareRepo := repository.NewShareRepository(dbInstance)
	portfolioRepo := repository.NewPortfolioRepository(dbInstance)
	transactionRepo := repository.NewTransactionRepository(dbInstance)
	seasonRepo := repository.NewSeasonRepository(dbInstance)

	seasonService := season.NewSeasonService(seasonRepo, logger)

	services := &service.Services{
		MarketService: market.NewMarketService(
			portfolioRepo, instrumentRepo, shareRepo, transactionRepo,
			companyRepo, recordRepo, seasonService, txManager, game, logger),
		SettlementService: settlement.NewSettlementService(
			companyRepo, instrumentRepo, shareRepo, portfolioRepo,
			recordRepo, transactionRepo, txManager, game, logger),
		CreditService: credit.NewCreditService(portfolioRepo, transactionRepo, txManager, logger),
		TaskService:   task.NewTaskService(taskRepo, recordRepo, userRepo, seasonService, txManager, logger),
		UserService:   user.NewUserService(userRepo, companyRepo, portfolioRepo, txManager, logger),
		SeasonService: seasonService,
		BootstrapService: bootstrap.NewBootstrapService(
			companyRepo, instrumentRepo, shareRepo, portfolioRepo,
			userRepo, txManager, game, logger),
	}

	if os.Getenv("INIT_MARKET") == "true" {
		logger.Info("initializing market")
		if err := services.BootstrapService.InitMarket(context.Background()); err != nil {
			logger.Error("market init failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	handlers := handlers.NewHandler(services, logger)

	srv := new(server.Server)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.Run(os.Getenv("SERVER_PORT"), handlers.InitRoutes()); err != nil {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-quit:
		logger.Info("Gracefully Shutting Down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error occured on server shutting down", slog.Any("error", err))
		}
		<-ctx.Done()

		logger.Info("Server stopped gracefully")
	case err := <-serverErrors:
		logger.Error("Error occured while running server", slog.Any("error", err))
		os.Exit(1)
	}
}
