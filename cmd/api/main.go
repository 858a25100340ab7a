package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/shivam-0510/Banking-app/internal/adapter/handler"
	"github.com/shivam-0510/Banking-app/internal/adapter/middleware"
	"github.com/shivam-0510/Banking-app/internal/adapter/storage"
	"github.com/shivam-0510/Banking-app/internal/core/config"
	"github.com/shivam-0510/Banking-app/internal/core/idgen"
	"github.com/shivam-0510/Banking-app/internal/core/service"
)

func main() {
	cfg := config.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	dbPool, err := storage.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	if err := storage.Migrate(context.Background(), dbPool); err != nil {
		slog.Error("Schema migration failed", "error", err)
		os.Exit(1)
	}

	store := storage.NewPostgresStore(dbPool)
	ids := idgen.New()
	clock := service.SystemClock

	limits := service.NewLimitEvaluator(store, clock)
	accounts := service.NewAccountService(store, ids, clock)
	transactions := service.NewTransactionService(store, ids, limits, clock)

	accountHandler := &handler.AccountHandler{Accounts: accounts}
	transactionHandler := &handler.TransactionHandler{Transactions: transactions}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/v1")

	api.Post("/accounts", accountHandler.CreateAccount)
	api.Get("/accounts/:accountNumber", accountHandler.GetAccount)
	api.Patch("/accounts/:accountNumber/status", accountHandler.UpdateStatus)
	api.Get("/owners/:ownerId/accounts", accountHandler.GetOwnerAccounts)
	api.Get("/owners/:ownerId/balance", accountHandler.GetOwnerBalance)

	api.Post("/transactions/deposit", middleware.Idempotency(dbPool), transactionHandler.Deposit)
	api.Post("/transactions/withdraw", middleware.Idempotency(dbPool), transactionHandler.Withdraw)
	api.Post("/transactions/transfer", middleware.Idempotency(dbPool), transactionHandler.Transfer)
	api.Get("/transactions/:transactionId", transactionHandler.GetTransaction)
	api.Get("/accounts/:accountNumber/transactions",
		middleware.RequireOwner(accounts), transactionHandler.GetHistory)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("🚀 Server starting", "env", cfg.Env, "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server forced to shutdown", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	dbPool.Close()
	slog.Info("Server exited")
}
