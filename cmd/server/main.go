package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tmcgann/paymentsense-service/internal/adapters/hpp"
	"github.com/tmcgann/paymentsense-service/internal/adapters/postgres"
	"github.com/tmcgann/paymentsense-service/internal/adapters/psgw"
	"github.com/tmcgann/paymentsense-service/internal/adapters/secrets"
	"github.com/tmcgann/paymentsense-service/internal/config"
	"github.com/tmcgann/paymentsense-service/internal/domain"
	"github.com/tmcgann/paymentsense-service/internal/domain/ports"
	"github.com/tmcgann/paymentsense-service/internal/handlers/callback"
	"github.com/tmcgann/paymentsense-service/internal/services/payment"
	"github.com/tmcgann/paymentsense-service/internal/services/threedsecure"
	"github.com/tmcgann/paymentsense-service/pkg/observability"
)

func main() {
	// Load configuration from environment
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("Starting payment gateway service",
		zap.String("merchant_id", cfg.Gateway.MerchantID),
	)

	ctx := context.Background()

	// Secret store: Vault in deployed environments, env vars for local dev
	secretStore, err := initSecretStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize secret store", zap.Error(err))
	}

	password, err := secretStore.GetSecret(ctx, ports.SecretGatewayPassword)
	if err != nil {
		logger.Fatal("Failed to read gateway password", zap.Error(err))
	}
	preSharedKey, err := secretStore.GetSecret(ctx, ports.SecretPreSharedKey)
	if err != nil {
		logger.Fatal("Failed to read pre-shared key", zap.Error(err))
	}

	creds := domain.MerchantCredentials{
		MerchantID: cfg.Gateway.MerchantID,
		Password:   password,
	}

	algorithm, err := hpp.ParseAlgorithm(cfg.Gateway.HashMethod)
	if err != nil {
		logger.Fatal("Invalid hash method", zap.Error(err))
	}

	// Initialize database connection pool
	dbPool, err := initDatabase(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbPool.Close()

	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	// Gateway transport
	transportConfig := psgw.DefaultTransportConfig()
	if len(cfg.Gateway.Endpoints) > 0 {
		transportConfig.Endpoints = cfg.Gateway.Endpoints
	}
	transportConfig.MaxAttempts = cfg.Gateway.MaxAttempts
	transportConfig.Timeout = cfg.Gateway.RequestTimeout()

	httpClient := &http.Client{Timeout: cfg.Gateway.RequestTimeout() + 5*time.Second}
	gateway := psgw.NewTransport(transportConfig, creds, httpClient, logger)

	// Hosted payment form signing
	authenticator := hpp.NewAuthenticator(creds, algorithm, preSharedKey)
	formBuilder := hpp.NewFormBuilder(authenticator, cfg.Gateway.MerchantID, hpp.FormOptions{
		TransactionType:      domain.OperationSale,
		CallbackURL:          cfg.Hosted.CallbackURL,
		ServerResultURL:      cfg.Hosted.ServerResultURL,
		ResultDeliveryMethod: cfg.Hosted.ResultDeliveryMethod,
	})

	// Services
	records := postgres.NewTransactionRepository(dbPool)
	orders := postgres.NewOrderRepository(dbPool)
	flow := threedsecure.NewFlow(gateway, logger)
	service := payment.NewService(gateway, records, orders, flow, formBuilder, logger)

	// HTTP callback surface
	router := callback.NewRouter(
		callback.NewNotificationHandler(service, authenticator, cfg.Gateway.MerchantID, logger),
		callback.NewRedirectHandler(service, authenticator, logger),
		callback.NewACSHandler(service, logger),
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort))
	logger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	// Startup connectivity probe; a failure is logged, not fatal
	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if outcome, message, err := service.Probe(probeCtx); err != nil {
		logger.Warn("Gateway connectivity probe failed", zap.Error(err))
	} else {
		logger.Info("Gateway connectivity probe",
			zap.String("outcome", string(outcome)),
			zap.String("message", message),
		)
	}
	cancel()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("Metrics server shutdown failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

func initLogger(cfg config.LoggerConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func initSecretStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretStore, error) {
	if !cfg.Vault.Enabled {
		logger.Info("Using environment secret store")
		return secrets.NewEnvStore(), nil
	}

	vaultConfig := secrets.DefaultVaultConfig(cfg.Vault.Address)
	vaultConfig.AuthMethod = cfg.Vault.AuthMethod
	vaultConfig.Token = cfg.Vault.Token
	vaultConfig.RoleID = cfg.Vault.RoleID
	vaultConfig.SecretID = cfg.Vault.SecretID
	vaultConfig.MountPath = cfg.Vault.MountPath
	vaultConfig.PathPrefix = cfg.Vault.PathPrefix

	return secrets.NewVaultStore(ctx, vaultConfig, logger)
}

func initDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
