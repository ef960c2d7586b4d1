// Copyright 2026 The MotorMarket Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/motormarket/motormarket-auth/internal/audit"
	"github.com/motormarket/motormarket-auth/internal/config"
	"github.com/motormarket/motormarket-auth/internal/idp"
	"github.com/motormarket/motormarket-auth/internal/observability/logger"
	"github.com/motormarket/motormarket-auth/internal/observability/metrics"
	"github.com/motormarket/motormarket-auth/internal/observability/tracing"
	"github.com/motormarket/motormarket-auth/internal/store/postgres"
	"github.com/motormarket/motormarket-auth/internal/token"
	transportHTTP "github.com/motormarket/motormarket-auth/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting motormarket auth service")

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
		os.Exit(1)
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter and authorization counters
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
		os.Exit(1)
	}
	authMetrics, err := metrics.NewAuthMetrics(meter)
	if err != nil {
		slog.Error("failed to initialize auth metrics", logger.Error(err))
		os.Exit(1)
	}

	// Audit sink: Postgres when a database is configured, slog otherwise.
	var auditLogger audit.Logger = audit.NewSlogLogger()
	var auditReader transportHTTP.AuditReader
	if cfg.Database.Password != "" {
		db, err := postgres.New(ctx, postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			Database:     cfg.Database.Database,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			slog.Error("failed to connect to database", logger.Error(err))
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("connected to database")
		repo := postgres.NewAuditRepository(db)
		auditLogger = repo
		auditReader = repo
	}

	// Token verification against the two pools' JWKS
	verifier := token.NewVerifier(
		token.PoolConfig{
			Issuer:   cfg.CustomerPool.Issuer,
			ClientID: cfg.CustomerPool.ClientID,
			JWKSURL:  cfg.CustomerPool.JWKSURL,
		},
		token.PoolConfig{
			Issuer:   cfg.StaffPool.Issuer,
			ClientID: cfg.StaffPool.ClientID,
			JWKSURL:  cfg.StaffPool.JWKSURL,
		},
	)

	// Identity provider client
	idpClient := idp.NewHTTPClient(cfg.IDP.BaseURL)

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Authorization middleware and handlers
	authorizer := transportHTTP.NewAuthorizer(verifier, auditLogger, authMetrics, cfg.Session.StaffMaxSessionAge)
	handler := transportHTTP.NewHandler(idpClient, auditLogger, auditReader, cfg.CustomerPool.PoolID, cfg.StaffPool.PoolID)

	// Create router
	router := transportHTTP.NewRouter(handler, authorizer, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", logger.Error(err))
	}

	slog.Info("server stopped")
}
