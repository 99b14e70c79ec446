package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/shieldgate/shieldgate/pkg/config"
	"github.com/shieldgate/shieldgate/pkg/modelcache"
	"github.com/shieldgate/shieldgate/pkg/resultcache"
	"github.com/shieldgate/shieldgate/pkg/security"
	"github.com/shieldgate/shieldgate/pkg/server"
	"github.com/shieldgate/shieldgate/pkg/version"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	info := version.GetInfo()
	logger.WithFields(logrus.Fields{
		"version":    info.Version,
		"go_version": info.GoVersion,
	}).Info("starting shieldgate")

	cfg, err := config.Load("./config")
	if err != nil {
		logger.WithError(err).Fatal("failed to load config")
	}

	cache, err := buildResultCache(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize result cache")
	}

	models := modelcache.New(cfg.Security.ONNXProviders, logger)
	service := security.NewService(cfg.Security, cache, models, logger)

	ctx := context.Background()
	if err := service.Initialize(ctx); err != nil {
		logger.WithError(err).Fatal("failed to initialize security service")
	}

	if !cfg.Security.LazyLoading {
		if elapsed, err := service.Warmup(ctx); err != nil {
			logger.WithError(err).Warn("warmup incomplete")
		} else {
			logger.WithField("warmup_seconds", elapsed).Info("scanners warmed up")
		}
	}

	srv := server.New(cfg.Server, service, logger)

	go func() {
		if err := srv.Listen(); err != nil {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
}

func buildResultCache(cfg *config.Config, logger *logrus.Logger) (resultcache.Client, error) {
	if cfg.Security.CacheBackend == "redis" {
		return resultcache.NewRedisClient(resultcache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS:      cfg.Redis.TLS,
		}, logger)
	}
	ttl := time.Duration(cfg.Security.CacheTTLSeconds) * time.Second
	return resultcache.NewMemoryClient(ttl), nil
}
