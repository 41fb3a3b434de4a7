package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiHttp "github.com/cplounge/ranksync/internal/api/http"
	"github.com/cplounge/ranksync/internal/bot"
	"github.com/cplounge/ranksync/internal/cache"
	"github.com/cplounge/ranksync/internal/config"
	"github.com/cplounge/ranksync/internal/db"
	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/oracle"
	"github.com/cplounge/ranksync/internal/oracle/codechef"
	"github.com/cplounge/ranksync/internal/oracle/codeforces"
	"github.com/cplounge/ranksync/internal/queue/asynqserver"
	queueClient "github.com/cplounge/ranksync/internal/queue/client"
	"github.com/cplounge/ranksync/internal/repository"
	"github.com/cplounge/ranksync/internal/server"
	"github.com/cplounge/ranksync/internal/service"
	"github.com/cplounge/ranksync/internal/worker"
	"github.com/cplounge/ranksync/pkg/auth"
	"github.com/cplounge/ranksync/pkg/logger"
)

func main() {
	// Init cfg from environment variables
	cfg := config.MustLoad()

	// Dependencies
	appLogger := logger.SetupLogger(cfg.Env)

	appLogger.Infow("starting ranksync", "env", cfg.Env)
	appLogger.Debug("debug messages are enabled")

	// Init database
	dbMySQL, err := db.New(cfg.Database)
	if err != nil {
		appLogger.Errorw("mysql connect problem", "error", err)
		os.Exit(1)
	}
	defer func() {
		err = dbMySQL.Close()
		if err != nil {
			appLogger.Errorw("error when closing", "error", err)
		}
	}()
	appLogger.Info("mysql connection done")

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	if err := db.EnsureSchema(startupCtx, dbMySQL); err != nil {
		appLogger.Errorw("ensure schema failed", "error", err)
		os.Exit(1)
	}

	repos := repository.NewRepositories(dbMySQL)

	// Abandoned sessions from a previous run are never resumed; purge
	// them before any new session can begin.
	for _, identities := range []repository.Identities{repos.Codeforces, repos.Codechef} {
		if err := identities.PurgeUnverified(startupCtx); err != nil {
			appLogger.Errorw("purge unverified failed", "error", err)
			os.Exit(1)
		}
	}
	appLogger.Info("unverified identities purged")

	// Redis & oracle stats cache
	redisClient, err := cache.NewRedis(cfg.Cache)
	if err != nil {
		appLogger.Errorw("redis connect problem", "error", err)
		os.Exit(1)
	}
	statsCache := cache.NewStatsCache(redisClient, cfg.Oracle.CacheTTL)

	oracles := map[domain.Platform]oracle.Oracle{
		domain.PlatformCodeforces: codeforces.NewClient(cfg.Oracle),
		domain.PlatformCodechef:   codechef.NewClient(cfg.Oracle),
	}
	roles := map[domain.Platform]domain.RoleTable{
		domain.PlatformCodeforces: domain.DefaultRoleTable(domain.PlatformCodeforces),
		domain.PlatformCodechef:   domain.DefaultRoleTable(domain.PlatformCodechef),
	}

	// Discord connector; constructed before the services because it
	// is their Messenger and RoleBridge.
	discordBot, err := bot.New(cfg.Discord, appLogger)
	if err != nil {
		appLogger.Errorw("discord bot creation failed", "error", err)
		os.Exit(1)
	}

	tokenManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		appLogger.Errorw("auth manager creation err", "error", err)
		return
	}

	// Services, Workers & API Handlers
	services := service.NewServices(service.Deps{
		Logger:     appLogger,
		Config:     cfg,
		Repos:      repos,
		Oracles:    oracles,
		Roles:      roles,
		Messenger:  discordBot,
		RoleBridge: discordBot,
		StatsCache: statsCache,
	})
	discordBot.SetServices(services)

	workers := worker.NewWorkers(worker.Deps{Services: services})

	qClient := queueClient.New(asynqserver.RedisOptions(cfg.Cache))
	defer func() {
		if err := qClient.Close(); err != nil {
			appLogger.Errorw("queue client close failed", "error", err)
		}
	}()

	asynqSrv, asynqMux := asynqserver.New(cfg.Cache, workers)
	scheduler, err := asynqserver.NewScheduler(cfg.Cache, cfg.Reconcile.Interval)
	if err != nil {
		appLogger.Errorw("scheduler creation failed", "error", err)
		os.Exit(1)
	}

	if err := discordBot.Start(); err != nil {
		appLogger.Errorw("discord gateway open failed", "error", err)
		os.Exit(1)
	}
	appLogger.Info("discord bot started")

	// Reconciliation starts only once the connector reports ready.
	go func() {
		select {
		case <-discordBot.ReadyC():
		case <-time.After(2 * time.Minute):
			appLogger.Warn("discord ready timeout, starting reconciliation anyway")
		}
		if err := asynqSrv.Start(asynqMux); err != nil {
			appLogger.Errorw("asynq server start failed", "error", err)
			return
		}
		if err := scheduler.Start(); err != nil {
			appLogger.Errorw("asynq scheduler start failed", "error", err)
		}
	}()

	// HTTP Server
	handlers := apiHttp.NewHandlers(services, tokenManager, cfg, qClient)
	srv := server.NewServer(cfg, handlers.Init(cfg))
	go func() {
		if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
			appLogger.Errorw("error occurred while running http server", "error", err)
		}
	}()
	appLogger.Info("server started")

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	const timeout = 5 * time.Second

	ctx, shutdown := context.WithTimeout(context.Background(), timeout)
	defer shutdown()

	scheduler.Shutdown()
	asynqSrv.Shutdown()
	services.Verification.Close()

	if err := discordBot.Stop(); err != nil {
		appLogger.Errorw("failed to stop discord bot", "error", err)
	}

	if err := srv.Stop(ctx); err != nil {
		appLogger.Errorw("failed to stop server", "error", err)
	}

	appLogger.Info("app stopped")
}
