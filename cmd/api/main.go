package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/splax/teamup/internal/app/migrate"
	httpx "github.com/splax/teamup/internal/http"
	"github.com/splax/teamup/internal/repository"
	"github.com/splax/teamup/internal/repository/memory"
	"github.com/splax/teamup/internal/repository/postgres"
	"github.com/splax/teamup/internal/service/auth"
	"github.com/splax/teamup/internal/service/discovery"
	"github.com/splax/teamup/internal/service/event"
	"github.com/splax/teamup/internal/service/match"
	"github.com/splax/teamup/internal/service/membership"
	"github.com/splax/teamup/internal/service/team"
	"github.com/splax/teamup/internal/service/user"
	"github.com/splax/teamup/internal/ws"
	"github.com/splax/teamup/pkg/config"
	"github.com/splax/teamup/pkg/logger"
)

// repositories is the union of contracts both store backends satisfy.
type repositories interface {
	repository.UserRepository
	repository.ProfileRepository
	repository.EventRepository
	repository.TeamRepository
	repository.JoinRequestRepository
	repository.InvitationRepository
	repository.SwipeRepository
	repository.DiscoveryRepository
}

func main() {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		logger.New("api", slog.LevelInfo).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	log := logger.New("api", level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var dbHealth func(context.Context) error
	var repo repositories
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store; data is lost on restart")
		repo = memory.New()
	default:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		runner, err := migrate.New(pool, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("failed to configure migrations", "error", err)
			os.Exit(1)
		}
		defer runner.Close()
		if err := runner.Ping(ctx); err != nil {
			log.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		if err := runner.Ensure(ctx); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		repo = postgres.New(pool)
		dbHealth = pool.Ping
	}

	hub := ws.NewHub(log)
	defer hub.Close()

	services := httpx.Services{
		Auth:  auth.New(repo, log, cfg),
		Teams: team.New(repo, repo, repo, log),
		Membership: membership.New(membership.Repositories{
			Teams:       repo,
			Requests:    repo,
			Invitations: repo,
			Users:       repo,
		}, hub, log, cfg.InvitationTTL),
		Discovery: discovery.New(repo, repo, log, discovery.Limits{Default: cfg.DiscoveryDefaultLimit, Max: cfg.DiscoveryMaxLimit}),
		Matches:   match.New(repo, repo, hub, log),
		Users:     user.New(repo, repo, log),
		Events:    event.New(repo, log),
	}

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter.Close()
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, services, hub, limiter, dbHealth)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpx.WithCORS(router, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("api server starting", "addr", cfg.Addr, "store", cfg.Store, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("api server stopped")
}
