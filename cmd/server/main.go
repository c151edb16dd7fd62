// Command server runs the GLPI dashboard API.
//
// @title       GLPI Dashboard API
// @version     1.0
// @description Ticket metrics and technician ranking computed from a GLPI instance.
// @BasePath    /api
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
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/tbourn/glpi-dashboard-backend/docs"
	"github.com/tbourn/glpi-dashboard-backend/internal/cache"
	"github.com/tbourn/glpi-dashboard-backend/internal/config"
	"github.com/tbourn/glpi-dashboard-backend/internal/glpi"
	httpapi "github.com/tbourn/glpi-dashboard-backend/internal/http"
	"github.com/tbourn/glpi-dashboard-backend/internal/http/handlers"
	"github.com/tbourn/glpi-dashboard-backend/internal/observability"
	"github.com/tbourn/glpi-dashboard-backend/internal/repo"
	"github.com/tbourn/glpi-dashboard-backend/internal/services"
	"github.com/tbourn/glpi-dashboard-backend/internal/sysutil"
)

const (
	shutdownTimeout = 20 * time.Second
	// snapshotRetention keeps roughly a month of five-minute warm cycles.
	snapshotRetention = 9000
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment (missing is fine)")
	port := pflag.String("port", "", "listen port (overrides PORT)")
	warmNow := pflag.Bool("warm-now", false, "compute dashboard and ranking once before serving")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("file", *envFile).Msg("could not load env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}

	_, logOut := observability.NewLogger(cfg)
	defer logOut.Close()
	sysutil.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), sysutil.BuildVersion())
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	client, err := glpi.New(glpi.Config{
		BaseURL:        cfg.GLPI.BaseURL,
		AppToken:       cfg.GLPI.AppToken,
		UserToken:      cfg.GLPI.UserToken,
		AuthTimeout:    cfg.GLPI.AuthTimeout,
		RequestTimeout: cfg.GLPI.RequestTimeout,
		SessionTimeout: cfg.GLPI.SessionTimeout,
		SlowRequest:    cfg.GLPI.SlowRequest,
		MaxRetries:     cfg.GLPI.MaxRetries,
		Backoff: glpi.Backoff{
			Initial:    cfg.GLPI.BackoffInitial,
			Multiplier: cfg.GLPI.BackoffMultiplier,
			Max:        cfg.GLPI.BackoffMax,
		},
		RateRPS:   cfg.GLPI.RateRPS,
		RateBurst: cfg.GLPI.RateBurst,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("glpi client")
	}

	var cacheOpts []cache.Option
	if cfg.Cache.RedisAddr != "" {
		rs := cache.NewRedisStore(cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		defer rs.Close()
		cacheOpts = append(cacheOpts, cache.WithShared(rs))
	}
	memo := cache.New(cacheOpts...)

	fields := glpi.NewFieldResolver(client, memo, cfg.Cache.FieldsTTL)

	names, err := config.LoadNameTable(cfg.Levels.NamesFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Levels.NamesFile).Msg("level name table")
	}
	groups := cfg.Levels.GroupIDs()
	counter := services.NewTicketCounter(client, fields, services.LevelMode(cfg.Levels.Selector), cfg.Levels.HierarchyField, groups)
	classifier := services.NewLevelClassifier(groups, names)

	dash := services.NewDashboardService(counter, memo)
	dash.Timeout = cfg.DashboardTimeout
	dash.TTL = cfg.Cache.DashboardTTL
	dash.RangeTTL = cfg.Cache.DashboardRangeTTL
	dash.FilteredTTL = cfg.Cache.DashboardFilteredTTL

	rank := services.NewRankingService(client, counter, classifier, memo, cfg.GLPI.TechnicianProfileID)
	rank.Workers = cfg.RankingWorkers
	rank.Timeout = cfg.RankingTimeout
	rank.TTL = cfg.Cache.RankingTTL
	rank.FilteredTTL = cfg.Cache.RankingFilteredTTL

	status := services.NewStatusService(client, fields, memo)

	var history *services.HistoryService
	var historyAPI handlers.HistoryService
	if cfg.SnapshotsEnabled {
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open snapshot database")
		}
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate snapshot database")
		}
		history = &services.HistoryService{DB: db, Keep: snapshotRetention}
		historyAPI = history
	}

	if status.EnsureAuthenticated(ctx) {
		log.Info().Msg("glpi session established")
	} else {
		log.Warn().Msg("glpi unreachable at startup; requests will retry authentication")
	}

	warmer := services.NewWarmer(dash, rank, history)
	if *warmNow {
		warmer.WarmNow(ctx)
	}
	if cfg.WarmSchedule != "" {
		if err := warmer.Start(cfg.WarmSchedule); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.WarmSchedule).Msg("cache warmer")
		}
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, handlers.New(dash, rank, status, historyAPI), cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	warmer.Stop(sctx)
	if err := client.Logout(sctx); err != nil {
		log.Warn().Err(err).Msg("glpi logout")
	}
	if err := shutdownOTel(sctx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("server exited")
}
