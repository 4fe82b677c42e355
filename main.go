package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"scavenger-hunt/auth"
	"scavenger-hunt/config"
	"scavenger-hunt/handlers"
	"scavenger-hunt/logging"
	"scavenger-hunt/services"
	"scavenger-hunt/store"
	"scavenger-hunt/store/gormstore"
	"scavenger-hunt/store/mongostore"
	"scavenger-hunt/utils"
)

func main() {
	cfg, foundDotEnv, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	if !foundDotEnv {
		log.Warn().Msg("⚠️  No .env file found, reading environment variables directly")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to connect to database")
	}
	if err := st.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	clock := clockwork.NewRealClock()

	checkpointService := services.NewCheckpointService(st, log)
	if err := checkpointService.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed checkpoints")
	}

	var uploader services.Uploader
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Uploader(ctx, utils.R2Options{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			AccessKeySecret: cfg.R2.AccessKeySecret,
			Bucket:          cfg.R2.Bucket,
			CDNBaseURL:      cfg.R2.CDNBaseURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize R2 client")
		}
		uploader = r2
	} else {
		log.Warn().Msg("⚠️  R2 not configured, claim report exports are disabled")
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.ExpiresIn)
	progressService := services.NewProgressService(st, clock, log, cfg.HintCredits, cfg.VoucherPrefix)
	gameService := services.NewGameService(st, progressService, clock, log, cfg.Session.MaxDuration)

	app := handlers.NewApp(handlers.Deps{
		Auth:           services.NewAuthService(st, tokens, services.NewSMSSender(cfg.SMS, log), clock, log, cfg.OTP),
		Game:           gameService,
		Progress:       progressService,
		Checkpoints:    checkpointService,
		Users:          services.NewUserService(st, progressService, log),
		Admin:          services.NewAdminService(st, clock, log, uploader),
		Log:            log,
		AdminAPIKey:    cfg.AdminAPIKey,
		CookieSecure:   cfg.CookieSecure,
		AllowedOrigins: cfg.AllowedOriginsHeader(),
		RateLimit:      cfg.RateLimit,
	})
	handlers.SetupClientRoutes(app, cfg.ClientDir, log)

	sched, err := gameService.StartExpiryScheduler(cfg.Session.SweepInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start session expiry scheduler")
	}

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Error().Err(err).Msg("Server error")
			stop()
		}
	}()

	log.Info().Str("addr", cfg.ListenAddr).Str("driver", cfg.Store.Driver).Msg("✅ Server running")
	log.Info().Dur("interval", cfg.Session.SweepInterval).Msg("✅ Session expiry scheduler running")
	log.Info().Str("origins", cfg.AllowedOriginsHeader()).Msg("✅ CORS configured")

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")
	shutdown(app.ShutdownWithTimeout, sched.Shutdown, st, log)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return gormstore.OpenPostgres(cfg.DatabaseURL)
	case config.DriverSQLite:
		return gormstore.OpenSQLite(cfg.DatabaseURL)
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return mongostore.Open(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func shutdown(stopHTTP func(time.Duration) error, stopScheduler func() error, st store.Store, log zerolog.Logger) {
	if err := stopHTTP(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	if err := stopScheduler(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown failed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Close(ctx); err != nil {
		log.Error().Err(err).Msg("store close failed")
	}
	log.Info().Msg("✅ Shutdown complete")
}
