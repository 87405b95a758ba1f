package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/portfolio/internal/config"
	"github.com/Skotchmaster/portfolio/internal/events"
	"github.com/Skotchmaster/portfolio/internal/httpserver"
	"github.com/Skotchmaster/portfolio/internal/middleware/auth"
	"github.com/Skotchmaster/portfolio/internal/middleware/ratelimit"
	"github.com/Skotchmaster/portfolio/internal/migrations"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/internal/search"
	"github.com/Skotchmaster/portfolio/internal/service"
	"github.com/Skotchmaster/portfolio/internal/storage"
	"github.com/Skotchmaster/portfolio/internal/telemetry"
	"github.com/Skotchmaster/portfolio/pkg/db"
	"github.com/Skotchmaster/portfolio/pkg/logging"
	metricsmw "github.com/Skotchmaster/portfolio/pkg/middleware/metrics"
	"github.com/Skotchmaster/portfolio/pkg/tokens"
)

const serviceName = "portfolio-api"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(context.Background())
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel).With("service", serviceName)
	slog.SetDefault(log)
	ctx := logging.IntoContext(context.Background(), log)

	shutdownTracing, err := telemetry.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", "error", err)
		}
	}()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DB.Driver, cfg.DB.URL)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.Warn("db_close_failed", "error", err)
		}
	}()

	if cfg.DB.AutoMigrate {
		results, err := migrations.Up(ctx, gdb, log)
		if err != nil {
			return err
		}
		log.Info("migrations_applied", "count", len(results))
	}

	codec, err := tokens.NewCodec(tokens.Config{
		AccessSecret:  []byte(cfg.JWT.AccessSecret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers)
		log.Info("events_enabled", "brokers", cfg.Kafka.Brokers)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("events_close_failed", "error", err)
		}
	}()

	var index search.Indexer
	if cfg.ES.URL != "" {
		es, err := search.NewESIndexer(ctx, search.Config{
			URL:      cfg.ES.URL,
			User:     cfg.ES.User,
			Password: cfg.ES.Password,
			Index:    cfg.ES.Index,
		})
		if err != nil {
			log.Warn("search_index_unavailable", "error", err)
		} else {
			index = es
		}
	}

	var objects storage.ObjectStore
	if cfg.S3.Bucket != "" {
		s3, err := storage.NewS3Store(ctx, storage.Config{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			PublicURL:      cfg.S3.PublicURL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return err
		}
		objects = s3
	}

	r := repo.New(gdb)
	settings := &service.SettingsService{Store: r}
	if err := service.Seed(ctx, r, settings, service.SeedAdmin{
		Email:    cfg.Seed.AdminEmail,
		Password: cfg.Seed.AdminPassword,
		Name:     cfg.Seed.AdminName,
	}, cfg.BcryptCost); err != nil {
		return err
	}

	e := httpserver.New(&httpserver.Deps{
		Log:            log,
		Production:     cfg.IsProduction(),
		AllowedOrigins: cfg.AllowedOrigins,
		ServiceName:    serviceName,
		Tracing:        cfg.OTLPEndpoint != "",
		Metrics:        metricsmw.New("portfolio"),
		Limits:         rateLimits(cfg),
		MediaMaxBytes:  cfg.MediaMaxBytes,

		DB:             gdb,
		Guard:          auth.NewGuard(codec, r),
		Auth:           &service.AuthService{Users: r, Tokens: codec, Events: publisher, BcryptCost: cfg.BcryptCost},
		Projects:       &service.ProjectService{Store: r.Projects(), Index: index, Events: publisher},
		Posts:          &service.PostService{Store: r.Posts(), Index: index, Events: publisher},
		Certifications: &service.CertificationService{Store: r.Certifications(), Events: publisher},
		Experiments:    &service.ExperimentService{Store: r.Experiments(), Events: publisher},
		Offerings:      &service.OfferingService{Store: r.Offerings(), Events: publisher},
		Settings:       settings,
		Contact:        &service.ContactService{Store: r.Contacts(), Events: publisher},
		Media:          &service.MediaService{Store: r.Media(), Objects: objects, MaxBytes: cfg.MediaMaxBytes},
		Users:          &service.UserAdminService{Store: r.Users(), Users: r},
		Search:         &service.SearchService{Index: index, Posts: r.Posts(), Projects: r.Projects()},
	})
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	errCh := make(chan error, 1)
	go func() {
		log.Info("http_listen", "addr", cfg.Addr, "env", cfg.AppEnv)
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting_down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http_shutdown_failed", "error", err)
	}
	log.Info("shutdown_complete")
	return nil
}

// rateLimits maps the configured windows onto the three limiters. Only the
// auth limiter lets loopback through, and never in production.
func rateLimits(cfg config.Config) httpserver.Limits {
	return httpserver.Limits{
		General: ratelimit.Config{Name: "api", Max: cfg.Rate.Max, Window: cfg.Rate.Window},
		Auth: ratelimit.Config{
			Name:           "auth",
			Max:            cfg.Rate.AuthMax,
			Window:         cfg.Rate.AuthWindow,
			Message:        "Too many authentication attempts, please try again later.",
			BypassLoopback: cfg.Rate.BypassLocalhost && !cfg.IsProduction(),
		},
		Contact: ratelimit.Config{
			Name:    "contact",
			Max:     cfg.Rate.ContactMax,
			Window:  cfg.Rate.ContactWindow,
			Message: "Too many messages, please try again later.",
		},
	}
}
