package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dwaller/dicentis-bridge/internal/pkg/config"
	"github.com/dwaller/dicentis-bridge/internal/pkg/dicentis"
	"github.com/dwaller/dicentis-bridge/internal/pkg/history"
	"github.com/dwaller/dicentis-bridge/internal/pkg/history/migration"
	"github.com/dwaller/dicentis-bridge/internal/pkg/mqtt"
	"github.com/dwaller/dicentis-bridge/internal/pkg/server"
	"github.com/dwaller/dicentis-bridge/internal/pkg/surface"
)

// BridgeCommand is the main entry point for the bridge CLI command.
// It assembles configuration and starts all required services.
func BridgeCommand(ctx *cli.Context) error {
	cfg := &config.Config{
		DicentisCfg: &config.DicentisConfig{
			Host:         ctx.String("dicentis-host"),
			Username:     ctx.String("dicentis-username"),
			Password:     ctx.String("dicentis-password"),
			PollInterval: ctx.Duration("poll-interval"),
			Reconnect:    ctx.Bool("reconnect"),
			Verbose:      ctx.Bool("verbose"),
		},
		MqttCfg: &config.MqttConfig{
			Host:      ctx.String("mqtt-host"),
			Username:  ctx.String("mqtt-user"),
			Password:  ctx.String("mqtt-pass"),
			ClientID:  ctx.String("mqtt-client-id"),
			TopicRoot: ctx.String("mqtt-topic-root"),
		},
		APICfg: &config.APIConfig{
			Addr:         ctx.String("api-addr"),
			Secret:       ctx.String("api-secret"),
			Username:     ctx.String("api-username"),
			PasswordHash: ctx.String("api-password-hash"),
		},
		DatabaseURL: ctx.String("database-url"),
		Retention:   ctx.Duration("retention"),
		LogLevel:    ctx.String("log-level"),
	}

	return run(ctx.Context, cfg)
}

func run(ctx context.Context, cfg *config.Config) error {
	errorChan := make(chan error, 1000)
	var err error

	eg, ctx := errgroup.WithContext(ctx)
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if cfg.DicentisCfg.Verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	logger := zap.Must(logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)))
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	registry := surface.NewRegistry()
	engine := dicentis.New(cfg.DicentisCfg, registry, errorChan)

	var db *history.Database
	if cfg.DatabaseURL != "" {
		if err := migration.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		db = history.NewDatabase(conn)
		defer db.Close()
		if err := registry.Register("history", db); err != nil {
			return err
		}
		eg.Go(func() error {
			return cronCleanup(ctx, db, cfg.Retention, errorChan)
		})
	}

	if cfg.MqttCfg.Host != "" {
		mqttSvc := mqtt.NewFromConfig(cfg.MqttCfg, engine)
		if err := mqttSvc.Connect(); err != nil {
			return err
		}
		defer mqttSvc.Close()
		if err := registry.Register("mqtt", mqttSvc); err != nil {
			return err
		}
	}

	eg.Go(func() error {
		if err := engine.Start(ctx); err != nil {
			// configuration error: blocking, not retried.
			return err
		}
		<-ctx.Done()
		engine.Stop()
		return ctx.Err()
	})

	eg.Go(func() error {
		srv := &http.Server{
			Handler:      server.New(engine, db, cfg.APICfg).Router(),
			Addr:         cfg.APICfg.Addr,
			WriteTimeout: 15 * time.Second,
			ReadTimeout:  15 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		// handle any async errors from the engine
		for {
			select {
			case err := <-errorChan:
				if errors.Is(err, errCron) {
					logger.Error("cron error", zap.Error(err))
					return err
				}
				logger.Error("engine error", zap.Error(err))
			case <-ctx.Done():
				logger.Info("context done")
				return ctx.Err()
			}
		}
	})

	return eg.Wait()
}

var errCron = errors.New("cron error")

// cronCleanup prunes old history rows once a day.
func cronCleanup(ctx context.Context, db *history.Database, retention time.Duration, errChan chan error) error {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	if err := db.Cleanup(ctx, retention); err != nil {
		return err
	}

	c := cron.New()
	if _, err := c.AddFunc("0 3 * * *", func() {
		if err := db.Cleanup(context.Background(), retention); err != nil {
			zap.L().Error("error cleaning up history", zap.Error(err))
			errChan <- errCron
			return
		}
		zap.L().Debug("history retention cleanup complete")
	}); err != nil {
		return err
	}

	c.Start()
	<-ctx.Done()
	c.Stop()
	return ctx.Err()
}
