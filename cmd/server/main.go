package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/pricecheck/internal/config"
	"github.com/mamadbah2/pricecheck/internal/repository/mongodb"
	"github.com/mamadbah2/pricecheck/internal/repository/sheets"
	"github.com/mamadbah2/pricecheck/internal/scheduler"
	"github.com/mamadbah2/pricecheck/internal/server/handlers"
	"github.com/mamadbah2/pricecheck/internal/server/router"
	commandsvc "github.com/mamadbah2/pricecheck/internal/service/commands"
	"github.com/mamadbah2/pricecheck/internal/service/comparison"
	"github.com/mamadbah2/pricecheck/internal/service/export"
	"github.com/mamadbah2/pricecheck/internal/service/ranking"
	whatsappsvc "github.com/mamadbah2/pricecheck/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/pricecheck/pkg/clients/whatsapp"
	"github.com/mamadbah2/pricecheck/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	locale := cfg.Display.Language()
	formatter := ranking.NewFormatter(locale, cfg.Display.CurrencySymbol, cfg.Display.VolumeUnitLabel, cfg.Display.LiterUnitLabel)
	rankingEngine := ranking.NewEngine(locale, formatter)

	registry := comparison.NewRegistry(rankingEngine, comparison.Options{
		UndoWindow:         cfg.Session.UndoWindow,
		MaxAttachmentBytes: cfg.Session.MaxAttachmentBytes,
		Logger:             logger.Named(baseLogger, "svc.comparison"),
	})
	defer registry.Close()

	sinks := make(map[string]export.Sink)

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sinks["sheets"] = sheets.NewExportSink(sheetsRepo, cfg.Sheets.ExportRange)
	}

	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, cfg.MongoDB.Collection)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		sinks["mongodb"] = mongoRepo
	}

	var webhookHandler *handlers.WebhookHandler
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		if cfg.WhatsApp.ShareTo != "" {
			sinks["whatsapp"] = whatsappsvc.NewShareSink(whatsClient, cfg.WhatsApp.ShareTo)
		}

		// Chat users cannot point at server files, so /attach stays disabled.
		commandDispatcher := commandsvc.NewService(formatter, sinks, nil, logger.Named(baseLogger, "svc.commands"))
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, registry, commandDispatcher, logger.Named(baseLogger, "svc.whatsapp"))
		webhookHandler = handlers.NewWebhookHandler(messagingSvc, logger.Named(baseLogger, "handlers.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp credentials missing, webhook disabled")
	}

	for name := range sinks {
		baseLogger.Info("export sink enabled", zap.String("sink", name))
	}

	comparisonHandler := handlers.NewComparisonHandler(registry, sinks, cfg.Session.MaxAttachmentBytes, logger.Named(baseLogger, "handlers.comparison"))
	engine := router.New(cfg.Server, comparisonHandler, webhookHandler, logger.Named(baseLogger, "router"))

	sched := scheduler.NewScheduler(cfg.Session, registry, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
