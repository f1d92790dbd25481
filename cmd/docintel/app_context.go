package main

import (
	"context"

	"github.com/mysticBliss/doc-intelligence/internal/bus"
	"github.com/mysticBliss/doc-intelligence/internal/config"
	"github.com/mysticBliss/doc-intelligence/internal/dispatch"
	"github.com/mysticBliss/doc-intelligence/internal/engine"
	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
	"github.com/mysticBliss/doc-intelligence/internal/processor/ocr"
	"github.com/mysticBliss/doc-intelligence/internal/processor/pdfx"
	"github.com/mysticBliss/doc-intelligence/internal/processor/vlm"
	"github.com/mysticBliss/doc-intelligence/internal/procset"
	"github.com/mysticBliss/doc-intelligence/internal/service"
	"github.com/mysticBliss/doc-intelligence/internal/storage"
)

// appContext holds the wired application: settings, catalog, pipelines and
// the dispatcher everything is submitted through.
type appContext struct {
	settings   config.Settings
	log        *logger.Logger
	pipelines  *config.Store
	dispatcher *dispatch.Dispatcher
	broker     *dispatch.GoroutineBroker
	statusBus  bus.Bus
}

// buildApp loads settings and assembles the full processing stack. External
// backends are optional: archival and cross-process status delivery degrade
// to in-memory variants when unconfigured.
func buildApp(ctx context.Context, flags *rootFlags) (*appContext, error) {
	settings := config.DefaultSettings()
	if flags.settingsPath != "" {
		loaded, err := config.LoadSettings(flags.settingsPath)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}
	if flags.verbose {
		settings.LogLevel = "debug"
	}

	log, err := logger.New(logger.Options{
		Level:         settings.LogLevel,
		HumanReadable: settings.LogConsole,
	})
	if err != nil {
		return nil, err
	}

	backends := procset.Backends{Renderer: pdfx.NewFitzRenderer()}
	if settings.OCR.BaseURL != "" {
		backends.OCR = ocr.NewHTTPEngine(settings.OCR.BaseURL)
	}
	if settings.VLM.BaseURL != "" {
		backends.VLM = vlm.NewHTTPClient(settings.VLM.BaseURL)
	}

	registry := processor.NewRegistry(log)
	if err := procset.Register(registry, backends); err != nil {
		return nil, err
	}

	pipelines, err := config.LoadDir(settings.PipelineDir, log)
	if err != nil {
		return nil, err
	}

	var store storage.Store
	if settings.Storage.Endpoint != "" {
		store, err = storage.NewMinIO(ctx, storage.MinIOOptions{
			Endpoint:  settings.Storage.Endpoint,
			AccessKey: settings.Storage.AccessKey,
			SecretKey: settings.Storage.SecretKey,
			Bucket:    settings.Storage.Bucket,
			Secure:    settings.Storage.Secure,
		})
		if err != nil {
			return nil, err
		}
	}

	var statusBus bus.Bus = bus.NewMemory()
	if settings.Redis.Addr != "" {
		redisBus, err := bus.NewRedis(ctx, bus.RedisOptions{
			Addr:     settings.Redis.Addr,
			Password: settings.Redis.Password,
			DB:       settings.Redis.DB,
		}, log)
		if err != nil {
			return nil, err
		}
		statusBus = redisBus
	}

	jobs := dispatch.NewJobStore()
	eng := engine.New(registry, log).WithNotifier(jobs)
	orchestrator := service.New(eng, store, log)
	broker := dispatch.NewGoroutineBroker()
	dispatcher := dispatch.New(pipelines, orchestrator, jobs, statusBus, broker, log)

	return &appContext{
		settings:   settings,
		log:        log,
		pipelines:  pipelines,
		dispatcher: dispatcher,
		broker:     broker,
		statusBus:  statusBus,
	}, nil
}
