package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orderpulse/orderpulse/internal/api"
	"github.com/orderpulse/orderpulse/internal/config"
	"github.com/orderpulse/orderpulse/internal/engine"
	"github.com/orderpulse/orderpulse/internal/export"
	"github.com/orderpulse/orderpulse/internal/ingest"
	"github.com/orderpulse/orderpulse/internal/store"
	"github.com/orderpulse/orderpulse/internal/ws"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	cfgPath := flag.String("config", "configs/orderpulse.yaml", "Path to YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	// ── Order store ───────────────────────────────────────────────────────────
	var st store.Store
	switch cfg.Store.Backend {
	case "pebble":
		st, err = store.NewPebble(cfg.Store.Path)
		if err != nil {
			slog.Error("failed to open pebble store", "path", cfg.Store.Path, "err", err)
			os.Exit(1)
		}
	default:
		st = store.NewMemory()
	}
	slog.Info("store ready", "backend", cfg.Store.Backend, "records", st.Len())

	// ── Export sinks ──────────────────────────────────────────────────────────
	var sinks []export.Writer
	if cfg.Export.File != "" {
		fw, err := export.NewFileWriter(cfg.Export.File)
		if err != nil {
			slog.Error("failed to open export file", "path", cfg.Export.File, "err", err)
			os.Exit(1)
		}
		sinks = append(sinks, fw)
	}
	if cfg.Export.Kafka.Enabled {
		sinks = append(sinks, export.NewKafkaWriter(cfg.Export.Kafka.Brokers, cfg.Export.Kafka.Topic))
	}
	var exporter export.Writer
	switch len(sinks) {
	case 0:
	case 1:
		exporter = sinks[0]
	default:
		exporter = export.NewMultiWriter(sinks...)
	}

	// ── Engine and dashboard feed ─────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(st, exporter, cfg.Engine)
	hub := ws.New(eng.Last)
	eng.OnPass(hub.Broadcast)
	go hub.Run(ctx)
	go eng.Run(ctx)

	// ── Kafka ingest ──────────────────────────────────────────────────────────
	var consumer *ingest.Consumer
	if cfg.Ingest.Enabled {
		consumer, err = ingest.NewConsumer(cfg.Ingest, st)
		if err != nil {
			slog.Error("failed to start kafka consumer", "err", err)
			os.Exit(1)
		}
		go func() {
			if err := consumer.Run(ctx); err != nil {
				slog.Error("kafka consumer stopped", "err", err)
			}
		}()
		slog.Info("kafka ingest running", "topic", cfg.Ingest.Topic, "group", cfg.Ingest.GroupID)
	}

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		eng.SwapConfig(newCfg.Engine)
		slog.Info("engine config hot-reloaded", "workers", newCfg.Engine.Workers, "interval_sec", newCfg.Engine.PassIntervalSec)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	listen := cfg.Server.Addr
	if *addr != "" {
		listen = *addr
	}
	srv := &http.Server{
		Addr:         listen,
		Handler:      api.New(st, eng, hub),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop pass loop, hub and consumer
	if consumer != nil {
		_ = consumer.Close()
	}
	if exporter != nil {
		_ = exporter.Close()
	}
	_ = st.Close()
	slog.Info("goodbye")
}
