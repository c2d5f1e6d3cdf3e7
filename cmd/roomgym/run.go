package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Agrid-Dev/roomgym/cmd/app"
	"github.com/Agrid-Dev/roomgym/internal/harness"
	"github.com/Agrid-Dev/roomgym/internal/metrics"
	"github.com/Agrid-Dev/roomgym/internal/telemetry"
)

// recorders builds every configured step sink.
func recorders(cfg app.Config, log *slog.Logger) (harness.Recorders, *components, error) {
	var recs harness.Recorders
	comp := &components{}

	if cfg.Harness.TraceFile != "" {
		f, err := os.Create(cfg.Harness.TraceFile)
		if err != nil {
			return nil, comp, fmt.Errorf("trace file: %w", err)
		}
		comp.closers = append(comp.closers, f.Close)
		recs = append(recs, harness.NewCSVRecorder(f))
		log.Info("writing trace", "file", cfg.Harness.TraceFile)
	}

	if cfg.Telemetry.Kafka.Enabled {
		w := telemetry.NewKafkaWriter(cfg.Telemetry.Kafka.Brokers, cfg.Telemetry.Kafka.Topic)
		kr := telemetry.NewKafkaRecorder(w, cfg.DeviceID, log)
		comp.closers = append(comp.closers, kr.Close)
		recs = append(recs, kr)
		log.Info("publishing steps to kafka", "brokers", cfg.Telemetry.Kafka.Brokers, "topic", cfg.Telemetry.Kafka.Topic)
	}

	if cfg.Metrics.Enabled {
		col := metrics.New(cfg.DeviceID)
		comp.metrics = &metricsServer{col: col, addr: cfg.Metrics.Addr}
		recs = append(recs, col)
	}
	return recs, comp, nil
}

func runEpisodes(ctx context.Context, cfg app.Config, log *slog.Logger) error {
	env, err := cfg.NewEnvironment(log)
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	recs, comp, err := recorders(cfg, log)
	defer comp.close(log)
	if err != nil {
		return err
	}
	if comp.metrics != nil && comp.metrics.addr != "" {
		go comp.metrics.run(ctx, log)
	}

	log.Info("running episodes", "episodes", cfg.Harness.Episodes, "policy", cfg.Harness.Policy)
	h := harness.New(env, policy, recs, log)
	summaries, err := h.Run(ctx, cfg.Harness.Episodes)
	for _, s := range summaries {
		log.Info("episode summary", "summary", s.String())
	}
	return err
}

type metricsServer struct {
	col  *metrics.Collector
	addr string
}

func (m *metricsServer) run(ctx context.Context, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.col.Handler())
	srv := &http.Server{Addr: m.addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", "addr", m.addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics server", "err", err)
	}
}
