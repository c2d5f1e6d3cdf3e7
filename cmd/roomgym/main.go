package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Agrid-Dev/roomgym/cmd/app"
)

func main() {
	var configPath, mode string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file (.yaml/.yml/.json)")
	flag.StringVar(&mode, "mode", "serve", "run: drive episodes with the configured policy; serve: expose the room to external agents")
	flag.Parse()

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := app.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log = log.With("device_id", cfg.DeviceID)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch mode {
	case "run":
		err = runEpisodes(ctx, cfg, log)
	case "serve":
		err = serve(ctx, cfg, log)
	default:
		err = fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("roomgym exited", "err", err)
		os.Exit(1)
	}
}

// components are the recorders and servers shared by both modes.
type components struct {
	metrics *metricsServer
	closers []func() error
}

func (c *components) close(log *slog.Logger) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			log.Warn("close failed", "err", err)
		}
	}
}
