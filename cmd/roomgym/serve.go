package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Agrid-Dev/roomgym/cmd/app"
	httpctrl "github.com/Agrid-Dev/roomgym/internal/controllers/http"
	modbusctrl "github.com/Agrid-Dev/roomgym/internal/controllers/modbus"
	mqttctrl "github.com/Agrid-Dev/roomgym/internal/controllers/mqtt"
	"github.com/Agrid-Dev/roomgym/internal/device"
	"github.com/Agrid-Dev/roomgym/internal/harness"
)

type runner interface {
	Run(ctx context.Context) error
}

func serve(ctx context.Context, cfg app.Config, log *slog.Logger) error {
	env, err := cfg.NewEnvironment(log)
	if err != nil {
		return err
	}
	dev := device.New(cfg.DeviceID, env)

	recs, comp, err := recorders(cfg, log)
	defer comp.close(log)
	if err != nil {
		return err
	}
	session := harness.NewSession(dev.Env, recs, log)

	var metricsHandler http.Handler
	if comp.metrics != nil {
		metricsHandler = comp.metrics.col.Handler()
		if !cfg.Controllers.HTTP.Enabled && comp.metrics.addr != "" {
			go comp.metrics.run(ctx, log)
		}
	}

	var runners []runner
	ctrls := cfg.Controllers
	if ctrls.HTTP.Enabled {
		runners = append(runners, httpctrl.New(session, ctrls.HTTP.Addr, dev.ID, metricsHandler))
		log.Info("http controller", "addr", ctrls.HTTP.Addr)
	}
	if ctrls.MQTT.Enabled {
		c, err := mqttctrl.New(session, mqttctrl.Config{
			DeviceID:        dev.ID,
			BrokerURL:       ctrls.MQTT.BrokerURL,
			ClientID:        ctrls.MQTT.ClientID,
			BaseTopic:       ctrls.MQTT.BaseTopic,
			QoS:             ctrls.MQTT.QoS,
			RetainSnapshot:  ctrls.MQTT.RetainSnapshot,
			PublishInterval: ctrls.MQTT.PublishInterval,
			Username:        ctrls.MQTT.Username,
			Password:        ctrls.MQTT.Password,
			Logger:          log,
		})
		if err != nil {
			return err
		}
		runners = append(runners, c)
		log.Info("mqtt controller", "broker", ctrls.MQTT.BrokerURL)
	}
	if ctrls.MODBUS.Enabled {
		c, err := modbusctrl.New(session, modbusctrl.Config{
			DeviceID: dev.ID,
			Addr:     ctrls.MODBUS.Addr,
			UnitID:   ctrls.MODBUS.UnitID,
			Logger:   log,
		})
		if err != nil {
			return err
		}
		runners = append(runners, c)
	}
	if len(runners) == 0 {
		return errors.New("no controller enabled")
	}

	// The first controller to fail stops the others.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, len(runners))
	for i, r := range runners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs[i] = err
				cancel()
			}
		}()
	}
	wg.Wait()

	// Close before the deferred recorder shutdown so the open episode is flushed.
	session.Close()
	log.Info("session closed", "episode_id", session.EpisodeID(), "steps", session.Get().Steps)
	return errors.Join(errs...)
}
