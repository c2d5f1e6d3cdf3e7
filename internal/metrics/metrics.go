// Package metrics exposes the simulated room as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Agrid-Dev/roomgym/internal/harness"
)

// Collector implements harness.Recorder on a private registry so that
// several devices can live in one process.
type Collector struct {
	reg *prometheus.Registry

	temperature   prometheus.Gauge
	ambient       prometheus.Gauge
	power         prometheus.Gauge
	reward        prometheus.Gauge
	steps         prometheus.Counter
	episodes      prometheus.Counter
	episodeReward prometheus.Gauge
	comfortRatio  prometheus.Gauge
}

var _ harness.Recorder = (*Collector)(nil)

func New(deviceID string) *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	labels := prometheus.Labels{"device_id": deviceID}

	return &Collector{
		reg: reg,
		temperature: f.NewGauge(prometheus.GaugeOpts{
			Name: "roomgym_zone_temperature_celsius", Help: "Simulated zone air temperature.", ConstLabels: labels,
		}),
		ambient: f.NewGauge(prometheus.GaugeOpts{
			Name: "roomgym_ambient_temperature_celsius", Help: "Outdoor temperature used by the last step.", ConstLabels: labels,
		}),
		power: f.NewGauge(prometheus.GaugeOpts{
			Name: "roomgym_radiator_power_ratio", Help: "Radiator power level between 0 and 1.", ConstLabels: labels,
		}),
		reward: f.NewGauge(prometheus.GaugeOpts{
			Name: "roomgym_last_reward", Help: "Reward of the last scored interval.", ConstLabels: labels,
		}),
		steps: f.NewCounter(prometheus.CounterOpts{
			Name: "roomgym_steps_total", Help: "Steps simulated.", ConstLabels: labels,
		}),
		episodes: f.NewCounter(prometheus.CounterOpts{
			Name: "roomgym_episodes_total", Help: "Episodes completed.", ConstLabels: labels,
		}),
		episodeReward: f.NewGauge(prometheus.GaugeOpts{
			Name: "roomgym_episode_reward", Help: "Total reward of the last completed episode.", ConstLabels: labels,
		}),
		comfortRatio: f.NewGauge(prometheus.GaugeOpts{
			Name: "roomgym_episode_comfort_ratio", Help: "Share of steps inside the comfort band in the last episode.", ConstLabels: labels,
		}),
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

func (c *Collector) Record(_ context.Context, step harness.Step) error {
	c.temperature.Set(step.State.Temperature)
	c.ambient.Set(step.State.AmbientTemperature)
	c.power.Set(step.State.RadiatorPower)
	if step.Result.Scored {
		c.reward.Set(step.Result.Reward)
	}
	c.steps.Inc()
	return nil
}

func (c *Collector) EndEpisode(_ context.Context, summary harness.Summary) error {
	c.episodes.Inc()
	c.episodeReward.Set(summary.TotalReward)
	c.comfortRatio.Set(summary.ComfortRatio)
	return nil
}
