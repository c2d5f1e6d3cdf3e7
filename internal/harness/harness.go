// Package harness drives environments through episodes: it owns the
// environment, the policy and the recorders for the duration of a run.
package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Agrid-Dev/roomgym/internal/ports"
)

type Harness struct {
	env    ports.RoomService
	policy Policy
	rec    Recorder
	log    *slog.Logger
}

func New(env ports.RoomService, policy Policy, rec Recorder, log *slog.Logger) *Harness {
	if rec == nil {
		rec = Recorders{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Harness{env: env, policy: policy, rec: rec, log: log}
}

// RunEpisode resets the environment and steps it until done. Cancellation is
// checked between steps.
func (h *Harness) RunEpisode(ctx context.Context) (Summary, error) {
	h.env.Reset()
	if r, ok := h.policy.(resetter); ok {
		r.Reset()
	}
	tr := newTracker(h.env.Get().Comfort)
	h.log.Info("episode started", "episode", tr.id, "temperature", h.env.Get().Temperature)

	for {
		if err := ctx.Err(); err != nil {
			return h.endEpisode(context.Background(), tr), err
		}
		action := h.policy.Act(h.env.Get())
		res, err := h.env.Step(action)
		if err != nil {
			return h.endEpisode(context.Background(), tr), fmt.Errorf("step %d: %w", len(tr.temps)+1, err)
		}
		tr.add(res)
		if err := h.rec.Record(ctx, Step{EpisodeID: tr.id, Action: action, Result: res, State: h.env.Get()}); err != nil {
			h.log.Warn("record step failed", "episode", tr.id, "err", err)
		}
		if res.Done {
			break
		}
	}
	return h.endEpisode(ctx, tr), nil
}

// endEpisode closes the episode with the recorders. An interrupted episode is
// still closed so that buffered traces are written out.
func (h *Harness) endEpisode(ctx context.Context, tr *tracker) Summary {
	sum := tr.summary()
	if err := h.rec.EndEpisode(ctx, sum); err != nil {
		h.log.Warn("record episode failed", "episode", tr.id, "err", err)
	}
	h.log.Info("episode finished", "episode", sum.EpisodeID, "steps", sum.Steps,
		"reward", sum.TotalReward, "mean_temperature", sum.MeanTemperature, "comfort_ratio", sum.ComfortRatio)
	return sum
}

// Run plays n episodes back to back.
func (h *Harness) Run(ctx context.Context, n int) ([]Summary, error) {
	if n < 1 {
		return nil, ErrNoEpisodes
	}
	out := make([]Summary, 0, n)
	for i := range n {
		sum, err := h.RunEpisode(ctx)
		if err != nil {
			return out, fmt.Errorf("episode %d: %w", i+1, err)
		}
		out = append(out, sum)
	}
	return out, nil
}
