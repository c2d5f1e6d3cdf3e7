package harness

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Agrid-Dev/roomgym/internal/ports"
	"github.com/Agrid-Dev/roomgym/internal/radiator"
	"github.com/Agrid-Dev/roomgym/internal/room"
)

// Session is a ports.RoomService for externally driven episodes: each step
// taken through a controller is recorded the same way Harness records its own.
type Session struct {
	mu    sync.Mutex
	env   ports.RoomService
	rec   Recorder
	log   *slog.Logger
	tr    *tracker
	ended bool
}

var _ ports.RoomService = (*Session)(nil)

func NewSession(env ports.RoomService, rec Recorder, log *slog.Logger) *Session {
	if rec == nil {
		rec = Recorders{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Session{env: env, rec: rec, log: log, tr: newTracker(env.Get().Comfort)}
}

func (s *Session) Get() room.Snapshot {
	return s.env.Get()
}

func (s *Session) Step(action radiator.Action) (room.StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.env.Step(action)
	if err != nil {
		return res, err
	}
	s.tr.add(res)
	ctx := context.Background()
	if err := s.rec.Record(ctx, Step{EpisodeID: s.tr.id, Action: action, Result: res, State: s.env.Get()}); err != nil {
		s.log.Warn("record step failed", "episode", s.tr.id, "err", err)
	}
	if res.Done {
		s.endEpisode(ctx)
	}
	return res, nil
}

func (s *Session) Reset() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tr.temps) > 0 {
		s.endEpisode(context.Background())
	}
	temp := s.env.Reset()
	s.tr = newTracker(s.env.Get().Comfort)
	s.ended = false
	s.log.Info("episode started", "episode", s.tr.id, "temperature", temp)
	return temp
}

// Close ends the episode in progress, if it has any steps, so recorders flush
// it. The underlying environment is left as is.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tr.temps) > 0 {
		s.endEpisode(context.Background())
	}
}

// EpisodeID identifies the episode in progress.
func (s *Session) EpisodeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr.id
}

func (s *Session) endEpisode(ctx context.Context) {
	if s.ended {
		return
	}
	s.ended = true
	sum := s.tr.summary()
	if err := s.rec.EndEpisode(ctx, sum); err != nil {
		s.log.Warn("record episode failed", "episode", sum.EpisodeID, "err", err)
	}
	s.log.Info("episode finished", "episode", sum.EpisodeID, "steps", sum.Steps, "reward", sum.TotalReward)
}
