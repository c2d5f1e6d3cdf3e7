package httpctrl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Agrid-Dev/roomgym/internal/ports"
	"github.com/Agrid-Dev/roomgym/internal/radiator"
	"github.com/Agrid-Dev/roomgym/internal/room"
)

type Server struct {
	svc      ports.RoomService
	srv      *http.Server
	deviceID string
}

// New returns a runnable server. metrics may be nil.
func New(svc ports.RoomService, addr string, deviceID string, metrics http.Handler) *Server {
	mux := http.NewServeMux()
	s := &Server{svc: svc, deviceID: deviceID}

	// Read
	mux.HandleFunc("GET /v1", s.handleGet)

	// Drive the episode
	mux.HandleFunc("POST /v1/step", s.handlePostStep)
	mux.HandleFunc("POST /v1/reset", s.handlePostReset)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// ---- DTOs ----

type snapshotDTO struct {
	DeviceID           string  `json:"device_id"`
	Temperature        float64 `json:"temperature"`
	AmbientTemperature float64 `json:"ambient_temperature"`
	RadiatorPower      float64 `json:"radiator_power"`
	LastAction         string  `json:"last_action"`
	ComfortLow         float64 `json:"comfort_low"`
	ComfortHigh        float64 `json:"comfort_high"`
	Volume             float64 `json:"volume"`
	Clock              int64   `json:"clock"`
	Steps              int     `json:"steps"`
	Done               bool    `json:"done"`
	EpisodeReward      float64 `json:"episode_reward"`
}

type stepDTO struct {
	Temperature float64        `json:"temperature"`
	Reward      float64        `json:"reward"`
	Done        bool           `json:"done"`
	Info        map[string]any `json:"info"`
}

func toDTO(s room.Snapshot) snapshotDTO {
	return snapshotDTO{
		Temperature:        s.Temperature,
		AmbientTemperature: s.AmbientTemperature,
		RadiatorPower:      s.RadiatorPower,
		LastAction:         s.LastAction.String(),
		ComfortLow:         s.Comfort.Min,
		ComfortHigh:        s.Comfort.Max,
		Volume:             s.Geometry.Volume(),
		Clock:              s.Clock,
		Steps:              s.Steps,
		Done:               s.Done,
		EpisodeReward:      s.EpisodeReward,
	}
}

// ---- Handlers ----

func (s *Server) handleGet(w http.ResponseWriter, _ *http.Request) {
	s.respondSnapshot(w)
}

func (s *Server) handlePostStep(w http.ResponseWriter, r *http.Request) {
	// body: {"value": 3}
	v, ok := decodeValue[int](w, r)
	if !ok {
		return
	}
	res, err := s.svc.Step(radiator.Action(v))
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, room.ErrEpisodeDone) {
			code = http.StatusConflict
		}
		writeErr(w, code, err.Error())
		return
	}
	info := res.Info
	if info == nil {
		info = map[string]any{}
	}
	writeJSON(w, http.StatusOK, stepDTO{
		Temperature: res.Temperature,
		Reward:      res.Reward,
		Done:        res.Done,
		Info:        info,
	})
}

func (s *Server) handlePostReset(w http.ResponseWriter, _ *http.Request) {
	s.svc.Reset()
	s.respondSnapshot(w)
}

// ---- generic helpers ----
func (s *Server) respondSnapshot(w http.ResponseWriter) {
	dto := toDTO(s.svc.Get())
	dto.DeviceID = s.deviceID
	writeJSON(w, http.StatusOK, dto)
}

func decodeValue[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var zero T
	dec := json.NewDecoder(r.Body)
	var req struct {
		Value *T `json:"value"`
	}
	if err := dec.Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return zero, false
	}
	if req.Value == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'value'")
		return zero, false
	}
	return *req.Value, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
