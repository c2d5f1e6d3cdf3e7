package harness

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agrid-Dev/roomgym/internal/radiator"
	"github.com/Agrid-Dev/roomgym/internal/room"
)

type fixedRand int

func (f fixedRand) Intn(int) int { return int(f) }

type spyRecorder struct {
	steps     []Step
	summaries []Summary
	err       error
}

func (s *spyRecorder) Record(_ context.Context, step Step) error {
	s.steps = append(s.steps, step)
	return s.err
}

func (s *spyRecorder) EndEpisode(_ context.Context, summary Summary) error {
	s.summaries = append(s.summaries, summary)
	return s.err
}

// ten one-minute steps, scored every four minutes
func newShortEnv(t *testing.T, ambientTemp float64) *room.Environment {
	t.Helper()
	cfg := room.DefaultConfig()
	cfg.Step = time.Minute
	cfg.RewardInterval = 4 * time.Minute
	cfg.Horizon = 10 * time.Minute
	cfg.AmbientTemperature = ambientTemp
	env, err := room.New(cfg, room.WithRand(fixedRand(3)))
	require.NoError(t, err)
	return env
}

func TestRunEpisode(t *testing.T) {
	env := newShortEnv(t, 0)
	rec := &spyRecorder{}
	h := New(env, Constant(radiator.ActionOff), rec, nil)

	sum, err := h.RunEpisode(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, sum.Steps)
	assert.Equal(t, 2, sum.ScoredIntervals)
	assert.NotEmpty(t, sum.EpisodeID)
	assert.Less(t, sum.MinTemperature, sum.MaxTemperature)
	assert.InDelta(t, env.Get().EpisodeReward, sum.TotalReward, 1e-12)
	assert.Equal(t, sum.MinTemperature, env.Get().Temperature, "cooling room ends at its minimum")

	require.Len(t, rec.steps, 10)
	require.Len(t, rec.summaries, 1)
	assert.Equal(t, sum, rec.summaries[0])
	for i, s := range rec.steps {
		assert.Equal(t, sum.EpisodeID, s.EpisodeID)
		assert.Equal(t, i+1, s.State.Steps)
	}
	assert.True(t, rec.steps[9].Result.Done)
}

func TestRunEpisodeRecorderErrorsAreNotFatal(t *testing.T) {
	env := newShortEnv(t, 0)
	rec := &spyRecorder{err: errors.New("boom")}
	h := New(env, Constant(radiator.ActionOff), rec, nil)

	sum, err := h.RunEpisode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, sum.Steps)
}

func TestRunEpisodeHonoursCancellation(t *testing.T) {
	env := newShortEnv(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := New(env, Constant(radiator.ActionOff), nil, nil)
	sum, err := h.RunEpisode(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sum.Steps)
}

// cancelAfter plays ActionOff and cancels its context on the n-th call.
type cancelAfter struct {
	n      int
	calls  int
	cancel context.CancelFunc
}

func (c *cancelAfter) Act(room.Snapshot) radiator.Action {
	c.calls++
	if c.calls == c.n {
		c.cancel()
	}
	return radiator.ActionOff
}

func TestRunEpisodeFlushesRecordersWhenCancelled(t *testing.T) {
	env := newShortEnv(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf bytes.Buffer
	spy := &spyRecorder{}
	h := New(env, &cancelAfter{n: 4, cancel: cancel}, Recorders{NewCSVRecorder(&buf), spy}, nil)

	sum, err := h.RunEpisode(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, sum.Steps)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5, "header plus one row per step")
	assert.Equal(t, "4", rows[4][1])
	assert.Equal(t, "false", rows[4][8])

	require.Len(t, spy.summaries, 1)
	assert.Equal(t, sum, spy.summaries[0])
}

func TestRunEpisodeEndsEpisodeOnStepError(t *testing.T) {
	env := newShortEnv(t, 0)
	spy := &spyRecorder{}
	h := New(env, badPolicy{}, spy, nil)

	_, err := h.RunEpisode(context.Background())
	assert.ErrorIs(t, err, radiator.ErrInvalidAction)
	require.Len(t, spy.summaries, 1)
	assert.Equal(t, 0, spy.summaries[0].Steps)
}

type badPolicy struct{}

func (badPolicy) Act(room.Snapshot) radiator.Action { return radiator.MaxAction + 1 }

func TestRunEpisodeStopsOnInvalidAction(t *testing.T) {
	env := newShortEnv(t, 0)
	h := New(env, badPolicy{}, nil, nil)

	_, err := h.RunEpisode(context.Background())
	assert.ErrorIs(t, err, radiator.ErrInvalidAction)
}

func TestRun(t *testing.T) {
	env := newShortEnv(t, 10)
	rec := &spyRecorder{}
	h := New(env, NewRandom(7), rec, nil)

	sums, err := h.Run(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, sums, 3)
	assert.Len(t, rec.steps, 30)
	assert.NotEqual(t, sums[0].EpisodeID, sums[1].EpisodeID)

	_, err = h.Run(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoEpisodes)
}

func TestCSVRecorder(t *testing.T) {
	env := newShortEnv(t, 0)
	var buf bytes.Buffer
	h := New(env, Constant(radiator.Action(3)), NewCSVRecorder(&buf), nil)

	_, err := h.RunEpisode(context.Background())
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 11)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "1", rows[1][1])
	assert.Equal(t, "60", rows[1][2])
	assert.Equal(t, "3", rows[1][3])
	assert.Equal(t, "true", rows[10][8])
}

func TestRecordersJoinErrors(t *testing.T) {
	ok := &spyRecorder{}
	bad := &spyRecorder{err: errors.New("boom")}
	rs := Recorders{ok, bad}

	err := rs.Record(context.Background(), Step{})
	assert.ErrorContains(t, err, "boom")
	assert.Len(t, ok.steps, 1)
	assert.Len(t, bad.steps, 1)

	assert.NoError(t, Recorders{ok}.EndEpisode(context.Background(), Summary{}))
}

func TestSummaryOfEmptyEpisode(t *testing.T) {
	sum := newTracker(room.DefaultConfig().Comfort).summary()
	assert.Equal(t, 0, sum.Steps)
	assert.Equal(t, 0.0, sum.ComfortRatio)
	assert.Contains(t, sum.String(), sum.EpisodeID)
}
