package harness

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Agrid-Dev/roomgym/internal/radiator"
	"github.com/Agrid-Dev/roomgym/internal/room"
)

// Step is one transition as seen by recorders. State is taken after the step.
type Step struct {
	EpisodeID string
	Action    radiator.Action
	Result    room.StepResult
	State     room.Snapshot
}

type Recorder interface {
	Record(ctx context.Context, step Step) error
	EndEpisode(ctx context.Context, summary Summary) error
}

// Recorders fans out to every recorder and joins their errors.
type Recorders []Recorder

func (rs Recorders) Record(ctx context.Context, step Step) error {
	var errs []error
	for _, r := range rs {
		errs = append(errs, r.Record(ctx, step))
	}
	return errors.Join(errs...)
}

func (rs Recorders) EndEpisode(ctx context.Context, summary Summary) error {
	var errs []error
	for _, r := range rs {
		errs = append(errs, r.EndEpisode(ctx, summary))
	}
	return errors.Join(errs...)
}

var csvHeader = []string{
	"episode", "step", "clock", "action", "temperature", "ambient", "power", "reward", "done",
}

// CSVRecorder writes one row per step.
type CSVRecorder struct {
	w           *csv.Writer
	wroteHeader bool
}

func NewCSVRecorder(w io.Writer) *CSVRecorder {
	return &CSVRecorder{w: csv.NewWriter(w)}
}

func (c *CSVRecorder) Record(_ context.Context, step Step) error {
	if !c.wroteHeader {
		if err := c.w.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		c.wroteHeader = true
	}
	s := step.State
	if err := c.w.Write([]string{
		step.EpisodeID,
		strconv.Itoa(s.Steps),
		strconv.FormatInt(s.Clock, 10),
		strconv.Itoa(int(step.Action)),
		fmt.Sprintf("%.4f", s.Temperature),
		fmt.Sprintf("%.2f", s.AmbientTemperature),
		fmt.Sprintf("%.4f", s.RadiatorPower),
		strconv.FormatFloat(step.Result.Reward, 'f', -1, 64),
		strconv.FormatBool(step.Result.Done),
	}); err != nil {
		return fmt.Errorf("failed to write CSV record: %w", err)
	}
	return nil
}

func (c *CSVRecorder) EndEpisode(context.Context, Summary) error {
	c.w.Flush()
	return c.w.Error()
}
