package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/rand"

	"github.com/Agrid-Dev/roomgym/internal/radiator"
	"github.com/Agrid-Dev/roomgym/internal/room"
)

// ActionCommand switches the valve setting from the given iteration on.
type ActionCommand struct {
	IterationNumber int
	Value           radiator.Action
}

// SimulateRoom steps a room for a number of iterations and writes its
// temperature curve, for eyeballing ramp and cooldown behavior.
func SimulateRoom(iterations int, filename string, commands []ActionCommand) error {
	cfg := room.DefaultConfig()
	cfg.AmbientTemperature = 5
	cfg.Step = 10 * time.Second
	cfg.RewardInterval = 5 * time.Minute
	cfg.Horizon = time.Duration(iterations) * cfg.Step
	cfg.ResetSpread = 0

	env, err := room.New(cfg, room.WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"Iteration", "Ambient", "Temperature", "Power", "Action", "ComfortLow", "ComfortHigh", "Reward"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	action := radiator.ActionOff
	for i := range iterations {
		for _, cmd := range commands {
			if cmd.IterationNumber == i+1 {
				action = cmd.Value
				break
			}
		}

		res, err := env.Step(action)
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		snapshot := env.Get()

		if err := writer.Write([]string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.2f", snapshot.AmbientTemperature),
			fmt.Sprintf("%.3f", snapshot.Temperature),
			fmt.Sprintf("%.4f", snapshot.RadiatorPower),
			snapshot.LastAction.String(),
			fmt.Sprintf("%.2f", snapshot.Comfort.Min),
			fmt.Sprintf("%.2f", snapshot.Comfort.Max),
			fmt.Sprintf("%.1f", res.Reward),
		}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
		if res.Done {
			break
		}
	}

	return nil
}

func main() {
	commands := []ActionCommand{
		{IterationNumber: 1, Value: radiator.ActionMax},
		{IterationNumber: 360, Value: 2},
		{IterationNumber: 720, Value: radiator.ActionOff},
	}
	if err := SimulateRoom(1080, "roomgym.csv", commands); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
