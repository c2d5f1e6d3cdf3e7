package testutil

import (
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/Agrid-Dev/roomgym/internal/radiator"
	"github.com/Agrid-Dev/roomgym/internal/room"
)

// FakeRoomService is a reusable fake implementing ports.RoomService.
// Put ONLY what multiple test packages need here.
type FakeRoomService struct {
	S room.Snapshot

	StepCalled bool
	StepArg    radiator.Action
	StepResult room.StepResult
	StepErr    error

	ResetCalled bool
	ResetTemp   float64
}

func NewFakeRoomService() *FakeRoomService {
	return &FakeRoomService{
		S: room.Snapshot{
			Temperature:        21,
			AmbientTemperature: 5,
			Comfort:            r1.Interval{Min: 19, Max: 25},
			Geometry:           room.Geometry{Length: 5, Width: 5, Height: 5},
		},
		ResetTemp: 22,
	}
}

func (f *FakeRoomService) Get() room.Snapshot { return f.S }

func (f *FakeRoomService) Step(a radiator.Action) (room.StepResult, error) {
	f.StepCalled = true
	f.StepArg = a
	if f.StepErr != nil {
		return room.StepResult{}, f.StepErr
	}
	f.S.LastAction = a
	f.S.Steps++
	if f.StepResult.Temperature != 0 {
		f.S.Temperature = f.StepResult.Temperature
	}
	f.S.Done = f.StepResult.Done
	return f.StepResult, nil
}

func (f *FakeRoomService) Reset() float64 {
	f.ResetCalled = true
	f.S.Temperature = f.ResetTemp
	f.S.Steps = 0
	f.S.Done = false
	return f.ResetTemp
}
