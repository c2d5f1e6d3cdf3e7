package ports

import (
	"github.com/Agrid-Dev/roomgym/internal/radiator"
	"github.com/Agrid-Dev/roomgym/internal/room"
)

// RoomService is the control-plane port used by controllers (HTTP/MQTT/etc)
// and by the episode harness.
type RoomService interface {
	Get() room.Snapshot
	Step(radiator.Action) (room.StepResult, error)
	Reset() float64
}
