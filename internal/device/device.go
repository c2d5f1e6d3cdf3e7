package device

import "github.com/Agrid-Dev/roomgym/internal/room"

// Device is a simulated room exposed under a stable identifier.
type Device struct {
	ID  string
	Env *room.Environment
}

func New(id string, env *room.Environment) *Device {
	return &Device{ID: id, Env: env}
}
