package modbusctrl

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	mbserver "github.com/tbrandon/mbserver"

	"github.com/Agrid-Dev/roomgym/internal/ports"
	"github.com/Agrid-Dev/roomgym/internal/radiator"
)

// Register map.
//
//	coil 0            done (read only)
//	coil 1            write ON to reset the episode, reads 0
//	holding reg 0     last action; writing it steps the environment
//	input reg 0       zone temperature x100
//	input reg 1       ambient temperature x100
//	input reg 2       radiator power x10000
//	input reg 3       last reward x100
const (
	coilDone  = 0
	coilReset = 1
	numCoils  = 2

	regAction      = 0
	numHoldingRegs = 1

	regTemperature = 0
	regAmbient     = 1
	regPower       = 2
	regReward      = 3
	numInputRegs   = 4
)

const (
	TemperatureScale = 100
	PowerScale       = 10000
	RewardScale      = 100
)

// Config for the Modbus controller.
type Config struct {
	DeviceID string
	Addr     string
	UnitID   byte // UnitID (Modbus slave/unit ID). Use an integer 1..247.
	Logger   *slog.Logger
}

type Controller struct {
	svc ports.RoomService
	cfg Config
	log *slog.Logger

	mu         sync.Mutex
	lastReward float64

	serv *mbserver.Server
}

func New(svc ports.RoomService, cfg Config) (*Controller, error) {
	if cfg.UnitID == 0 {
		return nil, errors.New("modbus: UnitID is required (non-zero)")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:1502"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{svc: svc, cfg: cfg, log: log.With("controller", "modbus")}, nil
}

// Run starts the Modbus server. Reads are served from the environment snapshot and writes
// are applied immediately. It blocks until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	serv := mbserver.NewServer()
	c.serv = serv

	// Register handlers before starting the TCP listener; mbserver reads the handler table
	// from its connection goroutines.
	serv.RegisterFunctionHandler(1, c.readCoils)
	serv.RegisterFunctionHandler(3, c.readHoldingRegisters)
	serv.RegisterFunctionHandler(4, c.readInputRegisters)
	serv.RegisterFunctionHandler(5, c.writeSingleCoil)
	serv.RegisterFunctionHandler(6, c.writeSingleRegister)
	serv.RegisterFunctionHandler(16, c.writeMultipleRegisters)

	if err := serv.ListenTCP(c.cfg.Addr); err != nil {
		return fmt.Errorf("mbserver listen tcp %s: %w", c.cfg.Addr, err)
	}
	c.log.Info("modbus listening", "addr", c.cfg.Addr, "unit_id", c.cfg.UnitID)

	<-ctx.Done()
	serv.Close()
	return ctx.Err()
}

// Read Coils (function 1).
func (c *Controller) readCoils(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, exc := readRange(frame.GetData(), 2000)
	if exc != nil {
		return []byte{}, exc
	}
	if start+qty > numCoils {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	snap := c.svc.Get()
	var bits byte
	for i := 0; i < qty; i++ {
		if start+i == coilDone && snap.Done {
			bits |= 1 << uint(i)
		}
	}
	// byte count + coil bytes
	return []byte{1, bits}, &mbserver.Success
}

// Read Holding Registers (function 3).
func (c *Controller) readHoldingRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, exc := readRange(frame.GetData(), 125)
	if exc != nil {
		return []byte{}, exc
	}
	if start+qty > numHoldingRegs {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	snap := c.svc.Get()
	return encodeRegisters([]uint16{uint16(snap.LastAction)}), &mbserver.Success
}

// Read Input Registers (function 4).
func (c *Controller) readInputRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, exc := readRange(frame.GetData(), 125)
	if exc != nil {
		return []byte{}, exc
	}
	if start+qty > numInputRegs {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	snap := c.svc.Get()
	c.mu.Lock()
	reward := c.lastReward
	c.mu.Unlock()

	all := [numInputRegs]uint16{
		regTemperature: encodeScaled(snap.Temperature, TemperatureScale),
		regAmbient:     encodeScaled(snap.AmbientTemperature, TemperatureScale),
		regPower:       encodeUnsigned(snap.RadiatorPower, PowerScale),
		regReward:      encodeScaled(reward, RewardScale),
	}
	return encodeRegisters(all[start : start+qty]), &mbserver.Success
}

// Write Single Coil (function 5).
func (c *Controller) writeSingleCoil(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])

	if addr != coilReset {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	switch value {
	case 0x0000:
	case 0xFF00:
		temp := c.svc.Reset()
		c.mu.Lock()
		c.lastReward = 0
		c.mu.Unlock()
		c.log.Info("episode reset", "temperature", temp)
	default:
		return []byte{}, &mbserver.IllegalDataValue
	}

	// echo request (address + value)
	resp := make([]byte, 4)
	copy(resp, data[0:4])
	return resp, &mbserver.Success
}

// Write Single Register (function 6).
func (c *Controller) writeSingleRegister(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])

	if addr != regAction {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	if exc := c.step(value); exc != nil {
		return []byte{}, exc
	}

	resp := make([]byte, 4)
	copy(resp, data[0:4])
	return resp, &mbserver.Success
}

// Write Multiple Registers (function 16). Each value written to register 0 is one step.
func (c *Controller) writeMultipleRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	d := frame.GetData()
	if len(d) < 5 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	start := binary.BigEndian.Uint16(d[0:2])
	quantity := binary.BigEndian.Uint16(d[2:4])
	byteCount := int(d[4])
	if byteCount != int(quantity)*2 || len(d) < 5+byteCount {
		return []byte{}, &mbserver.IllegalDataValue
	}
	if int(start)+int(quantity) > numHoldingRegs {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	for i := 0; i < int(quantity); i++ {
		val := binary.BigEndian.Uint16(d[5+i*2 : 5+i*2+2])
		if exc := c.step(val); exc != nil {
			return []byte{}, exc
		}
	}

	resp := make([]byte, 4)
	binary.BigEndian.PutUint16(resp[0:2], start)
	binary.BigEndian.PutUint16(resp[2:4], quantity)
	return resp, &mbserver.Success
}

func (c *Controller) step(value uint16) *mbserver.Exception {
	a := radiator.Action(value)
	if !a.Valid() {
		return &mbserver.IllegalDataValue
	}
	res, err := c.svc.Step(a)
	if err != nil {
		c.log.Warn("step rejected", "action", a, "err", err)
		return &mbserver.IllegalDataValue
	}
	c.mu.Lock()
	c.lastReward = res.Reward
	c.mu.Unlock()
	return nil
}

func readRange(data []byte, maxQty int) (start, qty int, exc *mbserver.Exception) {
	if len(data) < 4 {
		return 0, 0, &mbserver.IllegalDataValue
	}
	start = int(binary.BigEndian.Uint16(data[0:2]))
	qty = int(binary.BigEndian.Uint16(data[2:4]))
	if qty == 0 || qty > maxQty {
		return 0, 0, &mbserver.IllegalDataValue
	}
	return start, qty, nil
}

func encodeRegisters(regs []uint16) []byte {
	byteCount := len(regs) * 2
	resp := make([]byte, 1+byteCount)
	resp[0] = byte(byteCount)
	for i, r := range regs {
		binary.BigEndian.PutUint16(resp[1+i*2:1+i*2+2], r)
	}
	return resp
}

// encodeScaled stores v*scale as a signed 16-bit register, saturating at the int16 range.
func encodeScaled(v float64, scale int) uint16 {
	r := min(max(int(math.Round(v*float64(scale))), math.MinInt16), math.MaxInt16)
	return uint16(int16(r))
}

func decodeScaled(u uint16, scale int) float64 {
	return float64(int16(u)) / float64(scale)
}

func encodeUnsigned(v float64, scale int) uint16 {
	r := min(max(int(math.Round(v*float64(scale))), 0), math.MaxUint16)
	return uint16(r)
}
