package cameraio

import (
	"fmt"
	"sort"

	"github.com/cjeanneret/apgmode/internal/debug"
)

// Transport defines the abstract interface for camera register access.
// This allows plugging in the real SPI link to the controller board
// or an in-memory register file for development on PC.
type Transport interface {
	ReadReg(addr uint16) (uint16, error)
	WriteReg(addr uint16, value uint16) error
	Close() error
}

// SetBits turns the bits of mask on or off in register addr, leaving every
// other bit untouched (read-modify-write).
func SetBits(t Transport, addr, mask uint16, on bool) error {
	cur, err := t.ReadReg(addr)
	if err != nil {
		return fmt.Errorf("read 0x%04X: %w", addr, err)
	}
	next := cur &^ mask
	if on {
		next = cur | mask
	}
	if next == cur {
		return nil
	}
	if err := t.WriteReg(addr, next); err != nil {
		return fmt.Errorf("write 0x%04X: %w", addr, err)
	}
	return nil
}

// BitsSet reports whether every bit of mask is set in register addr.
func BitsSet(t Transport, addr, mask uint16) (bool, error) {
	cur, err := t.ReadReg(addr)
	if err != nil {
		return false, fmt.Errorf("read 0x%04X: %w", addr, err)
	}
	return cur&mask == mask, nil
}

// NewTransport creates a register transport based on the chosen mode.
// If mock is true, returns an in-memory register file (for dev/test).
// If mock is false, returns the SPI link (for Raspberry Pi hosts).
func NewTransport(mock bool, cfg SPIConfig) (Transport, error) {
	if mock {
		debug.Info("Using MOCK register transport (development mode)")
		return NewMemory(), nil
	}
	return NewSPI(cfg)
}

// Memory is an in-memory register file. Unwritten registers read as zero.
type Memory struct {
	regs map[uint16]uint16
}

func NewMemory() *Memory {
	return &Memory{regs: make(map[uint16]uint16)}
}

func (m *Memory) ReadReg(addr uint16) (uint16, error) {
	v := m.regs[addr]
	debug.Reg("ReadReg", addr, v)
	return v, nil
}

func (m *Memory) WriteReg(addr uint16, value uint16) error {
	debug.Reg("WriteReg", addr, value)
	m.regs[addr] = value
	return nil
}

func (m *Memory) Close() error {
	debug.Trace("Register transport Close (mock)")
	return nil
}

// Register is one address/value pair of a snapshot.
type Register struct {
	Addr  uint16
	Value uint16
}

// Snapshot returns every register written so far, ordered by address.
func (m *Memory) Snapshot() []Register {
	out := make([]Register, 0, len(m.regs))
	for addr, v := range m.regs {
		out = append(out, Register{Addr: addr, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}
