package cameraio

import (
	"errors"
	"fmt"

	"github.com/cjeanneret/apgmode/internal/debug"
)

// Journal wraps a Transport and remembers the value each register held
// before its first write, so a failed multi-write sequence can be undone.
type Journal struct {
	t     Transport
	prior map[uint16]uint16
	order []uint16
}

func NewJournal(t Transport) *Journal {
	return &Journal{t: t, prior: make(map[uint16]uint16)}
}

func (j *Journal) ReadReg(addr uint16) (uint16, error) {
	return j.t.ReadReg(addr)
}

func (j *Journal) WriteReg(addr uint16, value uint16) error {
	if _, seen := j.prior[addr]; !seen {
		old, err := j.t.ReadReg(addr)
		if err != nil {
			return err
		}
		j.prior[addr] = old
		j.order = append(j.order, addr)
	}
	return j.t.WriteReg(addr, value)
}

// Close does not close the wrapped transport.
func (j *Journal) Close() error { return nil }

// Touched returns the registers written through the journal, in first-write order.
func (j *Journal) Touched() []uint16 {
	return append([]uint16(nil), j.order...)
}

// Rollback restores every touched register to its prior value, newest first.
// All registers are attempted; failures are joined.
func (j *Journal) Rollback() error {
	var errs []error
	for i := len(j.order) - 1; i >= 0; i-- {
		addr := j.order[i]
		debug.Verbose("Rollback: restoring 0x%04X to 0x%04X", addr, j.prior[addr])
		if err := j.t.WriteReg(addr, j.prior[addr]); err != nil {
			errs = append(errs, fmt.Errorf("restore 0x%04X: %w", addr, err))
		}
	}
	j.prior = make(map[uint16]uint16)
	j.order = nil
	return errors.Join(errs...)
}
