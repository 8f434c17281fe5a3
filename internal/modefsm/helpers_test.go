package modefsm

import (
	"errors"

	"github.com/cjeanneret/apgmode/internal/apg"
	"github.com/cjeanneret/apgmode/internal/camdata"
	"github.com/cjeanneret/apgmode/internal/hw/cameraio"
)

var errInjected = errors.New("injected bus fault")

// recordingIO records register writes and fails those failWrite selects.
type recordingIO struct {
	*cameraio.Memory
	writes    []cameraio.Register
	failWrite func(addr, value uint16) bool
	failRead  bool
}

func newRecordingIO() *recordingIO {
	return &recordingIO{Memory: cameraio.NewMemory()}
}

func (r *recordingIO) ReadReg(addr uint16) (uint16, error) {
	if r.failRead {
		return 0, errInjected
	}
	return r.Memory.ReadReg(addr)
}

func (r *recordingIO) WriteReg(addr uint16, value uint16) error {
	if r.failWrite != nil && r.failWrite(addr, value) {
		return errInjected
	}
	r.writes = append(r.writes, cameraio.Register{Addr: addr, Value: value})
	return r.Memory.WriteReg(addr, value)
}

func (r *recordingIO) reg(addr uint16) uint16 {
	v, _ := r.Memory.ReadReg(addr)
	return v
}

// preset writes a register without recording it.
func (r *recordingIO) preset(addr, value uint16) {
	_ = r.Memory.WriteReg(addr, value)
}

func (r *recordingIO) reset() { r.writes = nil }

// fakeCaps answers every query from fields.
type fakeCaps struct {
	tdi, kinetics, continuous bool
	trigAvail                 map[apg.TriggerMode]bool
	status                    [6]bool
	statusErr                 error
}

func allAvailable() *fakeCaps {
	return &fakeCaps{
		tdi:        true,
		kinetics:   true,
		continuous: true,
		trigAvail:  map[apg.TriggerMode]bool{apg.TriggerNormal: true, apg.TriggerTdiKinetics: true},
	}
}

func (f *fakeCaps) IsTdiAvailable(Env) bool               { return f.tdi }
func (f *fakeCaps) IsKineticsAvailable(Env) bool          { return f.kinetics }
func (f *fakeCaps) IsContinuousImagingAvailable(Env) bool { return f.continuous }
func (f *fakeCaps) IsExternalTriggerAvailable(_ Env, m apg.TriggerMode) bool {
	return f.trigAvail[m]
}

func (f *fakeCaps) stat(i int) (bool, error) {
	if f.statusErr != nil {
		return false, f.statusErr
	}
	return f.status[i], nil
}

func (f *fakeCaps) IsTriggerNormEachOn(Env) (bool, error)        { return f.stat(0) }
func (f *fakeCaps) IsTriggerNormGroupOn(Env) (bool, error)       { return f.stat(1) }
func (f *fakeCaps) IsTriggerTdiKinEachOn(Env) (bool, error)      { return f.stat(2) }
func (f *fakeCaps) IsTriggerTdiKinGroupOn(Env) (bool, error)     { return f.stat(3) }
func (f *fakeCaps) IsTriggerExternalShutterOn(Env) (bool, error) { return f.stat(4) }
func (f *fakeCaps) IsTriggerExternalReadoutOn(Env) (bool, error) { return f.stat(5) }

func descriptor(interline bool, f camdata.Features) *camdata.Descriptor {
	return &camdata.Descriptor{Model: "Test CCD", InterlineCCD: interline, Features: f}
}

var allFeatures = camdata.Features{TDI: true, Kinetics: true, ContinuousImaging: true}

func newAlta(interline bool) (*Controller, *recordingIO) {
	io := newRecordingIO()
	return NewController(io, descriptor(interline, allFeatures), 0x20, Alta{}), io
}
