// Package modefsm tracks which acquisition mode a camera is in, validates
// transitions between modes and keeps the trigger and readout bits of the
// control registers consistent with the current mode.
//
// A Controller is not safe for concurrent use; callers sharing one across
// goroutines must serialize access.
package modefsm

import (
	"fmt"

	"github.com/cjeanneret/apgmode/internal/apg"
	"github.com/cjeanneret/apgmode/internal/camdata"
	"github.com/cjeanneret/apgmode/internal/debug"
	"github.com/cjeanneret/apgmode/internal/hw/cameraio"
)

// Controller is the camera mode state machine.
// The transport and descriptor are borrowed; the owning session closes them.
type Controller struct {
	caps     Capabilities
	io       cameraio.Transport
	camData  *camdata.Descriptor
	firmware uint16

	mode         apg.CameraMode
	trigs        map[apg.TriggerPair][]regBits // bits each enabled trigger was wired through
	bulkDownload bool
	fastSequence bool
	tdiRows      uint16
}

// NewController creates a controller in Normal mode. No registers are
// written until the first mutation.
func NewController(io cameraio.Transport, camData *camdata.Descriptor, firmware uint16, caps Capabilities) *Controller {
	return &Controller{
		caps:     caps,
		io:       io,
		camData:  camData,
		firmware: firmware,
		mode:     apg.ModeNormal,
		trigs:    make(map[apg.TriggerPair][]regBits),
	}
}

func (c *Controller) env() Env {
	return Env{IO: c.io, CamData: c.camData, Firmware: c.firmware, Mode: c.mode}
}

func (c *Controller) interline() bool {
	return c.camData != nil && c.camData.InterlineCCD
}

func (c *Controller) model() string {
	if c.camData == nil {
		return "unknown camera"
	}
	return c.camData.Model
}

// offMasks returns the bits to clear when p is turned off: the bits it was
// enabled through plus its wiring under the current descriptor, so a
// descriptor swap in between cannot leave a bit behind.
func (c *Controller) offMasks(p apg.TriggerPair, trigs map[apg.TriggerPair][]regBits) []regBits {
	return unionBits(trigs[p], masksFor(p, c.interline()))
}

func unionBits(a, b []regBits) []regBits {
	out := append([]regBits(nil), a...)
	for _, rb := range b {
		seen := false
		for _, have := range out {
			if have == rb {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, rb)
		}
	}
	return out
}

// Mode returns the current camera mode.
func (c *Controller) Mode() apg.CameraMode { return c.mode }

// Firmware returns the firmware revision given at construction.
func (c *Controller) Firmware() uint16 { return c.firmware }

// CamData returns the descriptor availability queries currently run against.
func (c *Controller) CamData() *camdata.Descriptor { return c.camData }

// SetMode switches the camera to newMode. Requesting the current mode is a
// no-op. Either the exit and enter side effects and the new mode are all
// committed, or the registers are restored and the mode is unchanged.
func (c *Controller) SetMode(newMode apg.CameraMode) error {
	if newMode == c.mode {
		return nil
	}
	if err := c.validateMode(newMode); err != nil {
		return err
	}

	j := cameraio.NewJournal(c.io)
	trigs := c.copyTrigs()

	if err := c.exitOldMode(j, trigs); err != nil {
		return c.abort(j, "exit mode "+c.mode.String(), err)
	}
	if err := c.enterNewMode(j, newMode, trigs); err != nil {
		return c.abort(j, "enter mode "+newMode.String(), err)
	}

	debug.Transition(c.mode, newMode)
	c.mode = newMode
	c.trigs = trigs
	return nil
}

func (c *Controller) validateMode(m apg.CameraMode) error {
	env := c.env()
	var ok bool
	switch m {
	case apg.ModeNormal:
		ok = true
	case apg.ModeTDI:
		ok = c.caps.IsTdiAvailable(env)
	case apg.ModeKinetics:
		ok = c.caps.IsKineticsAvailable(env)
	case apg.ModeContinuousImaging:
		ok = c.caps.IsContinuousImagingAvailable(env)
	default:
		return &InvalidModeError{Mode: m, Reason: "unknown mode"}
	}
	if !ok {
		return &InvalidModeError{
			Mode:   m,
			Reason: fmt.Sprintf("not available on %s (firmware 0x%X)", c.model(), c.firmware),
		}
	}
	return nil
}

func (c *Controller) exitOldMode(tr cameraio.Transport, trigs map[apg.TriggerPair][]regBits) error {
	debug.Verbose("Exiting %s mode", c.mode)
	switch c.mode {
	case apg.ModeNormal:
		// fast-sequence flag survives, only the hardware bit is cleared
		return cameraio.SetBits(tr, RegOpB, OpBFastSequence, false)
	case apg.ModeTDI:
		if err := cameraio.SetBits(tr, RegOpA, OpATdiMode, false); err != nil {
			return err
		}
		return c.disableTriggers(tr, apg.TdiKinFamilyPairs, trigs)
	case apg.ModeKinetics:
		if err := cameraio.SetBits(tr, RegOpA, OpAKineticsMode, false); err != nil {
			return err
		}
		return c.disableTriggers(tr, apg.TdiKinFamilyPairs, trigs)
	case apg.ModeContinuousImaging:
		return cameraio.SetBits(tr, RegOpB, OpBContinuousImaging, false)
	}
	return nil
}

func (c *Controller) enterNewMode(tr cameraio.Transport, m apg.CameraMode, trigs map[apg.TriggerPair][]regBits) error {
	debug.Verbose("Entering %s mode", m)
	switch m {
	case apg.ModeNormal:
		if c.fastSequence {
			return cameraio.SetBits(tr, RegOpB, OpBFastSequence, true)
		}
	case apg.ModeTDI:
		if err := c.disableTriggers(tr, apg.NormalFamilyPairs, trigs); err != nil {
			return err
		}
		if err := tr.WriteReg(RegTdiRows, c.tdiRows); err != nil {
			return fmt.Errorf("write TDI rows: %w", err)
		}
		return cameraio.SetBits(tr, RegOpA, OpATdiMode, true)
	case apg.ModeKinetics:
		if err := c.disableTriggers(tr, apg.NormalFamilyPairs, trigs); err != nil {
			return err
		}
		return cameraio.SetBits(tr, RegOpA, OpAKineticsMode, true)
	case apg.ModeContinuousImaging:
		return cameraio.SetBits(tr, RegOpB, OpBContinuousImaging, true)
	}
	return nil
}

// disableTriggers clears the hardware bits of every pair, whether or not
// the controller believes it is on.
func (c *Controller) disableTriggers(tr cameraio.Transport, pairs []apg.TriggerPair, trigs map[apg.TriggerPair][]regBits) error {
	for _, p := range pairs {
		for _, rb := range c.offMasks(p, trigs) {
			if err := cameraio.SetBits(tr, rb.reg, rb.mask, false); err != nil {
				return err
			}
		}
		delete(trigs, p)
	}
	return nil
}

func (c *Controller) abort(j *cameraio.Journal, op string, err error) error {
	ioErr := &IoError{Op: op, Err: err, RollbackErr: j.Rollback()}
	debug.Error(ioErr)
	return ioErr
}

func (c *Controller) copyTrigs() map[apg.TriggerPair][]regBits {
	out := make(map[apg.TriggerPair][]regBits, len(c.trigs))
	for p, bits := range c.trigs {
		out[p] = bits
	}
	return out
}

// SetBulkDownload toggles bulk sensor download. Allowed in every mode.
func (c *Controller) SetBulkDownload(on bool) error {
	if err := cameraio.SetBits(c.io, RegOpB, OpBBulkDownload, on); err != nil {
		return &IoError{Op: "set bulk download", Err: err}
	}
	c.bulkDownload = on
	return nil
}

// IsBulkDownloadOn reports the last bulk download setting.
func (c *Controller) IsBulkDownloadOn() bool { return c.bulkDownload }

// SetExternalTrigger enables or disables one external trigger source.
// Normal-family triggers accept Each and Group; the TDI/Kinetics family
// additionally accepts ExternalShutter and ExternalReadout.
func (c *Controller) SetExternalTrigger(on bool, trigMode apg.TriggerMode, trigType apg.TriggerType) error {
	switch trigMode {
	case apg.TriggerNormal:
		return c.setNormTrigger(on, trigType)
	case apg.TriggerTdiKinetics:
		return c.setTdiKinTrigger(on, trigType)
	default:
		return &InvalidTriggerError{Mode: trigMode, Type: trigType, Reason: "unknown trigger mode"}
	}
}

func (c *Controller) setNormTrigger(on bool, trigType apg.TriggerType) error {
	switch trigType {
	case apg.TriggerEach, apg.TriggerGroup:
		return c.applyTrigger(on, apg.TriggerPair{Mode: apg.TriggerNormal, Type: trigType})
	default:
		return &InvalidTriggerError{
			Mode:   apg.TriggerNormal,
			Type:   trigType,
			Reason: "normal triggers accept Each or Group only",
		}
	}
}

func (c *Controller) setTdiKinTrigger(on bool, trigType apg.TriggerType) error {
	switch trigType {
	case apg.TriggerEach, apg.TriggerGroup, apg.TriggerExternalShutter, apg.TriggerExternalReadout:
		return c.applyTrigger(on, apg.TriggerPair{Mode: apg.TriggerTdiKinetics, Type: trigType})
	default:
		return &InvalidTriggerError{Mode: apg.TriggerTdiKinetics, Type: trigType, Reason: "unknown trigger type"}
	}
}

func (c *Controller) applyTrigger(on bool, p apg.TriggerPair) error {
	if on && !c.caps.IsExternalTriggerAvailable(c.env(), p.Mode) {
		return &InvalidTriggerError{
			Mode:   p.Mode,
			Type:   p.Type,
			Reason: fmt.Sprintf("not available in %s mode on %s", c.mode, c.model()),
		}
	}

	bits := masksFor(p, c.interline())
	if !on {
		bits = c.offMasks(p, c.trigs)
	}

	j := cameraio.NewJournal(c.io)
	for _, rb := range bits {
		debug.Verbose("Trigger %s: reg 0x%04X mask 0x%04X on=%t", p, rb.reg, rb.mask, on)
		if err := cameraio.SetBits(j, rb.reg, rb.mask, on); err != nil {
			return c.abort(j, "set trigger "+p.String(), err)
		}
	}

	if on {
		c.trigs[p] = unionBits(c.trigs[p], bits)
	} else {
		delete(c.trigs, p)
	}
	return nil
}

// TrigsThatAreOn reads the trigger status from hardware, in the order
// Normal-Each, Normal-Group, TdiKin-Each, TdiKin-Group, ExternalShutter,
// ExternalReadout. Pairs the hardware reports off are dropped from the
// enabled set.
func (c *Controller) TrigsThatAreOn() ([]apg.TriggerPair, error) {
	env := c.env()
	checks := []struct {
		pair apg.TriggerPair
		isOn func(Env) (bool, error)
	}{
		{apg.NormEach, c.caps.IsTriggerNormEachOn},
		{apg.NormGroup, c.caps.IsTriggerNormGroupOn},
		{apg.TdiKinEach, c.caps.IsTriggerTdiKinEachOn},
		{apg.TdiKinGroup, c.caps.IsTriggerTdiKinGroupOn},
		{apg.ExternalShutter, c.caps.IsTriggerExternalShutterOn},
		{apg.ExternalReadout, c.caps.IsTriggerExternalReadoutOn},
	}

	on := make([]apg.TriggerPair, 0, len(checks))
	off := make([]apg.TriggerPair, 0, len(checks))
	for _, chk := range checks {
		ok, err := chk.isOn(env)
		if err != nil {
			return nil, &IoError{Op: "read trigger status " + chk.pair.String(), Err: err}
		}
		if ok {
			on = append(on, chk.pair)
		} else {
			off = append(off, chk.pair)
		}
	}

	for _, p := range off {
		delete(c.trigs, p)
	}
	return on, nil
}

// EnabledTriggers returns the triggers the controller has enabled, in
// status order. Unlike TrigsThatAreOn it does not touch hardware.
func (c *Controller) EnabledTriggers() []apg.TriggerPair {
	var out []apg.TriggerPair
	for _, p := range apg.AllTriggerPairs {
		if _, on := c.trigs[p]; on {
			out = append(out, p)
		}
	}
	return out
}

// SetFastSequence stores the fast-sequence setting. The hardware bit is
// written now if the camera is in Normal mode, otherwise on the next entry
// into Normal mode.
func (c *Controller) SetFastSequence(on bool) error {
	if c.mode == apg.ModeNormal {
		if err := cameraio.SetBits(c.io, RegOpB, OpBFastSequence, on); err != nil {
			return &IoError{Op: "set fast sequence", Err: err}
		}
	} else {
		debug.Verbose("Fast sequence deferred until Normal mode (current %s)", c.mode)
	}
	c.fastSequence = on
	return nil
}

// IsFastSequenceOn reports the stored fast-sequence setting.
func (c *Controller) IsFastSequenceOn() bool { return c.fastSequence }

// SetTdiRows stores the TDI row count. It is written to hardware now if the
// camera is in TDI mode, otherwise on the next entry into TDI mode.
func (c *Controller) SetTdiRows(rows uint16) error {
	if c.mode == apg.ModeTDI {
		if err := c.io.WriteReg(RegTdiRows, rows); err != nil {
			return &IoError{Op: "set TDI rows", Err: err}
		}
	}
	c.tdiRows = rows
	return nil
}

// TdiRows returns the stored TDI row count.
func (c *Controller) TdiRows() uint16 { return c.tdiRows }

// UpdateCamData swaps the descriptor used by later availability queries.
// The current mode and triggers are left as they are, even if the new
// descriptor no longer supports them. d must not be nil.
func (c *Controller) UpdateCamData(d *camdata.Descriptor) {
	debug.Info("Camera descriptor updated: %s -> %s", c.model(), d.Model)
	c.camData = d
}

// Status is a point-in-time view of the controller state.
type Status struct {
	Model        string
	Firmware     uint16
	Mode         apg.CameraMode
	BulkDownload bool
	FastSequence bool
	TdiRows      uint16
	Triggers     []apg.TriggerPair
}

// Status returns the in-memory state without touching hardware.
func (c *Controller) Status() Status {
	return Status{
		Model:        c.model(),
		Firmware:     c.firmware,
		Mode:         c.mode,
		BulkDownload: c.bulkDownload,
		FastSequence: c.fastSequence,
		TdiRows:      c.tdiRows,
		Triggers:     c.EnabledTriggers(),
	}
}
