package modefsm

import (
	"fmt"

	"github.com/cjeanneret/apgmode/internal/apg"
	"github.com/cjeanneret/apgmode/internal/camdata"
	"github.com/cjeanneret/apgmode/internal/hw/cameraio"
)

// Env is the hardware view a capability query is answered against.
// It is rebuilt for every query, so a swapped descriptor is seen immediately.
type Env struct {
	IO       cameraio.Transport
	CamData  *camdata.Descriptor
	Firmware uint16
	Mode     apg.CameraMode
}

// Capabilities answers the per-model questions the controller cannot answer
// itself. One implementation exists per controller-board family.
type Capabilities interface {
	IsTdiAvailable(env Env) bool
	IsKineticsAvailable(env Env) bool
	IsContinuousImagingAvailable(env Env) bool
	IsExternalTriggerAvailable(env Env, trigMode apg.TriggerMode) bool

	IsTriggerNormEachOn(env Env) (bool, error)
	IsTriggerNormGroupOn(env Env) (bool, error)
	IsTriggerTdiKinEachOn(env Env) (bool, error)
	IsTriggerTdiKinGroupOn(env Env) (bool, error)
	IsTriggerExternalShutterOn(env Env) (bool, error)
	IsTriggerExternalReadoutOn(env Env) (bool, error)
}

// registerStatus implements the trigger status predicates by reading back
// the bits the mask table maps each pair to. Families embed it.
type registerStatus struct{}

func (registerStatus) IsTriggerNormEachOn(env Env) (bool, error) {
	return pairOn(env, apg.NormEach)
}

func (registerStatus) IsTriggerNormGroupOn(env Env) (bool, error) {
	return pairOn(env, apg.NormGroup)
}

func (registerStatus) IsTriggerTdiKinEachOn(env Env) (bool, error) {
	return pairOn(env, apg.TdiKinEach)
}

func (registerStatus) IsTriggerTdiKinGroupOn(env Env) (bool, error) {
	return pairOn(env, apg.TdiKinGroup)
}

func (registerStatus) IsTriggerExternalShutterOn(env Env) (bool, error) {
	return pairOn(env, apg.ExternalShutter)
}

func (registerStatus) IsTriggerExternalReadoutOn(env Env) (bool, error) {
	return pairOn(env, apg.ExternalReadout)
}

func pairOn(env Env, p apg.TriggerPair) (bool, error) {
	interline := env.CamData != nil && env.CamData.InterlineCCD
	for _, rb := range masksFor(p, interline) {
		on, err := cameraio.BitsSet(env.IO, rb.reg, rb.mask)
		if err != nil || !on {
			return false, err
		}
	}
	return true, nil
}

// Firmware revisions gating family features.
const (
	AltaContinuousImagingMinRev uint16 = 0x0F
	AscentTdiMinRev             uint16 = 0x21
)

// Alta is the capability set of Alta controller boards.
type Alta struct {
	registerStatus
}

func (Alta) IsTdiAvailable(env Env) bool {
	return env.CamData.Features.TDI
}

func (Alta) IsKineticsAvailable(env Env) bool {
	return env.CamData.Features.Kinetics
}

func (Alta) IsContinuousImagingAvailable(env Env) bool {
	return env.CamData.Features.ContinuousImaging && env.Firmware >= AltaContinuousImagingMinRev
}

func (Alta) IsExternalTriggerAvailable(env Env, trigMode apg.TriggerMode) bool {
	switch trigMode {
	case apg.TriggerNormal:
		return env.Mode == apg.ModeNormal
	case apg.TriggerTdiKinetics:
		return env.Mode == apg.ModeTDI || env.Mode == apg.ModeKinetics
	default:
		return false
	}
}

// Ascent is the capability set of Ascent-based boards (Ascent, Alta F, Aspen).
type Ascent struct {
	registerStatus
}

func (Ascent) IsTdiAvailable(env Env) bool {
	return env.CamData.Features.TDI && env.Firmware >= AscentTdiMinRev
}

func (Ascent) IsKineticsAvailable(env Env) bool {
	return env.CamData.Features.Kinetics
}

func (Ascent) IsContinuousImagingAvailable(env Env) bool {
	return env.CamData.Features.ContinuousImaging
}

func (Ascent) IsExternalTriggerAvailable(env Env, trigMode apg.TriggerMode) bool {
	switch trigMode {
	case apg.TriggerNormal:
		return env.Mode == apg.ModeNormal || env.Mode == apg.ModeContinuousImaging
	case apg.TriggerTdiKinetics:
		return env.Mode == apg.ModeTDI || env.Mode == apg.ModeKinetics
	default:
		return false
	}
}

// FamilyByName selects a capability set by its configuration name.
func FamilyByName(name string) (Capabilities, error) {
	switch name {
	case "alta":
		return Alta{}, nil
	case "ascent", "altaf", "aspen":
		return Ascent{}, nil
	default:
		return nil, fmt.Errorf("unsupported camera family: %s", name)
	}
}
