// Package apg holds the acquisition-mode and trigger enumerations shared by
// the mode controller, the configuration layer and the console.
package apg

import (
	"fmt"
	"strings"
)

// CameraMode is the acquisition mode the camera is operating in.
type CameraMode int

const (
	ModeUnknown CameraMode = iota
	ModeNormal
	ModeTDI
	ModeKinetics
	ModeContinuousImaging
)

func (m CameraMode) String() string {
	switch m {
	case ModeNormal:
		return "Normal"
	case ModeTDI:
		return "TDI"
	case ModeKinetics:
		return "Kinetics"
	case ModeContinuousImaging:
		return "ContinuousImaging"
	default:
		return fmt.Sprintf("UnknownMode%d", int(m))
	}
}

// ParseCameraMode accepts the names used in config files and on the command line.
func ParseCameraMode(s string) (CameraMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return ModeNormal, nil
	case "tdi":
		return ModeTDI, nil
	case "kinetics", "kin":
		return ModeKinetics, nil
	case "continuous", "continuous_imaging", "continuousimaging", "cont":
		return ModeContinuousImaging, nil
	default:
		return ModeUnknown, fmt.Errorf("unknown camera mode: %q", s)
	}
}

// TriggerMode is the trigger family.
type TriggerMode int

const (
	TriggerNormal TriggerMode = iota
	TriggerTdiKinetics
)

func (m TriggerMode) String() string {
	switch m {
	case TriggerNormal:
		return "Normal"
	case TriggerTdiKinetics:
		return "TdiKinetics"
	default:
		return fmt.Sprintf("UnknownTriggerMode%d", int(m))
	}
}

// TriggerType is the trigger source.
type TriggerType int

const (
	TriggerEach TriggerType = iota
	TriggerGroup
	TriggerExternalShutter
	TriggerExternalReadout
)

func (t TriggerType) String() string {
	switch t {
	case TriggerEach:
		return "Each"
	case TriggerGroup:
		return "Group"
	case TriggerExternalShutter:
		return "ExternalShutter"
	case TriggerExternalReadout:
		return "ExternalReadout"
	default:
		return fmt.Sprintf("UnknownTriggerType%d", int(t))
	}
}

// TriggerPair identifies one enabled trigger source within a family.
type TriggerPair struct {
	Mode TriggerMode
	Type TriggerType
}

func (p TriggerPair) String() string {
	return p.Mode.String() + ":" + p.Type.String()
}

// Trigger pairs in the order status is reported.
var (
	NormEach          = TriggerPair{TriggerNormal, TriggerEach}
	NormGroup         = TriggerPair{TriggerNormal, TriggerGroup}
	TdiKinEach        = TriggerPair{TriggerTdiKinetics, TriggerEach}
	TdiKinGroup       = TriggerPair{TriggerTdiKinetics, TriggerGroup}
	ExternalShutter   = TriggerPair{TriggerTdiKinetics, TriggerExternalShutter}
	ExternalReadout   = TriggerPair{TriggerTdiKinetics, TriggerExternalReadout}
	AllTriggerPairs   = []TriggerPair{NormEach, NormGroup, TdiKinEach, TdiKinGroup, ExternalShutter, ExternalReadout}
	NormalFamilyPairs = []TriggerPair{NormEach, NormGroup}
	TdiKinFamilyPairs = []TriggerPair{TdiKinEach, TdiKinGroup, ExternalShutter, ExternalReadout}
)

// ParseTriggerPair parses "mode:type", e.g. "normal:each" or "tdikin:shutter".
func ParseTriggerPair(s string) (TriggerPair, error) {
	modeStr, typeStr, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	if !ok {
		return TriggerPair{}, fmt.Errorf("trigger %q: expected <mode>:<type>", s)
	}

	var p TriggerPair
	switch modeStr {
	case "normal", "norm":
		p.Mode = TriggerNormal
	case "tdikin", "tdikinetics", "tdi", "kinetics":
		p.Mode = TriggerTdiKinetics
	default:
		return TriggerPair{}, fmt.Errorf("trigger %q: unknown trigger mode %q", s, modeStr)
	}

	switch typeStr {
	case "each":
		p.Type = TriggerEach
	case "group":
		p.Type = TriggerGroup
	case "shutter", "external_shutter", "externalshutter":
		p.Type = TriggerExternalShutter
	case "readout", "external_readout", "externalreadout":
		p.Type = TriggerExternalReadout
	default:
		return TriggerPair{}, fmt.Errorf("trigger %q: unknown trigger type %q", s, typeStr)
	}
	return p, nil
}
