package modefsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjeanneret/apgmode/internal/apg"
	"github.com/cjeanneret/apgmode/internal/camdata"
)

func TestAlta_ContinuousImagingFirmwareGate(t *testing.T) {
	env := Env{CamData: descriptor(false, allFeatures)}

	env.Firmware = AltaContinuousImagingMinRev - 1
	assert.False(t, Alta{}.IsContinuousImagingAvailable(env))

	env.Firmware = AltaContinuousImagingMinRev
	assert.True(t, Alta{}.IsContinuousImagingAvailable(env))

	env.CamData = descriptor(false, camdata.Features{})
	assert.False(t, Alta{}.IsContinuousImagingAvailable(env))
}

func TestAscent_TdiFirmwareGate(t *testing.T) {
	env := Env{CamData: descriptor(false, allFeatures)}

	env.Firmware = AscentTdiMinRev - 1
	assert.False(t, Ascent{}.IsTdiAvailable(env))
	assert.True(t, Ascent{}.IsKineticsAvailable(env))
	assert.True(t, Ascent{}.IsContinuousImagingAvailable(env))

	env.Firmware = AscentTdiMinRev
	assert.True(t, Ascent{}.IsTdiAvailable(env))
}

func TestExternalTriggerAvailability(t *testing.T) {
	cases := []struct {
		name    string
		caps    Capabilities
		mode    apg.CameraMode
		normal  bool
		tdiKins bool
	}{
		{"alta normal", Alta{}, apg.ModeNormal, true, false},
		{"alta tdi", Alta{}, apg.ModeTDI, false, true},
		{"alta kinetics", Alta{}, apg.ModeKinetics, false, true},
		{"alta continuous", Alta{}, apg.ModeContinuousImaging, false, false},
		{"ascent normal", Ascent{}, apg.ModeNormal, true, false},
		{"ascent continuous", Ascent{}, apg.ModeContinuousImaging, true, false},
		{"ascent kinetics", Ascent{}, apg.ModeKinetics, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := Env{CamData: descriptor(false, allFeatures), Mode: tc.mode}
			assert.Equal(t, tc.normal, tc.caps.IsExternalTriggerAvailable(env, apg.TriggerNormal))
			assert.Equal(t, tc.tdiKins, tc.caps.IsExternalTriggerAvailable(env, apg.TriggerTdiKinetics))
			assert.False(t, tc.caps.IsExternalTriggerAvailable(env, apg.TriggerMode(5)))
		})
	}
}

func TestRegisterStatus_ReadsMaskBits(t *testing.T) {
	io := newRecordingIO()
	io.preset(RegOpC, OpCTrigNormGroup|OpCTrigExtShutter|OpCTrigExtReadout)
	env := Env{IO: io, CamData: descriptor(false, allFeatures)}
	var s registerStatus

	on, err := s.IsTriggerNormGroupOn(env)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = s.IsTriggerExternalShutterOn(env)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = s.IsTriggerExternalReadoutOn(env)
	require.NoError(t, err)
	assert.False(t, on, "readout needs the I/O port bit too")

	env.CamData = descriptor(true, allFeatures)
	on, err = s.IsTriggerExternalShutterOn(env)
	require.NoError(t, err)
	assert.False(t, on, "interline sensors read the I/O port bit")
}

func TestAscentController_TdiGatedByFirmware(t *testing.T) {
	io := newRecordingIO()
	d, err := camdata.Builtin("ascent-a694")
	require.NoError(t, err)

	c := NewController(io, d, AscentTdiMinRev-1, Ascent{})
	assert.True(t, IsInvalidMode(c.SetMode(apg.ModeTDI)))

	c = NewController(io, d, AscentTdiMinRev, Ascent{})
	require.NoError(t, c.SetMode(apg.ModeTDI))
}

func TestFamilyByName(t *testing.T) {
	for name, want := range map[string]Capabilities{
		"alta":   Alta{},
		"ascent": Ascent{},
		"altaf":  Ascent{},
		"aspen":  Ascent{},
	} {
		got, err := FamilyByName(name)
		require.NoError(t, err)
		assert.IsType(t, want, got, name)
	}

	_, err := FamilyByName("gee")
	assert.Error(t, err)
}
