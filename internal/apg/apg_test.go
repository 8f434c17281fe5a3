package apg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCameraMode(t *testing.T) {
	cases := map[string]CameraMode{
		"normal":     ModeNormal,
		" TDI ":      ModeTDI,
		"kinetics":   ModeKinetics,
		"continuous": ModeContinuousImaging,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got, err := ParseCameraMode(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseCameraMode("video")
	assert.Error(t, err)
}

func TestParseTriggerPair(t *testing.T) {
	cases := map[string]TriggerPair{
		"normal:each":    NormEach,
		"normal:group":   NormGroup,
		"tdikin:each":    TdiKinEach,
		"kinetics:group": TdiKinGroup,
		"tdikin:shutter": ExternalShutter,
		"TDIKIN:Readout": ExternalReadout,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got, err := ParseTriggerPair(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseTriggerPair_Invalid(t *testing.T) {
	for _, in := range []string{"", "normal", "video:each", "normal:sometimes"} {
		_, err := ParseTriggerPair(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "TDI", ModeTDI.String())
	assert.Equal(t, "UnknownMode42", CameraMode(42).String())
	assert.Equal(t, "TdiKinetics:ExternalShutter", ExternalShutter.String())
}

func TestFamilyPairsPartitionAll(t *testing.T) {
	all := append(append([]TriggerPair{}, NormalFamilyPairs...), TdiKinFamilyPairs...)
	assert.Equal(t, AllTriggerPairs, all)
}
