package modefsm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cjeanneret/apgmode/internal/apg"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "invalid camera mode TDI: not available",
		(&InvalidModeError{Mode: apg.ModeTDI, Reason: "not available"}).Error())
	assert.Equal(t, "invalid trigger Normal:ExternalShutter: nope",
		(&InvalidTriggerError{Mode: apg.TriggerNormal, Type: apg.TriggerExternalShutter, Reason: "nope"}).Error())
	assert.Equal(t, "camera io set trigger: injected bus fault",
		(&IoError{Op: "set trigger", Err: errInjected}).Error())
}

func TestClassification_ThroughWrapping(t *testing.T) {
	rb := errors.New("restore")
	err := fmt.Errorf("startup: %w", &IoError{Op: "enter mode TDI", Err: errInjected, RollbackErr: rb})

	assert.True(t, IsIoError(err))
	assert.False(t, IsInvalidMode(err))
	assert.False(t, IsInvalidTrigger(err))
	assert.ErrorIs(t, err, errInjected)
	assert.ErrorIs(t, err, rb)

	assert.True(t, IsInvalidMode(fmt.Errorf("x: %w", &InvalidModeError{})))
	assert.True(t, IsInvalidTrigger(fmt.Errorf("x: %w", &InvalidTriggerError{})))
}
