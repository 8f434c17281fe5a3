package modefsm

import "github.com/cjeanneret/apgmode/internal/apg"

// Register addresses.
const (
	RegOpA      uint16 = 0x0004
	RegOpB      uint16 = 0x0006
	RegTdiRows  uint16 = 0x000E
	RegOpC      uint16 = 0x0026
	RegIoAssign uint16 = 0x0034
)

// OP_A bits.
const (
	OpAKineticsMode uint16 = 0x0020
	OpATdiMode      uint16 = 0x0040
)

// OP_B bits.
const (
	OpBBulkDownload      uint16 = 0x0010
	OpBFastSequence      uint16 = 0x0400
	OpBContinuousImaging uint16 = 0x0800
)

// OP_C trigger bits.
const (
	OpCTrigNormEach    uint16 = 0x0100
	OpCTrigNormGroup   uint16 = 0x0200
	OpCTrigTdiKinEach  uint16 = 0x0400
	OpCTrigTdiKinGroup uint16 = 0x0800
	OpCTrigExtShutter  uint16 = 0x1000
	OpCTrigExtReadout  uint16 = 0x2000
)

// IO_ASSIGN bits routing I/O port pins to trigger inputs.
const (
	IoAssignShutterTrig uint16 = 0x0004
	IoAssignReadoutTrig uint16 = 0x0008
)

// regBits is one register/mask pair a trigger drives.
type regBits struct {
	reg  uint16
	mask uint16
}

// trigMasks maps each trigger pair to the bits that enable it. The table is
// the same for every camera; only availability differs between families.
var trigMasks = map[apg.TriggerPair][]regBits{
	apg.NormEach:        {{RegOpC, OpCTrigNormEach}},
	apg.NormGroup:       {{RegOpC, OpCTrigNormGroup}},
	apg.TdiKinEach:      {{RegOpC, OpCTrigTdiKinEach}},
	apg.TdiKinGroup:     {{RegOpC, OpCTrigTdiKinGroup}},
	apg.ExternalShutter: {{RegOpC, OpCTrigExtShutter}},
	apg.ExternalReadout: {{RegOpC, OpCTrigExtReadout}, {RegIoAssign, IoAssignReadoutTrig}},
}

// Interline sensors shutter electronically, so the shutter trigger comes in
// on a dedicated I/O port pin instead of the general trigger mask.
var interlineShutterMask = []regBits{{RegIoAssign, IoAssignShutterTrig}}

func masksFor(p apg.TriggerPair, interline bool) []regBits {
	if p == apg.ExternalShutter && interline {
		return interlineShutterMask
	}
	return trigMasks[p]
}
