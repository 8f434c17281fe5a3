package cameraio

import (
	"fmt"

	"github.com/cjeanneret/apgmode/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// SPI frame layout: [cmd|addr hi, addr lo, data hi, data lo].
const (
	spiReadCmd  = 0x80
	spiAddrMask = 0x7F
)

// SPIConfig selects the chip select and clock of the link to the camera
// controller board.
type SPIConfig struct {
	ChipSelect uint8
	SpeedHz    int
}

// SPI is the real transport for Raspberry Pi hosts using go-rpio.
type SPI struct {
	cfg SPIConfig
}

// NewSPI opens the SPI0 bus.
// Requires running on a Raspberry Pi with access to /dev/gpiomem or as root.
func NewSPI(cfg SPIConfig) (*SPI, error) {
	debug.Info("Initializing SPI register transport (go-rpio)")

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w (are you running on a Raspberry Pi?)", err)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		_ = rpio.Close()
		return nil, fmt.Errorf("failed to begin SPI0: %w", err)
	}

	if cfg.SpeedHz > 0 {
		rpio.SpiSpeed(cfg.SpeedHz)
	}
	rpio.SpiChipSelect(cfg.ChipSelect)
	rpio.SpiMode(0, 0)

	debug.Verbose("SPI0 ready (cs=%d, speed=%dHz)", cfg.ChipSelect, cfg.SpeedHz)

	return &SPI{cfg: cfg}, nil
}

func (s *SPI) ReadReg(addr uint16) (uint16, error) {
	frame := encodeFrame(true, addr, 0)
	rpio.SpiExchange(frame)
	v := uint16(frame[2])<<8 | uint16(frame[3])
	debug.Reg("ReadReg", addr, v)
	return v, nil
}

func (s *SPI) WriteReg(addr uint16, value uint16) error {
	debug.Reg("WriteReg", addr, value)
	rpio.SpiTransmit(encodeFrame(false, addr, value)...)
	return nil
}

func (s *SPI) Close() error {
	debug.Trace("Register transport Close (SPI)")
	rpio.SpiEnd(rpio.Spi0)
	return rpio.Close()
}

func encodeFrame(read bool, addr, value uint16) []byte {
	hi := byte(addr>>8) & spiAddrMask
	if read {
		hi |= spiReadCmd
	}
	return []byte{hi, byte(addr), byte(value >> 8), byte(value)}
}
