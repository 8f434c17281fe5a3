package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cjeanneret/apgmode/internal/apg"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalYAML = `
camera:
  family: alta
  descriptor: alta-u16m
`

// ---------- Load ----------

func TestLoad_MinimalAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Startup.Mode != "normal" {
		t.Errorf("default startup mode = %q, want normal", cfg.Startup.Mode)
	}
	if cfg.IO.SPISpeedHz != 1000000 {
		t.Errorf("default SPI speed = %d, want 1000000", cfg.IO.SPISpeedHz)
	}
	if cfg.StartupMode() != apg.ModeNormal {
		t.Errorf("StartupMode() = %v, want Normal", cfg.StartupMode())
	}
	if len(cfg.StartupTriggers()) != 0 {
		t.Errorf("expected no startup triggers, got %v", cfg.StartupTriggers())
	}
}

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
camera:
  family: ascent
  descriptor_file: configs/cams/x.yaml
  firmware_rev: 34
io:
  mock: true
  spi_chip_select: 1
  spi_speed_hz: 500000
startup:
  mode: tdi
  tdi_rows: 64
  bulk_download: true
  fast_sequence: true
  triggers: ["tdikin:each", "tdikin:shutter"]
defaults:
  debug_level: 3
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Camera.FirmwareRev != 34 {
		t.Errorf("firmware_rev = %d, want 34", cfg.Camera.FirmwareRev)
	}
	if cfg.StartupMode() != apg.ModeTDI {
		t.Errorf("StartupMode() = %v, want TDI", cfg.StartupMode())
	}
	want := []apg.TriggerPair{apg.TdiKinEach, apg.ExternalShutter}
	got := cfg.StartupTriggers()
	if len(got) != len(want) {
		t.Fatalf("StartupTriggers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("trigger %d = %v, want %v", i, got[i], want[i])
		}
	}
	if cfg.Startup.TdiRows != 64 || !cfg.Startup.BulkDownload || !cfg.Startup.FastSequence {
		t.Errorf("startup settings not loaded: %+v", cfg.Startup)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing_family", "camera:\n  descriptor: alta-u16m\n", "camera.family is required"},
		{"missing_descriptor", "camera:\n  family: alta\n", "camera.descriptor"},
		{"bad_mode", minimalYAML + "startup:\n  mode: video\n", "startup.mode"},
		{"bad_trigger", minimalYAML + "startup:\n  triggers: [\"normal\"]\n", "startup.triggers"},
		{"negative_speed", minimalYAML + "io:\n  spi_speed_hz: -1\n", "spi_speed_hz"},
		{"bad_chip_select", minimalYAML + "io:\n  spi_chip_select: 2\n", "spi_chip_select"},
		{"debug_too_high", minimalYAML + "defaults:\n  debug_level: 5\n", "debug_level"},
		{"debug_negative", minimalYAML + "defaults:\n  debug_level: -1\n", "debug_level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config file") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "camera: [broken\n"))
	if err == nil || !strings.Contains(err.Error(), "unmarshal yaml") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoad_ShippedDefault(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "default.yaml"))
	if err != nil {
		t.Fatalf("shipped default.yaml must load: %v", err)
	}
	if !cfg.IO.Mock {
		t.Error("shipped config should default to mock I/O")
	}
}
