package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/cjeanneret/apgmode/internal/apg"
	"github.com/cjeanneret/apgmode/internal/camdata"
	"github.com/cjeanneret/apgmode/internal/config"
	"github.com/cjeanneret/apgmode/internal/console"
	"github.com/cjeanneret/apgmode/internal/debug"
	"github.com/cjeanneret/apgmode/internal/hw/cameraio"
	"github.com/cjeanneret/apgmode/internal/modefsm"
)

// cliOptions holds command-line overrides. Zero values mean "use config".
type cliOptions struct {
	configPath  string
	mode        string
	tdiRows     int
	triggers    []string
	debugLevel  int
	interactive bool
}

func parseFlags(args []string) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := flag.NewFlagSet("apgmode", flag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", filepath.Join("configs", "default.yaml"), "path to config file")
	fs.StringVarP(&opts.mode, "mode", "m", "", "override startup mode (normal, tdi, kinetics, continuous)")
	fs.IntVar(&opts.tdiRows, "tdi-rows", -1, "override TDI row count")
	fs.StringArrayVarP(&opts.triggers, "trigger", "t", nil, "enable a trigger at startup, e.g. normal:each (repeatable)")
	fs.IntVarP(&opts.debugLevel, "debug", "d", -1, "override debug level (0-4)")
	fs.BoolVarP(&opts.interactive, "interactive", "i", false, "start the interactive console")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("invalid arguments: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if err := applyOverrides(cfg, opts); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", opts.configPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)

	// Initialize register transport
	debug.Value("Mock I/O", cfg.IO.Mock)
	debug.Step(1, "Initializing register transport")
	transport, err := cameraio.NewTransport(cfg.IO.Mock, cameraio.SPIConfig{
		ChipSelect: cfg.IO.SPIChipSelect,
		SpeedHz:    cfg.IO.SPISpeedHz,
	})
	if err != nil {
		log.Fatalf("init transport failed: %v", err)
	}
	defer func() {
		if err := transport.Close(); err != nil {
			log.Printf("closing transport failed: %v", err)
		}
	}()

	// Build mode controller
	debug.Step(2, "Building mode controller")
	ctrl, err := newControllerFromConfig(transport, cfg)
	if err != nil {
		log.Fatalf("init controller failed: %v", err)
	}
	debug.Value("Camera", ctrl.CamData().Model)
	debug.PrintStruct("Camera descriptor", *ctrl.CamData())
	debug.Value("Family", cfg.Camera.Family)
	debug.Value("Firmware", fmt.Sprintf("0x%X", ctrl.Firmware()))

	debug.Step(3, "Applying startup settings")
	if err := applyStartup(ctrl, cfg); err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	if opts.interactive {
		var regs console.RegisterDumper
		if mem, ok := transport.(*cameraio.Memory); ok {
			regs = mem
		}
		con := console.New(ctrl, regs, os.Stdout)
		if err := con.Run(ctx); err != nil {
			log.Fatalf("console: %v", err)
		}
		return
	}

	trigs, err := ctrl.TrigsThatAreOn()
	if err != nil {
		log.Fatalf("read trigger status failed: %v", err)
	}
	status := ctrl.Status()
	status.Triggers = trigs
	console.PrintStatus(os.Stdout, status)
}

// applyOverrides validates CLI overrides and applies the ones that are set.
func applyOverrides(cfg *config.Config, opts *cliOptions) error {
	if opts.mode != "" {
		if _, err := apg.ParseCameraMode(opts.mode); err != nil {
			return err
		}
		cfg.Startup.Mode = opts.mode
	}
	if opts.tdiRows >= 0 {
		if opts.tdiRows > 0xFFFF {
			return fmt.Errorf("tdi-rows must be between 0 and 65535, got %d", opts.tdiRows)
		}
		cfg.Startup.TdiRows = uint16(opts.tdiRows)
	}
	for _, s := range opts.triggers {
		if _, err := apg.ParseTriggerPair(s); err != nil {
			return err
		}
	}
	if len(opts.triggers) > 0 {
		cfg.Startup.Triggers = opts.triggers
	}
	if opts.debugLevel >= 0 {
		if opts.debugLevel > 4 {
			return fmt.Errorf("debug level must be between 0 and 4, got %d", opts.debugLevel)
		}
		cfg.Defaults.DebugLevel = opts.debugLevel
	}
	return nil
}

// newControllerFromConfig selects the capability family and descriptor.
func newControllerFromConfig(t cameraio.Transport, cfg *config.Config) (*modefsm.Controller, error) {
	caps, err := modefsm.FamilyByName(cfg.Camera.Family)
	if err != nil {
		return nil, err
	}

	var desc *camdata.Descriptor
	if cfg.Camera.DescriptorFile != "" {
		desc, err = camdata.Load(cfg.Camera.DescriptorFile)
	} else {
		desc, err = camdata.Builtin(cfg.Camera.Descriptor)
	}
	if err != nil {
		return nil, err
	}

	return modefsm.NewController(t, desc, cfg.Camera.FirmwareRev, caps), nil
}

// applyStartup drives the controller into the configured startup state.
// TDI rows and fast sequence are stored before the mode change so the
// mode entry writes them.
func applyStartup(ctrl *modefsm.Controller, cfg *config.Config) error {
	if err := ctrl.SetTdiRows(cfg.Startup.TdiRows); err != nil {
		return fmt.Errorf("set TDI rows: %w", err)
	}
	if err := ctrl.SetFastSequence(cfg.Startup.FastSequence); err != nil {
		return fmt.Errorf("set fast sequence: %w", err)
	}
	if err := ctrl.SetBulkDownload(cfg.Startup.BulkDownload); err != nil {
		return fmt.Errorf("set bulk download: %w", err)
	}
	if err := ctrl.SetMode(cfg.StartupMode()); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	for _, p := range cfg.StartupTriggers() {
		if err := ctrl.SetExternalTrigger(true, p.Mode, p.Type); err != nil {
			return fmt.Errorf("enable trigger %s: %w", p, err)
		}
		debug.Info("Trigger enabled: %s", p)
	}
	debug.Info("Camera mode: %s", ctrl.Mode())
	return nil
}
