// Package console provides the interactive command line for driving a
// mode controller by hand.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/cjeanneret/apgmode/internal/apg"
	"github.com/cjeanneret/apgmode/internal/debug"
	"github.com/cjeanneret/apgmode/internal/hw/cameraio"
	"github.com/cjeanneret/apgmode/internal/modefsm"
)

// RegisterDumper is implemented by transports that can list register contents.
type RegisterDumper interface {
	Snapshot() []cameraio.Register
}

// Console dispatches typed commands to a mode controller.
type Console struct {
	ctrl *modefsm.Controller
	regs RegisterDumper
	out  io.Writer
}

// New creates a console writing to out. regs may be nil.
func New(ctrl *modefsm.Controller, regs RegisterDumper, out io.Writer) *Console {
	return &Console{ctrl: ctrl, regs: regs, out: out}
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("mode",
		readline.PcItem("normal"),
		readline.PcItem("tdi"),
		readline.PcItem("kinetics"),
		readline.PcItem("continuous"),
	),
	readline.PcItem("trigger",
		readline.PcItem("on"),
		readline.PcItem("off"),
	),
	readline.PcItem("trigs"),
	readline.PcItem("bulk", readline.PcItem("on"), readline.PcItem("off")),
	readline.PcItem("fastseq", readline.PcItem("on"), readline.PcItem("off")),
	readline.PcItem("tdirows"),
	readline.PcItem("status"),
	readline.PcItem("regs"),
	readline.PcItem("help"),
	readline.PcItem("quit"),
)

// Run starts the interactive command loop. It returns when the user quits,
// input ends or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "apg> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	c.out = rl.Stdout()
	debug.SetOutput(rl.Stdout())
	defer debug.SetOutput(os.Stdout)
	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			return nil
		}

		if quit := c.Exec(line); quit {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the user asked to quit.
func (c *Console) Exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "mode", "m":
		c.cmdMode(args)
	case "trigger", "t":
		c.cmdTrigger(args)
	case "trigs":
		c.cmdTrigs()
	case "bulk":
		c.cmdToggle(args, "bulk", "Bulk download", c.ctrl.SetBulkDownload)
	case "fastseq":
		c.cmdToggle(args, "fastseq", "Fast sequence", c.ctrl.SetFastSequence)
	case "tdirows":
		c.cmdTdiRows(args)
	case "status", "s":
		c.cmdStatus()
	case "regs":
		c.cmdRegs()
	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Camera Mode Commands:
  mode [normal|tdi|kinetics|continuous]  - Show or change the camera mode
  trigger on|off <mode>:<type>            - e.g. trigger on normal:each, trigger off tdikin:shutter
  trigs                                   - Read the triggers the hardware reports on
  bulk on|off                             - Bulk download
  fastseq on|off                          - Fast sequence (applied in Normal mode)
  tdirows [n]                             - Show or set TDI rows (applied in TDI mode)
  status                                  - Show controller state
  regs                                    - Dump registers (mock transport only)
  help                                    - Show this help
  quit                                    - Exit`)
}

func (c *Console) cmdMode(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(c.out, "Mode: %s\n", c.ctrl.Mode())
		return
	}
	m, err := apg.ParseCameraMode(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if err := c.ctrl.SetMode(m); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Mode: %s\n", c.ctrl.Mode())
}

func (c *Console) cmdTrigger(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: trigger on|off <mode>:<type>")
		return
	}
	on, err := parseOnOff(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	p, err := apg.ParseTriggerPair(args[1])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if err := c.ctrl.SetExternalTrigger(on, p.Mode, p.Type); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Trigger %s: %s\n", p, onOff(on))
}

func (c *Console) cmdTrigs() {
	trigs, err := c.ctrl.TrigsThatAreOn()
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if len(trigs) == 0 {
		fmt.Fprintln(c.out, "No triggers on")
		return
	}
	for _, p := range trigs {
		fmt.Fprintf(c.out, "  %s\n", p)
	}
}

func (c *Console) cmdToggle(args []string, cmd, name string, set func(bool) error) {
	if len(args) != 1 {
		fmt.Fprintf(c.out, "Usage: %s on|off\n", cmd)
		return
	}
	on, err := parseOnOff(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if err := set(on); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "%s: %s\n", name, onOff(on))
}

func (c *Console) cmdTdiRows(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(c.out, "TDI rows: %d\n", c.ctrl.TdiRows())
		return
	}
	n, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		fmt.Fprintf(c.out, "Error: invalid row count %q\n", args[0])
		return
	}
	if err := c.ctrl.SetTdiRows(uint16(n)); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "TDI rows: %d\n", c.ctrl.TdiRows())
}

func (c *Console) cmdStatus() {
	PrintStatus(c.out, c.ctrl.Status())
}

func (c *Console) cmdRegs() {
	if c.regs == nil {
		fmt.Fprintln(c.out, "Register dump not supported by this transport")
		return
	}
	for _, r := range c.regs.Snapshot() {
		fmt.Fprintf(c.out, "  0x%04X = 0x%04X\n", r.Addr, r.Value)
	}
}

// PrintStatus writes a human-readable controller status.
func PrintStatus(w io.Writer, s modefsm.Status) {
	fmt.Fprintf(w, "Camera:         %s (firmware 0x%X)\n", s.Model, s.Firmware)
	fmt.Fprintf(w, "Mode:           %s\n", s.Mode)
	fmt.Fprintf(w, "Bulk download:  %s\n", onOff(s.BulkDownload))
	fmt.Fprintf(w, "Fast sequence:  %s\n", onOff(s.FastSequence))
	fmt.Fprintf(w, "TDI rows:       %d\n", s.TdiRows)
	if len(s.Triggers) == 0 {
		fmt.Fprintln(w, "Triggers:       none")
		return
	}
	names := make([]string, len(s.Triggers))
	for i, p := range s.Triggers {
		names[i] = p.String()
	}
	fmt.Fprintf(w, "Triggers:       %s\n", strings.Join(names, ", "))
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
