package vm

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/zilchlang/zilch/pkg/opcode"
)

// DebugSink is the cooperative debugger callback contract execute_next
// fires through at well-defined points, replacing the teacher's single
// Debugger type wired directly into the VM struct. A host that doesn't
// care about debugging installs NoopSink{}.
type DebugSink interface {
	OpcodePreStep(frame *PerFrameData, inst opcode.Instruction)
	OpcodePostStep(frame *PerFrameData, inst opcode.Instruction)
	EnterFunction(frame *PerFrameData)
	ExitFunction(frame *PerFrameData)
}

// NoopSink implements DebugSink with no-ops; the zero value of
// ExecutableState uses it so debugging is opt-in.
type NoopSink struct{}

func (NoopSink) OpcodePreStep(*PerFrameData, opcode.Instruction)  {}
func (NoopSink) OpcodePostStep(*PerFrameData, opcode.Instruction) {}
func (NoopSink) EnterFunction(*PerFrameData)                      {}
func (NoopSink) ExitFunction(*PerFrameData)                       {}

// Debugger is an interactive DebugSink: it pauses at breakpoints or in
// step mode and drives a simple command prompt, directly descended from
// the teacher's pkg/vm/debugger.go InteractivePrompt, generalized from the
// teacher's single-VM-struct model (vm.stack/vm.locals/vm.globals) to the
// per-frame model execute_next dispatches over.
type Debugger struct {
	es          *ExecutableState
	breakpoints map[int]bool // instruction index within the CURRENT frame's Code
	stepMode    bool
	enabled     bool
}

// NewDebugger creates a disabled debugger bound to es.
func NewDebugger(es *ExecutableState) *Debugger {
	return &Debugger{es: es, breakpoints: make(map[int]bool)}
}

func (d *Debugger) Enable()  { d.enabled = true }
func (d *Debugger) Disable() { d.enabled = false }

func (d *Debugger) SetStepMode(on bool) { d.stepMode = on }

func (d *Debugger) AddBreakpoint(ip int)    { d.breakpoints[ip] = true }
func (d *Debugger) RemoveBreakpoint(ip int) { delete(d.breakpoints, ip) }
func (d *Debugger) ClearBreakpoints()       { d.breakpoints = make(map[int]bool) }

func (d *Debugger) OpcodePreStep(frame *PerFrameData, inst opcode.Instruction) {
	if !d.enabled {
		return
	}
	if d.stepMode || d.breakpoints[frame.IP] {
		d.interactivePrompt(frame, inst)
	}
}

func (d *Debugger) OpcodePostStep(*PerFrameData, opcode.Instruction) {}

func (d *Debugger) EnterFunction(frame *PerFrameData) {
	if d.enabled {
		fmt.Printf("--> entering %s\n", frameLabel(frame))
	}
}

func (d *Debugger) ExitFunction(frame *PerFrameData) {
	if d.enabled {
		fmt.Printf("<-- leaving %s\n", frameLabel(frame))
	}
}

func frameLabel(f *PerFrameData) string {
	if f.Fn == nil {
		return "<native>"
	}
	if f.Fn.Owner != nil {
		return f.Fn.Owner.Name + "." + f.Fn.Name
	}
	return f.Fn.Name
}

func (d *Debugger) interactivePrompt(frame *PerFrameData, inst opcode.Instruction) {
	fmt.Println("\n=== Debugger Paused ===")
	fmt.Printf("  %4d: %s\n", frame.IP, inst.Op)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("debug> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		switch parts[0] {
		case "help", "h", "?":
			d.printHelp()
		case "continue", "c":
			d.SetStepMode(false)
			return
		case "step", "s":
			d.SetStepMode(true)
			return
		case "locals", "l":
			d.showLocals(frame)
		case "breakpoint", "b":
			if len(parts) < 2 {
				fmt.Println("usage: breakpoint <instruction>")
				continue
			}
			ip, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("invalid instruction number")
				continue
			}
			d.AddBreakpoint(ip)
		case "quit", "q":
			return
		default:
			fmt.Printf("unknown command: %s (type 'help')\n", parts[0])
		}
	}
}

func (d *Debugger) printHelp() {
	fmt.Println("commands: help, continue (c), step (s), locals (l), breakpoint <n> (b), quit (q)")
}

func (d *Debugger) showLocals(frame *PerFrameData) {
	for i, v := range frame.Locals {
		fmt.Printf("  [%d] %v\n", i, v)
	}
}
