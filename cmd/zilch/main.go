// Command zilch is the CLI front-end over pkg/compile and pkg/vm: run,
// compile, disasm, shader build, and an interactive REPL -- the direct
// descendant of the teacher's cmd/smog/main.go, rebuilt on cobra
// subcommands (Ambient Stack section 2.5) in place of the teacher's
// hand-rolled os.Args switch.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/zilchlang/zilch/pkg/analyzer"
	"github.com/zilchlang/zilch/pkg/compiler"
	"github.com/zilchlang/zilch/pkg/config"
	"github.com/zilchlang/zilch/pkg/handle"
	"github.com/zilchlang/zilch/pkg/parser"
	"github.com/zilchlang/zilch/pkg/types"
	"github.com/zilchlang/zilch/pkg/vm"
)

const version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:     "zilch",
		Short:   "zilch - a small object-oriented scripting language",
		Version: version,
	}

	root.AddCommand(runCmd(), compileCmd(), disasmCmd(), shaderCmd(), replCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildStdlib returns the stdlib library (Array/System/Vector3) every
// build depends on.
func buildStdlib() *types.Library {
	return vm.NewStdlib()
}

// buildLibrary runs name's source through the parser and analyzer,
// returning the populated Library, the Analyzer (for FreeFunctions), and
// any fatal error.
func buildLibrary(name, code string, tolerant bool) (*types.Library, *analyzer.Analyzer, error) {
	stdlib := buildStdlib()
	mod, err := types.BuildModule(stdlib)
	if err != nil {
		return nil, nil, fmt.Errorf("building stdlib module: %w", err)
	}

	lib := types.NewLibrary(name)
	lib.DependsOn(stdlib)

	p := parser.New(code)
	program, err := p.Parse()
	if err != nil {
		return nil, nil, fmt.Errorf("parse error: %w", err)
	}

	az := analyzer.New(lib, mod, tolerant)
	if err := az.Analyze(program); err != nil {
		return nil, nil, fmt.Errorf("analyze error: %w", err)
	}

	c := compiler.New()
	if err := c.CompileLibrary(az); err != nil {
		return nil, nil, fmt.Errorf("compile error: %w", err)
	}

	return lib, az, nil
}

// findMain returns az's free function named "Main", the convention a
// runnable program's entry point follows.
func findMain(az *analyzer.Analyzer) (*types.Function, bool) {
	for _, fn := range az.FreeFunctions {
		if fn.Name == "Main" {
			return fn, true
		}
	}
	return nil, false
}

func loadTuning() config.Tuning {
	cfg, err := config.Load("zilch.toml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: zilch.toml: %v\n", err)
		return config.Tuning{}
	}
	return cfg.Tuning
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Run a .zilch source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0])
		},
	}
}

func runFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	lib, az, err := buildLibrary(filepath.Base(filename), string(data), false)
	if err != nil {
		return err
	}

	stdlib := buildStdlib()
	mod, err := types.BuildModule(stdlib)
	if err != nil {
		return err
	}
	mod = append(mod, lib)

	entry, ok := findMain(az)
	if !ok {
		return fmt.Errorf("%s: no free function named Main", filename)
	}

	es := vm.NewExecutableState(mod, nil)
	loadTuning().Apply(es)

	_, err = vm.Call(es, entry, handle.Handle{}, nil)
	if err != nil {
		return fmt.Errorf("runtime error: %w", err)
	}
	return nil
}

func compileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a .zilch file and report diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			_, _, err = buildLibrary(filepath.Base(args[0]), string(data), false)
			if err != nil {
				return err
			}
			fmt.Printf("%s: OK\n", args[0])
			return nil
		},
	}
}

func disasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file>",
		Short: "Compile a .zilch file and print its bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			_, az, err := buildLibrary(filepath.Base(args[0]), string(data), false)
			if err != nil {
				return err
			}
			for _, fn := range az.FreeFunctions {
				printDisasm(fn)
			}
			return nil
		},
	}
}

func printDisasm(fn *types.Function) {
	fmt.Printf("=== %s (frame size %d) ===\n", fn.Name, fn.FrameSize)
	for i, inst := range fn.Code {
		fmt.Printf("  %4d: %-20s A=%v B=%v Dst=%v\n", i, inst.Op, inst.A, inst.B, inst.Dst)
	}
	fmt.Println()
}

func shaderCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "shader", Short: "Shader IR compiler commands"}
	cmd.AddCommand(&cobra.Command{
		Use:   "build <manifest>",
		Short: "Build a shader manifest to SPIR-V",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("zilch shader build: manifest-driven builds aren't wired to a file format yet; use pkg/shaderface.Compile directly from Go")
		},
	})
	return cmd
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			runREPL()
			return nil
		},
	}
}

// runREPL drives an interactive session with line editing and history via
// liner. The analyzer/compiler have no incremental re-analysis of a single
// function body, so each input line is compiled as its own free function
// named __replN in a fresh one-off Library and run in a fresh
// ExecutableState; nothing (locals included) persists from one line to the
// next.
func runREPL() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), ".zilch_history")
	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("zilch REPL v%s\n", version)
	fmt.Println("Type :help for help, :quit to exit")

	n := 0
	for {
		input, err := line.Prompt("zilch> ")
		if err != nil {
			break
		}
		trimmed := strings.TrimSpace(input)
		switch trimmed {
		case "":
			continue
		case ":quit", ":exit":
			goto done
		case ":help":
			printREPLHelp()
			continue
		}
		line.AppendHistory(input)

		n++
		body := fmt.Sprintf("function __repl%d() : Void { %s }", n, trimmed)
		lib, az, err := buildLibrary(fmt.Sprintf("<repl%d>", n), body, false)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fn, ok := findMain2(az, fmt.Sprintf("__repl%d", n))
		if !ok {
			continue
		}
		stdlib := buildStdlib()
		mod, err := types.BuildModule(stdlib)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		mod = append(mod, lib)
		es := vm.NewExecutableState(mod, nil)
		if _, err := vm.Call(es, fn, handle.Handle{}, nil); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
done:
	if f, err := os.Create(historyPath); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
	fmt.Println("Goodbye!")
}

func findMain2(az *analyzer.Analyzer, name string) (*types.Function, bool) {
	for _, fn := range az.FreeFunctions {
		if fn.Name == name {
			return fn, true
		}
	}
	return nil, false
}

func printREPLHelp() {
	fmt.Println("zilch REPL help")
	fmt.Println("  :help    show this help")
	fmt.Println("  :quit    exit the REPL")
	fmt.Println("  :exit    exit the REPL")
}
