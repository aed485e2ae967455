// Package diagnostics implements the Language's error-reporting contract:
// a single ErrorEvent shape shared by compile-time, runtime, and shader
// validation errors, renderable in several host-tool-friendly formats, plus
// a tree renderer for the Library/BoundType reflection graph (spec section
// 7 and section 4.7).
package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/zilchlang/zilch/pkg/types"
)

// Location is a single source position: origin (file/source name), line,
// and column.
type Location struct {
	Origin string
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Origin, l.Line, l.Column)
}

// Format selects the single-line rendering convention ErrorEvent.Render
// uses, so a host tool (editor, CI log parser) can pick whatever its own
// error-matching regex expects.
type Format byte

const (
	FormatLanguage Format = iota
	FormatPython
	FormatMSVC
)

// ErrorEvent is the one shape every diagnostic in the system takes:
// compile errors, runtime exceptions, shader validation failures, and
// memory leak reports.
type ErrorEvent struct {
	Code       string
	Primary    Location
	Associated []Location
	Reason     string
	Examples   []string
	Format     Format
}

func (e ErrorEvent) Error() string { return e.Render(e.Format) }

// Render formats the event as a single line in the requested convention.
func (e ErrorEvent) Render(f Format) string {
	switch f {
	case FormatPython:
		return fmt.Sprintf(`File "%s", line %d: %s: %s`, e.Primary.Origin, e.Primary.Line, e.Code, e.Reason)
	case FormatMSVC:
		return fmt.Sprintf("%s(%d,%d): error %s: %s", e.Primary.Origin, e.Primary.Line, e.Primary.Column, e.Code, e.Reason)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Primary, e.Code, e.Reason)
	}
}

// Sink collects ErrorEvents in the order they are reported. No package in
// this module takes a *Sink: the analyzer reports through its
// CompilationErrors channel and the compiler returns a plain error.
type Sink struct {
	Events []ErrorEvent
}

// Report appends an event.
func (s *Sink) Report(e ErrorEvent) { s.Events = append(s.Events, e) }

// HasErrors reports whether any event has been reported.
func (s *Sink) HasErrors() bool { return len(s.Events) > 0 }

// RenderLibrary prints a Library's type/member graph as an indented tree.
// The zilch CLI has no subcommand that calls it.
func RenderLibrary(lib *types.Library) string {
	tree := treeprint.New()
	tree.SetValue(lib.Name)
	for _, name := range sortedKeys(lib.Types) {
		t := lib.Types[name]
		branch := tree.AddBranch(typeLabel(t))
		if len(t.Fields) > 0 {
			fieldsBranch := branch.AddBranch("fields")
			for _, f := range t.Fields {
				fieldsBranch.AddNode(fmt.Sprintf("%s: %s (+%d)", f.Name, f.Type.TypeName(), f.Offset))
			}
		}
		for _, fnName := range sortedFuncKeys(t.Functions) {
			for _, fn := range t.Functions[fnName] {
				branch.AddNode(fmt.Sprintf("%s%s", fnName, fn.Signature.TypeName()))
			}
		}
	}
	return tree.String()
}

func typeLabel(t *types.BoundType) string {
	if t.Parent != nil {
		return fmt.Sprintf("%s : %s", t.Name, t.Parent.Name)
	}
	return t.Name
}

func sortedKeys(m map[string]*types.BoundType) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFuncKeys(m map[string][]*types.Function) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Join renders multiple events, one per line, in the given format.
func Join(events []ErrorEvent, f Format) string {
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = e.Render(f)
	}
	return strings.Join(lines, "\n")
}
