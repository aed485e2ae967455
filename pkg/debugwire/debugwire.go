// Package debugwire defines the wire shapes of the cooperative debugger
// protocol (spec section 6.4): a JSON message envelope distinguishing
// Commands sent to a running ExecutableState from Events raised by it, and
// a Transport interface a host implements to actually move those messages
// over a WebSocket. This package carries no network code of its own --
// wiring a concrete Transport to a socket library is left to the host, per
// the Non-goals.
package debugwire

import "github.com/zilchlang/zilch/pkg/diagnostics"

// CommandType discriminates the "type" field of a Command sent to the
// debugger.
type CommandType string

const (
	CommandPause         CommandType = "pause"
	CommandResume        CommandType = "resume"
	CommandStepOver      CommandType = "step_over"
	CommandStepIn        CommandType = "step_in"
	CommandStepOut       CommandType = "step_out"
	CommandSetBreakpoint CommandType = "set_breakpoint"
	CommandQuery         CommandType = "query"
)

// Command is a single message a debugger client sends to a running state.
// Only the fields relevant to Type are populated; the rest are zero.
type Command struct {
	Type CommandType `json:"type"`

	// SetBreakpoint fields.
	Origin  string `json:"origin,omitempty"`
	Line    int    `json:"line,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`

	// Query field.
	Expression string `json:"expression,omitempty"`
}

// EventType discriminates the "type" field of an Event the state raises.
type EventType string

const (
	EventPaused            EventType = "paused"
	EventResumed           EventType = "resumed"
	EventBreakpointAdded   EventType = "breakpoint_added"
	EventBreakpointRemoved EventType = "breakpoint_removed"
	EventException         EventType = "exception"
	EventConsoleWrite      EventType = "console_write"
)

// StackFrameView is one frame of the call stack snapshot a "paused" event
// carries.
type StackFrameView struct {
	Function string              `json:"function"`
	Location diagnostics.Location `json:"location"`
}

// Event is a single message a running state raises toward every attached
// debugger client. As with Command, only the fields Type calls for carry
// data.
type Event struct {
	Type EventType `json:"type"`

	// paused / exception.
	Location diagnostics.Location `json:"location,omitempty"`
	Stack    []StackFrameView     `json:"stack,omitempty"`
	Thrown   string               `json:"thrown,omitempty"`

	// breakpoint_added / breakpoint_removed.
	Origin string `json:"origin,omitempty"`
	Line   int    `json:"line,omitempty"`

	// console_write.
	Text string `json:"text,omitempty"`
}

// Transport moves Commands and Events between a host and a debugger
// client. Send and Receive are independent so an implementation can pump
// both directions concurrently; Close tears the connection down. No
// implementation lives in this package -- a host wires this to a WebSocket
// library of its choosing.
type Transport interface {
	Send(Event) error
	Receive() (Command, error)
	Close() error
}
