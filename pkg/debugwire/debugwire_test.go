package debugwire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingTransport struct {
	sent     []Event
	commands []Command
}

func (r *recordingTransport) Send(e Event) error {
	r.sent = append(r.sent, e)
	return nil
}

func (r *recordingTransport) Receive() (Command, error) {
	if len(r.commands) == 0 {
		return Command{}, errors.New("no more commands")
	}
	c := r.commands[0]
	r.commands = r.commands[1:]
	return c, nil
}

func (r *recordingTransport) Close() error { return nil }

func TestTransportRoundTripsCommandsAndEvents(t *testing.T) {
	var transport Transport = &recordingTransport{
		commands: []Command{{Type: CommandSetBreakpoint, Origin: "a.zilch", Line: 3, Enabled: true}},
	}

	cmd, err := transport.Receive()
	assert.NoError(t, err)
	assert.Equal(t, CommandSetBreakpoint, cmd.Type)
	assert.Equal(t, 3, cmd.Line)

	err = transport.Send(Event{Type: EventPaused, Thrown: ""})
	assert.NoError(t, err)
}
