// Package command defines the requests accepted by the application layer.
// Commands represent user intentions and are validated before any browser is launched.
package command

import "errors"

// ErrInvalidCommand is wrapped by every Validate failure.
var ErrInvalidCommand = errors.New("invalid command")

// Command is the base interface for all commands.
type Command interface {
	// CommandName returns the name of the command for logging/debugging
	CommandName() string

	// Validate checks the command's fields.
	Validate() error
}

// SessionCommand is a command that targets an existing session record.
type SessionCommand interface {
	Command
	// SessionID returns the target session ID
	SessionID() string
}

// baseSessionCommand provides common implementation for session commands.
type baseSessionCommand struct {
	sessionID string
}

func (c *baseSessionCommand) SessionID() string {
	return c.sessionID
}
