package cli

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
)

// ConfigError reports a bad flag or configuration value. Field names the
// flag or config key and may be empty.
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError returns a ConfigError for field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
	}
	return "config error: " + e.Message
}

// ExitCode implements exitCoder.
func (e *ConfigError) ExitCode() int { return ExitConfig }

// CommandError wraps a failure of the named command.
type CommandError struct {
	Command string
	Err     error
}

// NewCommandError wraps err as a failure of command.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

type exitCoder interface {
	ExitCode() int
}

// ExitCode maps an error returned by a command to a process exit code. The
// first error in the chain that carries its own code wins; anything else is
// ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitFailure
}
