package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNoTableSelected = errors.New("no table selected, use 'use <table>' to select one")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrUsage           = errors.New("wrong arguments")
	ErrEmptyCommand    = errors.New("empty command")
)

// CommandError reports a command that could not be parsed or run
type CommandError struct {
	Command string // command name as typed
	Usage   string // expected form, if known
	Err     error
}

func (e *CommandError) Error() string {
	if e.Usage != "" {
		return fmt.Sprintf("%s: %v (usage: %s)", e.Command, e.Err, e.Usage)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
