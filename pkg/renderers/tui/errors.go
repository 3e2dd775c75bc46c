package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (Ctrl+C or a declined submit).
	ErrAborted = errors.New("modelform/tui: aborted")
	// ErrNoSession is returned when Run receives a nil session.
	ErrNoSession = errors.New("modelform/tui: session is nil")
)
