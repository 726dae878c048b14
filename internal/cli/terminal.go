package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// TerminalDetector defines the interface for terminal detection.
// This allows for mocking in tests and dependency injection.
type TerminalDetector interface {
	IsTerminal(fd int) bool
}

// DefaultTerminalDetector is the default implementation using golang.org/x/term
type DefaultTerminalDetector struct{}

// IsTerminal implements TerminalDetector interface
func (d *DefaultTerminalDetector) IsTerminal(fd int) bool {
	isTerminal := term.IsTerminal(fd)

	slog.Debug("terminal detection result",
		"fd", fd,
		"is_terminal", isTerminal)

	return isTerminal
}

// isInteractiveTerminal checks if the given file descriptor is an
// interactive terminal
func (c *CLI) isInteractiveTerminal(fd int) bool {
	if c.terminalDetector == nil {
		c.terminalDetector = &DefaultTerminalDetector{}
	}

	return c.terminalDetector.IsTerminal(fd)
}

// isPipedOutput reports whether w is a real file that is not an
// interactive terminal. Reporting commands use this to emit JSON when
// their output is being piped. Buffers and other non-file writers count
// as interactive so tests see the human-readable form.
func (c *CLI) isPipedOutput(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return !c.isInteractiveTerminal(int(f.Fd()))
}
