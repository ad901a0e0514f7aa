package ui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents the interaction mode for bcpstage.
type Mode int

const (
	// ModeNonInteractive is used for schedulers, CI/CD pipelines and piped input.
	ModeNonInteractive Mode = iota
	// ModeInteractive is used when an operator is at the terminal.
	ModeInteractive
)

// DetectMode determines whether an operator can answer a confirmation prompt.
//
// Returns ModeNonInteractive if:
//   - BCPSTAGE_NON_INTERACTIVE=1 is set
//   - CI is set (common CI/CD convention)
//   - stdin is not a terminal
//
// Returns ModeInteractive otherwise.
func DetectMode() Mode {
	if os.Getenv("BCPSTAGE_NON_INTERACTIVE") == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" {
		return ModeNonInteractive
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ModeNonInteractive
	}
	return ModeInteractive
}

// IsInteractive is a convenience function that returns true if running in interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
