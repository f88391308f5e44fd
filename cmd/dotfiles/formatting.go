package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// formatBold returns the string formatted as bold using pterm.
// Formatting is only applied when stdout is a terminal.
func formatBold(s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return s
	}
	return pterm.Bold.Sprint(s)
}
