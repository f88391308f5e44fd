package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alamin-mahamud/dotfiles/pkg/errors"
	"github.com/alamin-mahamud/dotfiles/pkg/installer"
	"github.com/alamin-mahamud/dotfiles/pkg/sysinfo"
)

// maxMenuAttempts bounds the read-validate-dispatch loop so repeated
// bad input cannot recurse forever
const maxMenuAttempts = 3

// runInteractive shows the menu and dispatches the chosen profile.
// Quitting is a success; exhausting the attempts is an input error.
func runInteractive(cmd *cobra.Command, inst *installer.Installer, sys sysinfo.Info) error {
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	printSystemSummary(out, sys)

	for attempt := 0; attempt < maxMenuAttempts; attempt++ {
		printMenu(out)

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return errors.Wrap(err, errors.ErrInvalidInput, "failed to read menu choice")
		}
		choice := strings.TrimSpace(line)

		switch choice {
		case "1":
			return inst.Full(cmd.Context())
		case "2":
			return inst.ShellOnly(cmd.Context())
		case "3":
			return inst.PythonOnly(cmd.Context())
		case "4":
			return inst.DesktopOnly(cmd.Context())
		case "q", "Q":
			fmt.Fprintln(out, "Installation cancelled")
			return nil
		default:
			fmt.Fprintf(out, "Invalid choice: %q\n", choice)
		}
	}

	return errors.New(errors.ErrInvalidInput, "too many invalid menu choices")
}

func printSystemSummary(out io.Writer, sys sysinfo.Info) {
	environment := "Server"
	if sys.Desktop {
		environment = "Desktop"
	}

	fmt.Fprintln(out, formatBold("Dotfiles Installer"))
	fmt.Fprintln(out, strings.Repeat("=", len("Dotfiles Installer")))
	fmt.Fprintf(out, "OS: %s\n", sys.OS)
	fmt.Fprintf(out, "Distribution: %s\n", sys.Distro)
	fmt.Fprintf(out, "Architecture: %s\n", sys.Arch)
	fmt.Fprintf(out, "Environment: %s\n", environment)
}

func printMenu(out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, formatBold("Options:"))
	fmt.Fprintln(out, "1) Full installation")
	fmt.Fprintln(out, "2) Shell environment only")
	fmt.Fprintln(out, "3) Python environment only")
	fmt.Fprintln(out, "4) Desktop features only")
	fmt.Fprintln(out, "q) Quit")
	fmt.Fprint(out, "\nChoice: ")
}
