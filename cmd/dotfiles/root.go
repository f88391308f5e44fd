package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alamin-mahamud/dotfiles/internal/version"
	"github.com/alamin-mahamud/dotfiles/pkg/config"
	"github.com/alamin-mahamud/dotfiles/pkg/installer"
	"github.com/alamin-mahamud/dotfiles/pkg/logging"
	"github.com/alamin-mahamud/dotfiles/pkg/sysinfo"
)

var (
	verbosity  int
	configFile string
	logFile    string
	runFull    bool
	runShell   bool
	runPython  bool
	runDesktop bool

	// sessionLog is the resolved session log path, set during pre-run
	sessionLog string

	rootCmd = &cobra.Command{
		Use:   "dotfiles",
		Short: "Personal workstation provisioning tool",
		Long: `dotfiles provisions a personal workstation: it detects the host
platform, installs the shell, Python and desktop environments, and
links configuration files from the dotfiles repository into the home
directory.

Invocation:
  dotfiles            Interactive mode
  dotfiles --full     Full installation
  dotfiles --shell    Shell environment only
  dotfiles --python   Python environment only
  dotfiles --desktop  Desktop features only`,
		Args: cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			sessionLog = logging.Setup(verbosity, logFile)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v DEBUG, -vv TRACE)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a configuration override file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Session log file (default: timestamped file in the state directory)")

	rootCmd.Flags().BoolVar(&runFull, "full", false, "Run the full installation")
	rootCmd.Flags().BoolVar(&runShell, "shell", false, "Install the shell environment only")
	rootCmd.Flags().BoolVar(&runPython, "python", false, "Install the Python environment only")
	rootCmd.Flags().BoolVar(&runDesktop, "desktop", false, "Install desktop features only")

	rootCmd.AddCommand(versionCmd)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	sys := sysinfo.Detect()
	inst := installer.New(cfg, sys, sessionLog)
	ctx := cmd.Context()

	switch {
	case runFull:
		return inst.Full(ctx)
	case runShell:
		return inst.ShellOnly(ctx)
	case runPython:
		return inst.PythonOnly(ctx)
	case runDesktop:
		return inst.DesktopOnly(ctx)
	}

	return runInteractive(cmd, inst, sys)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "dotfiles version %s\n", version.Version)
		fmt.Fprintf(out, "  commit: %s\n", version.Commit)
		fmt.Fprintf(out, "  built:  %s\n", version.Date)
	},
}
