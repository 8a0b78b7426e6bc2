// Command vstoxx recalculates the VSTOXX volatility index from its
// sub-indexes and serves the calculation over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"vstoxxcli/internal/config"
	"vstoxxcli/internal/infrastructure"
	"vstoxxcli/internal/services"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	err := newRootCmd(buildInfo()).Execute()
	_ = infrastructure.CloseLogFile()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildInfo() services.BuildInfo {
	return services.BuildInfo{Version: version, Commit: commit, BuildTime: date}
}

// cli carries the state shared by subcommands once the root has loaded it
type cli struct {
	build  services.BuildInfo
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(build services.BuildInfo) *cobra.Command {
	c := &cli{build: build}

	root := &cobra.Command{
		Use:   "vstoxx",
		Short: "VSTOXX index recalculation",
		Long: `vstoxx recomputes the VSTOXX volatility index from the V6I1, V6I2 and
V6I3 sub-indexes by interpolating to a constant 30-day horizon between the
two nearest monthly settlement dates, and compares the result with the
published V2TX values.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "config file path (default: ./config.yaml or ./configs/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newVersionCmd(c))
	root.AddCommand(newComputeCmd(c))
	root.AddCommand(newSettlementsCmd(c))
	root.AddCommand(newServeCmd(c))
	return root
}

func (c *cli) load(cmd *cobra.Command) error {
	var err error
	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		c.cfg, err = config.LoadFile(configFile)
	} else {
		c.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		c.cfg.Logging.Level = level
		if err := c.cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
	}

	c.logger, err = infrastructure.InitializeLogger(c.cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vstoxx %s\n", c.build.Version)
			fmt.Fprintf(out, "  commit:  %s\n", c.build.Commit)
			fmt.Fprintf(out, "  built:   %s\n", c.build.BuildTime)
		},
	}
}
