// Package gradectl implements the gradectl command line tool, a thin client
// for the graded daemon's HTTP API.
package gradectl

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Config carries the CLI's persistent settings.
type Config struct {
	Addr string
	Out  io.Writer
}

func defaultConfig() *Config {
	addr := os.Getenv("GRADED_ADDR")
	if addr == "" {
		addr = "http://127.0.0.1:8080"
	}
	return &Config{Addr: addr, Out: os.Stdout}
}

// buildRootCmd constructs the Cobra command tree.
func buildRootCmd(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "gradectl",
		Short:         "Client for the graded grading daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.Addr, "addr", cfg.Addr, "Base URL of the graded daemon")

	root.AddCommand(
		newBatchCmd(cfg),
		newCapabilityCmd(cfg),
		newEngineCmd(cfg),
		newStatusCmd(cfg),
	)
	return root
}

func newCapabilityCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "capability",
		Short: "Show the device capability assessment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(cfg, "/capability")
		},
	}
}

func newEngineCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "engine",
		Short: "Show the engine slot status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(cfg, "/engine")
		},
	}
}

func newStatusCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(cfg, "/status")
		},
	}
}

// Main is the entrypoint used by cmd/gradectl.
func Main() int {
	cfg := defaultConfig()
	root := buildRootCmd(cfg)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
