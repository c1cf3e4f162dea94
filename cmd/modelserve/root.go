// Command modelserve is the end-to-end demo binary: it loads a causal
// LM through onnxengine, registers it as a modelcore.Model behind a
// Scheduler, and exposes register/exec/serve subcommands over it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scriptmaster/modelserve/internal/config"
	"github.com/scriptmaster/modelserve/internal/obslog"
	"github.com/scriptmaster/modelserve/internal/version"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:     "modelserve",
	Short:   "Register and run ONNX causal language models through a FIFO-scheduled registry",
	Version: version.Version,
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() { obslog.Configure(logLevel) })
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// loadedConfig is a small convenience wrapper so subcommands don't
// each repeat config.Load().
func loadedConfig() config.Config {
	return config.Load()
}

func main() {
	Execute()
}
