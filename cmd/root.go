// Package cmd wires the fuzzer's five subcommands (spec.md 6.1) onto a
// cobra root command, following the teacher's own top-level command
// structure: one persistent-flag-bearing root, each subcommand its own
// file with an init() that registers it.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diffuzzer/diffuzzer/common"
)

var (
	configPath string
	noQemu     bool
	debugLogs  bool
	traceLogs  bool
	quietLogs  bool
)

var rootCmd = &cobra.Command{
	Use:   "diffuzzer",
	Short: "Differential POSIX filesystem fuzzer",
	Long:  "diffuzzer generates and mutates POSIX filesystem workloads and runs them against two filesystem implementations, reporting any divergence in syscall trace or directory state.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		common.SetDebug(debugLogs)
		common.SetTrace(traceLogs)
		common.SetSilent(quietLogs)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", "./config.toml", "path to the TOML configuration file")
	rootCmd.PersistentFlags().BoolVar(&noQemu, "no-qemu", false, "run against locally mounted filesystems instead of QEMU guests")
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "enable [D]-prefixed debug logging")
	rootCmd.PersistentFlags().BoolVar(&traceLogs, "trace", false, "enable [T]-prefixed trace logging with per-line timestamps")
	rootCmd.PersistentFlags().BoolVar(&quietLogs, "quiet", false, "suppress common.Log output entirely")
}

// Execute runs the root command, exiting the process with a non-zero
// status on any fatal error (spec.md 6.1: "0 success, non-zero on fatal
// error in the broker").
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
