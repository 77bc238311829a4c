package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/config"
	"github.com/diffuzzer/diffuzzer/report"
	"github.com/diffuzzer/diffuzzer/runner"
)

var (
	soloOutputDir string
	soloTestPath  string
	soloFS        string
	soloKeepFS    bool
)

var soloSingleCmd = &cobra.Command{
	Use:   "solo-single",
	Short: "Run one testcase against a single filesystem",
	RunE:  runSoloSingle,
}

func init() {
	rootCmd.AddCommand(soloSingleCmd)
	soloSingleCmd.Flags().StringVar(&soloOutputDir, "output-dir", "", "directory to save the result under")
	soloSingleCmd.Flags().StringVar(&soloTestPath, "path-to-test", "", "path to a testcase in JSON format")
	soloSingleCmd.Flags().StringVar(&soloFS, "filesystem", "", "filesystem to test")
	soloSingleCmd.Flags().BoolVar(&soloKeepFS, "keep-fs", false, "keep the filesystem mounted after the run")
	soloSingleCmd.MarkFlagRequired("output-dir")
	soloSingleCmd.MarkFlagRequired("path-to-test")
	soloSingleCmd.MarkFlagRequired("filesystem")
}

func runSoloSingle(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	w, err := loadWorkload(soloTestPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	h, err := buildHarness(ctx, cfg, soloFS, "/mnt/"+soloFS)
	if err != nil {
		return err
	}
	// keep-fs leaves the VM/mount running after the run for inspection,
	// matching the original fuzzer's harness.run(..., keep_fs, ...).
	if !soloKeepFS {
		defer h.Cleanup()
	}

	if err := h.Harness.Compile(w); err != nil {
		return fmt.Errorf("cmd: compiling testcase: %w", err)
	}
	if err := h.Harness.Reset(ctx); err != nil {
		return fmt.Errorf("cmd: resetting %s: %w", soloFS, err)
	}
	outcome, err := h.Harness.Run(ctx)
	if err != nil {
		return fmt.Errorf("cmd: running testcase: %w", err)
	}

	c := report.SoloCase{
		Workload: w,
		FSName:   soloFS,
		Kind:     soloOutcomeKind(outcome.Kind),
		Trace:    outcome.Trace,
		Stdout:   outcome.Stdout,
		Stderr:   outcome.Stderr,
		Timeout:  cfg.Timeout,
	}
	dir, err := report.SaveSolo(soloOutputDir, c)
	if err != nil {
		return fmt.Errorf("cmd: saving solo result: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved solo result to %s\n", dir)
	return nil
}

func soloOutcomeKind(k runner.OutcomeKind) report.SoloOutcomeKind {
	switch k {
	case runner.OutcomeTimedOut:
		return report.SoloTimedOut
	case runner.OutcomePanicked:
		return report.SoloPanicked
	default:
		return report.SoloCompleted
	}
}

// loadWorkload reads and parses a testcase JSON file shared by
// solo-single, duo-single, and reduce.
func loadWorkload(path string) (abstractfs.Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abstractfs.Workload{}, fmt.Errorf("cmd: reading testcase %s: %w", path, err)
	}
	var w abstractfs.Workload
	if err := json.Unmarshal(data, &w); err != nil {
		return abstractfs.Workload{}, fmt.Errorf("cmd: parsing testcase %s: %w", path, err)
	}
	return w, nil
}
