package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diffuzzer/diffuzzer/config"
	"github.com/diffuzzer/diffuzzer/report"
	"github.com/diffuzzer/diffuzzer/runner"
)

var (
	duoFstFS     string
	duoSndFS     string
	duoOutputDir string
	duoTestPath  string
	duoKeepFS    bool
)

var duoSingleCmd = &cobra.Command{
	Use:   "duo-single",
	Short: "Run one testcase against a pair of filesystems",
	RunE:  runDuoSingle,
}

func init() {
	rootCmd.AddCommand(duoSingleCmd)
	duoSingleCmd.Flags().StringVar(&duoFstFS, "first-filesystem", "", "name of the first filesystem under test")
	duoSingleCmd.Flags().StringVar(&duoSndFS, "second-filesystem", "", "name of the second filesystem under test")
	duoSingleCmd.Flags().StringVar(&duoOutputDir, "output-dir", "", "directory to save the result under")
	duoSingleCmd.Flags().StringVar(&duoTestPath, "path-to-test", "", "path to a testcase in JSON format")
	duoSingleCmd.Flags().BoolVar(&duoKeepFS, "keep-fs", false, "keep both filesystems mounted after the run")
	duoSingleCmd.MarkFlagRequired("first-filesystem")
	duoSingleCmd.MarkFlagRequired("second-filesystem")
	duoSingleCmd.MarkFlagRequired("output-dir")
	duoSingleCmd.MarkFlagRequired("path-to-test")
}

func runDuoSingle(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	w, err := loadWorkload(duoTestPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	fst, err := buildHarness(ctx, cfg, duoFstFS, "/mnt/"+duoFstFS)
	if err != nil {
		return err
	}
	if !duoKeepFS {
		defer fst.Cleanup()
	}
	snd, err := buildHarness(ctx, cfg, duoSndFS, "/mnt/"+duoSndFS)
	if err != nil {
		return err
	}
	if !duoKeepFS {
		defer snd.Cleanup()
	}

	r := runner.New(fst.Harness, snd.Harness, cfg.DashEnabled)
	if err := r.CompileOnce(w); err != nil {
		return fmt.Errorf("cmd: compiling testcase: %w", err)
	}
	v, err := r.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("cmd: running testcase: %w", err)
	}

	if v.Kind == runner.VerdictOK {
		fmt.Fprintln(cmd.OutOrStdout(), "no divergence found")
		return nil
	}

	c := report.Case{
		Workload:    w,
		FstFSName:   duoFstFS,
		SndFSName:   duoSndFS,
		FstTrace:    v.FstOutcome.Trace,
		SndTrace:    v.SndOutcome.Trace,
		FstStdout:   v.FstOutcome.Stdout,
		SndStdout:   v.SndOutcome.Stdout,
		FstStderr:   v.FstOutcome.Stderr,
		SndStderr:   v.SndOutcome.Stderr,
		TraceDiffs:  v.TraceDiffs,
		DashDiffs:   v.DashDiffs,
		DashEnabled: cfg.DashEnabled,
	}
	dir, err := report.Save(duoOutputDir, c)
	if err != nil {
		return fmt.Errorf("cmd: saving duo result: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved divergence to %s\n", dir)
	return nil
}
