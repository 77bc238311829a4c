package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/config"
	"github.com/diffuzzer/diffuzzer/reducer"
	"github.com/diffuzzer/diffuzzer/report"
	"github.com/diffuzzer/diffuzzer/runner"
)

var (
	reduceFstFS          string
	reduceSndFS          string
	reduceOutputDir      string
	reduceTestPath       string
	reduceVariationLimit int
)

var reduceCmd = &cobra.Command{
	Use:   "reduce",
	Short: "Shrink a crashing testcase to a minimal reproducer",
	RunE:  runReduce,
}

func init() {
	rootCmd.AddCommand(reduceCmd)
	reduceCmd.Flags().StringVar(&reduceFstFS, "first-filesystem", "", "name of the first filesystem under test")
	reduceCmd.Flags().StringVar(&reduceSndFS, "second-filesystem", "", "name of the second filesystem under test")
	reduceCmd.Flags().StringVar(&reduceOutputDir, "output-dir", "", "directory to save the reduced result under")
	reduceCmd.Flags().StringVar(&reduceTestPath, "path-to-test", "", "path to a testcase in JSON format")
	reduceCmd.Flags().IntVar(&reduceVariationLimit, "variation-limit", 0, "max distinct-diff variations to keep (0 = no limit)")
	reduceCmd.MarkFlagRequired("first-filesystem")
	reduceCmd.MarkFlagRequired("second-filesystem")
	reduceCmd.MarkFlagRequired("output-dir")
	reduceCmd.MarkFlagRequired("path-to-test")
}

func runReduce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	w, err := loadWorkload(reduceTestPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	fst, err := buildHarness(ctx, cfg, reduceFstFS, "/mnt/"+reduceFstFS)
	if err != nil {
		return err
	}
	defer fst.Cleanup()
	snd, err := buildHarness(ctx, cfg, reduceSndFS, "/mnt/"+reduceSndFS)
	if err != nil {
		return err
	}
	defer snd.Cleanup()

	r := runner.New(fst.Harness, snd.Harness, cfg.DashEnabled)
	if err := r.CompileOnce(w); err != nil {
		return fmt.Errorf("cmd: compiling original testcase: %w", err)
	}
	original, err := r.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("cmd: running original testcase: %w", err)
	}
	if original.Kind == runner.VerdictOK {
		return fmt.Errorf("cmd: testcase at %s does not reproduce a divergence", reduceTestPath)
	}

	result, err := reducer.Reduce(ctx, r, w, original, reduceVariationLimit)
	if err != nil {
		return fmt.Errorf("cmd: reducing testcase: %w", err)
	}

	dir, err := report.Save(reduceOutputDir, caseFromVerdict(result.Workload, result.Verdict, reduceFstFS, reduceSndFS, cfg.DashEnabled))
	if err != nil {
		return fmt.Errorf("cmd: saving reduced result: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reduced %d op(s) to %d op(s), saved to %s\n", len(w.Ops), len(result.Workload.Ops), dir)

	for i, variation := range result.Variations {
		vdir, err := report.Save(reduceOutputDir, caseFromVerdict(variation.Workload, variation.Verdict, reduceFstFS, reduceSndFS, cfg.DashEnabled))
		if err != nil {
			return fmt.Errorf("cmd: saving variation %d: %w", i, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "variation %d saved to %s\n", i, vdir)
	}
	return nil
}

func caseFromVerdict(w abstractfs.Workload, v runner.Verdict, fstFS, sndFS string, dashEnabled bool) report.Case {
	return report.Case{
		Workload:    w,
		FstFSName:   fstFS,
		SndFSName:   sndFS,
		FstTrace:    v.FstOutcome.Trace,
		SndTrace:    v.SndOutcome.Trace,
		FstStdout:   v.FstOutcome.Stdout,
		SndStdout:   v.SndOutcome.Stdout,
		FstStderr:   v.FstOutcome.Stderr,
		SndStderr:   v.SndOutcome.Stderr,
		TraceDiffs:  v.TraceDiffs,
		DashDiffs:   v.DashDiffs,
		DashEnabled: dashEnabled,
	}
}
