package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/broker"
	"github.com/diffuzzer/diffuzzer/config"
	"github.com/diffuzzer/diffuzzer/greybox"
	"github.com/diffuzzer/diffuzzer/greybox/feedback"
	"github.com/diffuzzer/diffuzzer/mutator"
	"github.com/diffuzzer/diffuzzer/runner"
)

var (
	greyboxFstFS      string
	greyboxSndFS      string
	greyboxTestCount  uint64
	greyboxCorpusPath string
)

var greyboxCmd = &cobra.Command{
	Use:   "greybox",
	Short: "Run the corpus-guided, coverage-feedback fuzz loop",
	RunE:  runGreybox,
}

func init() {
	rootCmd.AddCommand(greyboxCmd)
	greyboxCmd.Flags().StringVar(&greyboxFstFS, "first-filesystem", "", "name of the first filesystem under test")
	greyboxCmd.Flags().StringVar(&greyboxSndFS, "second-filesystem", "", "name of the second filesystem under test")
	greyboxCmd.Flags().Uint64Var(&greyboxTestCount, "test-count", 0, "stop after this many tests (0 = unbounded)")
	greyboxCmd.Flags().StringVar(&greyboxCorpusPath, "corpus-path", "", "directory to load/persist the corpus from (unused if empty)")
	greyboxCmd.MarkFlagRequired("first-filesystem")
	greyboxCmd.MarkFlagRequired("second-filesystem")
}

func runGreybox(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	fst, err := buildHarness(ctx, cfg, greyboxFstFS, "/mnt/"+greyboxFstFS)
	if err != nil {
		return err
	}
	defer fst.Cleanup()
	snd, err := buildHarness(ctx, cfg, greyboxSndFS, "/mnt/"+greyboxSndFS)
	if err != nil {
		return err
	}
	defer snd.Cleanup()

	b := broker.New(64)
	go b.Run()
	defer b.Close()
	if cfg.MetricsAddr != "" {
		shutdown := b.EnableMetrics(cfg.MetricsAddr)
		defer shutdown(ctx)
	}
	if broker.IsConsoleCapable() {
		go b.RunConsole(ctx)
	}

	instanceID := "greybox-" + uuid.NewString()

	corpus := greybox.NewCorpus()
	if greyboxCorpusPath != "" {
		corpus, err = greybox.LoadCorpus(greyboxCorpusPath)
		if err != nil {
			return fmt.Errorf("cmd: loading corpus: %w", err)
		}
	}

	loop := &greybox.Loop{
		Runner:     runner.New(fst.Harness, snd.Harness, cfg.DashEnabled),
		Mutator:    mutator.New(timeSeed(), cfg.MutatorConfig()),
		Corpus:     corpus,
		Feedback:   feedback.NewNone(),
		InstanceID: instanceID,
		OnEvent:    b.Send,
		OnCrash: func(w abstractfs.Workload, v runner.Verdict) {
			saveCrash(defaultCrashDir, greyboxFstFS, greyboxSndFS, w, v, cfg.DashEnabled)
		},
	}

	inst := &broker.Instance{
		ID:        instanceID,
		Loop:      loop,
		Listener:  fst.Listener,
		Watchdog:  fst.Process,
		Broker:    b,
		TestCount: greyboxTestCount,
	}
	runErr := inst.Run(ctx)

	if greyboxCorpusPath != "" && cfg.Greybox.SaveCorpus {
		if err := corpus.SaveCorpus(greyboxCorpusPath); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "cmd: saving corpus: %v\n", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("cmd: greybox instance failed: %w", runErr)
	}
	return nil
}
