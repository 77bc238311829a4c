package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/blackbox"
	"github.com/diffuzzer/diffuzzer/broker"
	"github.com/diffuzzer/diffuzzer/config"
	"github.com/diffuzzer/diffuzzer/generator"
	"github.com/diffuzzer/diffuzzer/runner"
)

var (
	blackboxFstFS     string
	blackboxSndFS     string
	blackboxTestCount uint64
)

var blackboxCmd = &cobra.Command{
	Use:   "blackbox",
	Short: "Run the corpus-free, generate-from-scratch fuzz loop",
	RunE:  runBlackbox,
}

func init() {
	rootCmd.AddCommand(blackboxCmd)
	blackboxCmd.Flags().StringVar(&blackboxFstFS, "first-filesystem", "", "name of the first filesystem under test")
	blackboxCmd.Flags().StringVar(&blackboxSndFS, "second-filesystem", "", "name of the second filesystem under test")
	blackboxCmd.Flags().Uint64Var(&blackboxTestCount, "test-count", 0, "stop after this many tests (0 = unbounded)")
	blackboxCmd.MarkFlagRequired("first-filesystem")
	blackboxCmd.MarkFlagRequired("second-filesystem")
}

func runBlackbox(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	fst, err := buildHarness(ctx, cfg, blackboxFstFS, "/mnt/"+blackboxFstFS)
	if err != nil {
		return err
	}
	defer fst.Cleanup()
	snd, err := buildHarness(ctx, cfg, blackboxSndFS, "/mnt/"+blackboxSndFS)
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

	instanceID := "blackbox-" + uuid.NewString()

	loop := &blackbox.Loop{
		Runner:     runner.New(fst.Harness, snd.Harness, cfg.DashEnabled),
		Generator:  generator.New(timeSeed(), cfg.GeneratorWeights()),
		MaxOps:     int(cfg.MaxWorkloadLength),
		InstanceID: instanceID,
		OnEvent:    b.Send,
		OnCrash: func(w abstractfs.Workload, v runner.Verdict) {
			saveCrash(defaultCrashDir, blackboxFstFS, blackboxSndFS, w, v, cfg.DashEnabled)
		},
	}

	inst := &broker.Instance{
		ID:        instanceID,
		Loop:      loop,
		Listener:  fst.Listener,
		Watchdog:  fst.Process,
		Broker:    b,
		TestCount: blackboxTestCount,
	}
	if err := inst.Run(ctx); err != nil {
		return fmt.Errorf("cmd: blackbox instance failed: %w", err)
	}
	return nil
}
