package main

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/blocksad/internal/store"
)

var (
	benchSizes      string
	benchStrategies string
	benchIters      int
	benchWorkers    int
	benchSeed       int64
	benchCompound   bool
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure kernel throughput per block size and strategy",
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().StringVar(&benchSizes, "sizes", "", "Comma separated block sizes (default all)")
	benchCmd.Flags().StringVar(&benchStrategies, "strategy", "fused,pairwise", "Comma separated strategies: fused, pairwise, reference, active")
	benchCmd.Flags().IntVar(&benchIters, "iters", 20000, "Kernel calls per worker and round")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 1, "Concurrent goroutines calling the kernel")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 42, "Random seed")
	benchCmd.Flags().BoolVar(&benchCompound, "compound", false, "Also measure the compound (averaged) family")
	addLocalJobFlags(benchCmd)
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	_, err := runLocalJob(cmd, store.JobConfig{
		Kind:       store.KindBench,
		Sizes:      splitList(benchSizes),
		Strategies: splitList(benchStrategies),
		Iters:      benchIters,
		Workers:    benchWorkers,
		Seed:       benchSeed,
		Compound:   benchCompound,
	})
	return err
}
