package main

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/blocksad/internal/store"
)

var (
	searchSizes    string
	searchMethod   string
	searchRadius   int
	searchIters    int
	searchSeed     int64
	searchWidth    int
	searchHeight   int
	searchShiftX   int
	searchShiftY   int
	searchNoise    int
	searchCompound bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run block motion search on a synthetic frame pair",
	Long: `Builds a random reference plane and a displaced, optionally noisy copy,
then estimates one motion vector per block with the chosen method. The
summary reports how many blocks found the true displacement.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchSizes, "size", "16x16", "Comma separated block sizes")
	searchCmd.Flags().StringVar(&searchMethod, "method", "diamond", "Search method: full, diamond, mayfly")
	searchCmd.Flags().IntVar(&searchRadius, "radius", 16, "Search radius in samples")
	searchCmd.Flags().IntVar(&searchIters, "iters", 30, "Mayfly iterations per block")
	searchCmd.Flags().Int64Var(&searchSeed, "seed", 42, "Random seed")
	searchCmd.Flags().IntVar(&searchWidth, "width", 256, "Plane width")
	searchCmd.Flags().IntVar(&searchHeight, "height", 256, "Plane height")
	searchCmd.Flags().IntVar(&searchShiftX, "dx", 3, "Horizontal displacement of the current plane")
	searchCmd.Flags().IntVar(&searchShiftY, "dy", -2, "Vertical displacement of the current plane")
	searchCmd.Flags().IntVar(&searchNoise, "noise", 0, "Noise amplitude added to the current plane")
	searchCmd.Flags().BoolVar(&searchCompound, "compound", false, "Score compound prediction from a second reference")
	addLocalJobFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	_, err := runLocalJob(cmd, store.JobConfig{
		Kind:        store.KindSearch,
		Sizes:       splitList(searchSizes),
		Method:      searchMethod,
		Radius:      searchRadius,
		Iters:       searchIters,
		Seed:        searchSeed,
		PlaneWidth:  searchWidth,
		PlaneHeight: searchHeight,
		ShiftX:      searchShiftX,
		ShiftY:      searchShiftY,
		Noise:       searchNoise,
		Compound:    searchCompound,
	})
	return err
}
