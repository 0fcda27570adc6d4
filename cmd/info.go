package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/blocksad/internal/cpu"
	"github.com/cwbudde/blocksad/internal/sad"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the compiled strategy, CPU features and block sizes",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	features := cpu.DetectFeatures()

	fmt.Fprintf(out, "Strategy:      %s\n", sad.Active().Name())
	fmt.Fprintf(out, "CPU:           %s\n", features)
	fmt.Fprintf(out, "Fused capable: %t\n", cpu.SupportsFused(features))

	sizes := make([]string, 0, len(sad.Catalogue()))
	for _, size := range sad.Catalogue() {
		sizes = append(sizes, size.String())
	}
	fmt.Fprintf(out, "Block sizes:   %s\n", strings.Join(sizes, " "))
	return nil
}
