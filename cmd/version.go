package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/blocksad/internal/sad"
)

var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "blocksad version %s (%s accumulation)\n", version, sad.Active().Name())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
