package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fable",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fable version %s\n", strings.TrimSpace(fable.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
