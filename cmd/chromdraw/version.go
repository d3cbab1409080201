package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/chromatic"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of chromdraw",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chromdraw version %s\n", chromatic.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
