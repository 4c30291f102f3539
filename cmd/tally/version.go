package main

import (
	"fmt"

	"github.com/mpellerin/tally/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tally version %s\n", version.Get())
	},
}
