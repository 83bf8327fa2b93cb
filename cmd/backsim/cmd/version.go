package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags.
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the backsim version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("backsim %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
