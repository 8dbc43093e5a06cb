package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/salary-predictor/internal/model"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the supported artifact format",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s\n", app, version)
		fmt.Printf("model artifact format: %s\n", model.FormatV1)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
