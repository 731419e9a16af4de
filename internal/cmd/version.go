package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("veil %s\n", resolvedVersion())
		if Commit != "" {
			fmt.Printf("  commit: %s\n", Commit)
		}
		if BuildDate != "" {
			fmt.Printf("  built:  %s\n", BuildDate)
		}
		fmt.Printf("  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
