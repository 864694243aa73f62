package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the prophunter CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("prophunter version %s\n", version)
		fmt.Println("Rule-based trend strategy under prop-firm risk rules")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
