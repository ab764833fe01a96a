package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mdview [directory]",
	Short: "Local markdown viewer with live refresh",
	Long: `mdview serves the markdown files in a directory as rendered HTML.
A background daemon renders and serves the files; viewer pages stay
synchronized with the daemon, flag a lost connection, and annotate
rendered content with reference-token styling and copy controls.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// A bare directory argument (or nothing at all) means launch.
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return runLaunch(dir)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".mdview.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
