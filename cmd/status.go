package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mdview/internal/procman"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List running viewer daemons",
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		exitOnError(err)

		pm := procman.New(cwd)
		running, cleaned, err := pm.Status()
		exitOnError(err)

		if cleaned > 0 && verbose {
			fmt.Printf("Cleaned up %d stale pid file(s)\n", cleaned)
		}
		if len(running) == 0 {
			fmt.Println("No viewers running")
			return
		}
		fmt.Printf("%d viewer(s) running:\n", len(running))
		for _, v := range running {
			fmt.Printf("  port %d: pid %d - http://127.0.0.1:%d\n", v.Port, v.PID, v.Port)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
