package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mdview/internal/procman"
)

var (
	killPort int
	killAll  bool
)

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Stop running viewer daemons",
	Long:  `Stops the viewer on a specific port (--port), or every running viewer (--all). Each daemon gets a termination signal and a grace period before being force killed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if killPort != 0 && killAll {
			return fmt.Errorf("--port and --all are mutually exclusive")
		}
		if killPort == 0 && !killAll {
			return fmt.Errorf("specify --port <port> or --all")
		}

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		pm := procman.New(cwd)
		killed, err := pm.Kill(killPort)
		if err != nil {
			return err
		}
		if killed == 0 {
			if killPort != 0 {
				fmt.Printf("No viewer running on port %d\n", killPort)
			} else {
				fmt.Println("No viewers running")
			}
			return nil
		}
		fmt.Printf("Stopped %d viewer(s)\n", killed)
		return nil
	},
}

func init() {
	killCmd.Flags().IntVar(&killPort, "port", 0, "stop only the viewer on this port")
	killCmd.Flags().BoolVar(&killAll, "all", false, "stop every running viewer")
	rootCmd.AddCommand(killCmd)
}
