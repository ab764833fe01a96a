package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mdview/internal/attach"
	"github.com/ziadkadry99/mdview/internal/config"
)

var (
	attachServer string
	attachPort   int
)

var attachCmd = &cobra.Command{
	Use:   "attach <file>",
	Short: "Run a live view of one file against a running daemon",
	Long: `Builds a live view session for a single markdown file served by a
running daemon. The session refreshes the rendered content on the
configured interval, probes the daemon for liveness, and serves the
current annotated snapshot locally: GET / for the page, POST /refresh
for a manual refresh, POST /copy?block=N to copy a code block.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		serverURL := attachServer
		if serverURL == "" {
			serverURL = fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
		}

		a, err := attach.New(attach.Options{
			ServerURL:       serverURL,
			File:            args[0],
			RefreshInterval: time.Duration(cfg.RefreshIntervalMs) * time.Millisecond,
		})
		if err != nil {
			return err
		}
		defer a.Close()

		addr := fmt.Sprintf("127.0.0.1:%d", attachPort)
		fmt.Printf("Attached to %s (%s)\n", serverURL, args[0])
		fmt.Printf("Snapshot on http://%s\n", addr)
		return http.ListenAndServe(addr, a.Handler())
	},
}

func init() {
	attachCmd.Flags().StringVar(&attachServer, "server", "", "daemon base URL (default from config)")
	attachCmd.Flags().IntVar(&attachPort, "port", 4445, "local port for the snapshot")
	rootCmd.AddCommand(attachCmd)
}
