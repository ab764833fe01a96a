package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mdview/internal/config"
	"github.com/ziadkadry99/mdview/internal/history"
	"github.com/ziadkadry99/mdview/internal/library"
	"github.com/ziadkadry99/mdview/internal/server"
	"github.com/ziadkadry99/mdview/internal/watch"
)

var (
	serveDir  string
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the viewer daemon in the foreground",
	Long:  `Serves the markdown files in a directory as rendered HTML until interrupted. Use launch to run it in the background instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if serveHost != "" {
			cfg.Host = serveHost
		}
		if servePort != 0 {
			cfg.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		dir, err := filepath.Abs(serveDir)
		if err != nil {
			return err
		}

		lib, err := library.New(dir, cfg.Include, cfg.Exclude)
		if err != nil {
			return fmt.Errorf("opening directory: %w", err)
		}

		hist, err := history.Open(historyPath(dir))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: view history unavailable: %v\n", err)
			hist = nil
		} else {
			defer hist.Close()
		}

		watcher, err := watch.New(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: file watching unavailable: %v\n", err)
			watcher = nil
		} else {
			defer watcher.Close()
		}

		srv := server.New(server.Config{
			Host:              cfg.Host,
			Port:              cfg.Port,
			Dir:               dir,
			RefreshIntervalMs: cfg.RefreshIntervalMs,
		}, lib, hist, watcher)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-sig:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

// historyPath puts the history database next to the pid files rather
// than in the served directory.
func historyPath(dir string) string {
	if cache, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cache, "mdview", "history.db")
	}
	return filepath.Join(dir, ".mdview-history.db")
}

func init() {
	serveCmd.Flags().StringVar(&serveDir, "dir", ".", "directory to serve")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to bind (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to bind (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
