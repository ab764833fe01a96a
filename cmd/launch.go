package cmd

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mdview/internal/config"
	"github.com/ziadkadry99/mdview/internal/procman"
)

var (
	launchPort      int
	launchNoBrowser bool
)

var launchCmd = &cobra.Command{
	Use:   "launch [directory]",
	Short: "Start the viewer daemon in the background",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return runLaunch(dir)
	},
}

func runLaunch(dir string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if launchPort != 0 {
		cfg.Port = launchPort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	pm := procman.New(abs)
	res, err := pm.Launch(procman.LaunchOptions{
		Dir:  abs,
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Serving %s\n", abs)
	fmt.Printf("URL: %s (pid %d)\n", res.URL, res.PID)
	fmt.Printf("Use 'mdview kill --port %d' to stop it\n", res.Port)

	if cfg.OpenBrowser && !launchNoBrowser {
		openBrowser(res.URL)
	}
	return nil
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err == nil {
		go cmd.Wait()
	}
}

func init() {
	launchCmd.Flags().IntVar(&launchPort, "port", 0, "port to serve on (overrides config)")
	launchCmd.Flags().BoolVar(&launchNoBrowser, "no-browser", false, "do not open the browser")
	rootCmd.AddCommand(launchCmd)
}
