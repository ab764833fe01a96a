package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .mdview.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to mdview! Let's configure your viewer.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Port.
	portPrompt := promptui.Prompt{
		Label:   "Port to serve on",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port selection: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 2. Auto-refresh interval.
	refreshPrompt := promptui.Select{
		Label: "Auto-refresh rendered pages",
		Items: []string{
			"every 30 seconds (default)",
			"every 10 seconds",
			"every 60 seconds",
			"manual only",
		},
	}
	idx, _, err := refreshPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("refresh selection: %w", err)
	}
	switch idx {
	case 1:
		cfg.RefreshIntervalMs = 10000
	case 2:
		cfg.RefreshIntervalMs = 60000
	case 3:
		cfg.RefreshIntervalMs = 0
	}

	// 3. Browser.
	browserPrompt := promptui.Select{
		Label: "Open browser on launch",
		Items: []string{"yes", "no"},
	}
	bIdx, _, err := browserPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("browser selection: %w", err)
	}
	cfg.OpenBrowser = bIdx == 0

	if err := cfg.Save(".mdview.yml"); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Println("Configuration saved to .mdview.yml")
	return cfg, nil
}
