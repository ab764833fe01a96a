package config

// Config is the top-level mdview configuration, corresponding to .mdview.yml.
type Config struct {
	Host              string   `yaml:"host" koanf:"host"`
	Port              int      `yaml:"port" koanf:"port"`
	RefreshIntervalMs int      `yaml:"refresh_interval_ms" koanf:"refresh_interval_ms"`
	Include           []string `yaml:"include" koanf:"include"`
	Exclude           []string `yaml:"exclude" koanf:"exclude"`
	LocalOnly         bool     `yaml:"local_only" koanf:"local_only"`
	OpenBrowser       bool     `yaml:"open_browser" koanf:"open_browser"`
}

// DefaultConfig returns the configuration used when no .mdview.yml exists.
func DefaultConfig() *Config {
	return &Config{
		Host:              "127.0.0.1",
		Port:              4444,
		RefreshIntervalMs: 30000,
		Include:           []string{"**/*.md", "**/*.markdown"},
		Exclude:           DefaultExcludes,
		LocalOnly:         true,
		OpenBrowser:       true,
	}
}

// DefaultExcludes are glob patterns excluded from the file listing by default.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	".archive/**",
	".remote-cache/**",
}
