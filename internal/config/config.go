package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// DefaultAxeScriptURL is where axe-core is fetched from when no local copy
// is configured.
const DefaultAxeScriptURL = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js"

// Config holds all configuration for a11yspectre
type Config struct {
	// Directory rendered reports are written to
	ReportsDir string `mapstructure:"reports_dir"`

	// SQLite history database
	DBPath string `mapstructure:"db_path"`

	// Default output formats (html, pdf)
	Formats []string `mapstructure:"formats"`

	// Timezone used for report timestamps
	DisplayTimezone string `mapstructure:"display_timezone"`

	// Write the raw scan result to DumpPath before reporting
	DumpResults bool   `mapstructure:"dump_results"`
	DumpPath    string `mapstructure:"dump_path"`

	// Network and browser deadlines
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	HTTPRetries       int           `mapstructure:"http_retries"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	NavigationRetries int           `mapstructure:"navigation_retries"`
	AuditTimeout      time.Duration `mapstructure:"audit_timeout"`
	PDFTimeout        time.Duration `mapstructure:"pdf_timeout"`

	// robots.txt crawl delay handling
	HonorCrawlDelay bool          `mapstructure:"honor_crawl_delay"`
	MaxCrawlDelay   time.Duration `mapstructure:"max_crawl_delay"`

	// Chromium executable; empty means discover from PATH
	BrowserPath string `mapstructure:"browser_path"`

	// Launch Chromium with --no-sandbox (containers running as root)
	BrowserNoSandbox bool `mapstructure:"browser_no_sandbox"`

	// User-Agent for robots.txt and reachability requests
	UserAgent string `mapstructure:"user_agent"`

	Axe AxeConfig `mapstructure:"axe"`

	// Exit 1 when a check finds more violations than this (0 disables)
	FailThreshold int `mapstructure:"fail_threshold"`

	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
	LogFile  string `mapstructure:"log_file"`

	// Verbose output
	Verbose bool `mapstructure:"verbose"`

	// Debug mode
	Debug bool `mapstructure:"debug"`
}

// AxeConfig locates the axe-core script injected into audited pages.
type AxeConfig struct {
	ScriptPath string `mapstructure:"script_path"`
	ScriptURL  string `mapstructure:"script_url"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		ReportsDir:        "reports",
		DBPath:            "reports.db",
		Formats:           []string{"html"},
		DisplayTimezone:   "Europe/Lisbon",
		DumpResults:       true,
		DumpPath:          "axe_results.json",
		HTTPTimeout:       10 * time.Second,
		HTTPRetries:       2,
		NavigationTimeout: 30 * time.Second,
		NavigationRetries: 0,
		AuditTimeout:      2 * time.Minute,
		PDFTimeout:        time.Minute,
		HonorCrawlDelay:   false,
		MaxCrawlDelay:     30 * time.Second,
		UserAgent:         "a11yspectre",
		Axe: AxeConfig{
			ScriptURL: DefaultAxeScriptURL,
		},
		FailThreshold: 0,
		LogLevel:      "info",
	}
}

// Load loads configuration with the following precedence (lowest to highest):
// 1. Default values
// 2. Config file (~/a11yspectre.yaml or ./a11yspectre.yaml)
// 3. Environment variables (A11YSPECTRE_*)
// 4. CLI flags (handled by caller)
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile loads configuration from a specific file path
// If path is empty, it searches for config in standard locations
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("reports_dir", defaults.ReportsDir)
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("formats", defaults.Formats)
	v.SetDefault("display_timezone", defaults.DisplayTimezone)
	v.SetDefault("dump_results", defaults.DumpResults)
	v.SetDefault("dump_path", defaults.DumpPath)
	v.SetDefault("http_timeout", defaults.HTTPTimeout)
	v.SetDefault("http_retries", defaults.HTTPRetries)
	v.SetDefault("navigation_timeout", defaults.NavigationTimeout)
	v.SetDefault("navigation_retries", defaults.NavigationRetries)
	v.SetDefault("audit_timeout", defaults.AuditTimeout)
	v.SetDefault("pdf_timeout", defaults.PDFTimeout)
	v.SetDefault("honor_crawl_delay", defaults.HonorCrawlDelay)
	v.SetDefault("max_crawl_delay", defaults.MaxCrawlDelay)
	v.SetDefault("browser_path", "")
	v.SetDefault("browser_no_sandbox", false)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("axe.script_path", "")
	v.SetDefault("axe.script_url", defaults.Axe.ScriptURL)
	v.SetDefault("fail_threshold", defaults.FailThreshold)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_json", false)
	v.SetDefault("log_file", "")
	v.SetDefault("verbose", false)
	v.SetDefault("debug", false)

	v.SetConfigName("a11yspectre")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 1. Current directory
		v.AddConfigPath(".")

		// 2. Home directory
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}

		// 3. XDG config directory
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			v.AddConfigPath(filepath.Join(xdgConfig, "a11yspectre"))
		}
	}

	// A11YSPECTRE_AXE_SCRIPT_PATH maps to axe.script_path
	v.SetEnvPrefix("A11YSPECTRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Only return error if it's not a "file not found" error
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	for _, f := range c.Formats {
		for _, part := range strings.Split(f, ",") {
			switch strings.ToLower(strings.TrimSpace(part)) {
			case "html", "pdf", "":
			default:
				return fmt.Errorf("invalid format: %s (must be html or pdf)", part)
			}
		}
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	durations := map[string]time.Duration{
		"http_timeout":       c.HTTPTimeout,
		"navigation_timeout": c.NavigationTimeout,
		"audit_timeout":      c.AuditTimeout,
		"pdf_timeout":        c.PDFTimeout,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.MaxCrawlDelay < 0 {
		return fmt.Errorf("max_crawl_delay cannot be negative")
	}
	if c.HTTPRetries < 0 || c.NavigationRetries < 0 {
		return fmt.Errorf("retry counts cannot be negative")
	}
	if c.FailThreshold < 0 {
		return fmt.Errorf("fail_threshold cannot be negative")
	}

	if c.ReportsDir == "" {
		return fmt.Errorf("reports_dir cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path cannot be empty")
	}
	if c.DumpResults && c.DumpPath == "" {
		return fmt.Errorf("dump_path cannot be empty when dump_results is enabled")
	}
	if c.Axe.ScriptPath == "" && c.Axe.ScriptURL == "" {
		return fmt.Errorf("axe.script_path or axe.script_url must be set")
	}

	return nil
}

// Location loads the display timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.DisplayTimezone == "" || strings.EqualFold(c.DisplayTimezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid display_timezone %q: %w", c.DisplayTimezone, err)
	}
	return loc, nil
}

// ResolvePath expands ~ and converts a configured path to an absolute one.
func ResolvePath(p string) (string, error) {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// ShouldFailOnThreshold checks if the violation count exceeds the threshold
func (c *Config) ShouldFailOnThreshold(violationCount int) bool {
	if c.FailThreshold == 0 {
		return false // No threshold check
	}
	return violationCount > c.FailThreshold
}

// ConfigPath returns the default config file location in the home directory.
func ConfigPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return "a11yspectre.yaml"
	}
	return filepath.Join(home, "a11yspectre.yaml")
}

// GenerateSampleConfig generates a sample configuration file content
func GenerateSampleConfig() string {
	return `# a11yspectre configuration
# Save this file as ~/a11yspectre.yaml or ./a11yspectre.yaml

# Where rendered reports go
reports_dir: reports

# Scan history database
db_path: reports.db

# Default report formats: html, pdf, or both
formats:
  - html

# Timezone for report timestamps (IANA name or "local")
display_timezone: Europe/Lisbon

# Keep the raw axe-core result next to the reports for debugging
dump_results: true
dump_path: axe_results.json

# Deadlines
http_timeout: 10s
http_retries: 2
navigation_timeout: 30s
navigation_retries: 0
audit_timeout: 2m
pdf_timeout: 1m

# Wait for the robots.txt Crawl-delay before auditing (capped)
honor_crawl_delay: false
max_crawl_delay: 30s

# Chromium executable (empty = search PATH)
# browser_path: /usr/bin/chromium
browser_no_sandbox: false

# axe-core source: a local file wins over the URL
axe:
  # script_path: ./axe.min.js
  script_url: ` + DefaultAxeScriptURL + `

# Exit code 1 if a check finds more violations than this (0 = disabled)
fail_threshold: 0

# Logging
log_level: info
log_json: false
# log_file: a11yspectre.log
`
}
