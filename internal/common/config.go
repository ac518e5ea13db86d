package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the helpers configuration
type Config struct {
	Environment string            `toml:"environment"` // "development", "ci", ... informational only
	BaseURL     string            `toml:"base_url" validate:"omitempty,url"`
	RoutesFile  string            `toml:"routes_file"` // Optional YAML file with a top-level "routes" map
	Browser     BrowserConfig     `toml:"browser"`
	Wait        WaitConfig        `toml:"wait"`
	Debug       DebugConfig       `toml:"debug"`
	Cache       CacheConfig       `toml:"cache"`
	Database    DatabaseConfig    `toml:"database"`
	Routes      map[string]string `toml:"routes"` // Route name -> path pattern with {placeholders}
	Admin       AdminConfig       `toml:"admin"`
	Logging     LoggingConfig     `toml:"logging"`
}

// BrowserConfig controls how the chromedp session is allocated
type BrowserConfig struct {
	Headless     bool   `toml:"headless"`
	DisableGPU   bool   `toml:"disable_gpu"`
	NoSandbox    bool   `toml:"no_sandbox"`
	WindowWidth  int    `toml:"window_width" validate:"gte=0"`
	WindowHeight int    `toml:"window_height" validate:"gte=0"`
	UserAgent    string `toml:"user_agent"`
	RemoteURL    string `toml:"remote_url" validate:"omitempty,url"` // DevTools websocket URL of an already running browser
	Timeout      string `toml:"timeout"`                             // e.g. "30s", upper bound for a single browser action; "0" disables it
}

// WaitConfig controls the spin-wait loop
type WaitConfig struct {
	PollInterval   string `toml:"poll_interval"`   // e.g. "100ms"
	DefaultTimeout string `toml:"default_timeout"` // e.g. "5s"
}

// DebugConfig controls failed-step artifacts
type DebugConfig struct {
	LogsDir    string `toml:"logs_dir"`
	Screenshot bool   `toml:"screenshot"`
	HTML       bool   `toml:"html"`
}

// CacheConfig selects where cached cookies and executed steps live
type CacheConfig struct {
	Backend   string `toml:"backend" validate:"oneof=memory badger"`
	Path      string `toml:"path" validate:"required_if=Backend badger"`
	Namespace string `toml:"namespace"` // Key prefix, lets several suites share one badger directory
}

// DatabaseConfig describes the database dumped before @behat_helpers_restore_db scenarios
type DatabaseConfig struct {
	Driver         string `toml:"driver"`
	DSN            string `toml:"dsn"`
	CacheDir       string `toml:"cache_dir"`
	DumpCommand    string `toml:"dump_command"`
	RestoreCommand string `toml:"restore_command"`
}

// AdminConfig describes the admin backend login form
type AdminConfig struct {
	LoginRoute    string `toml:"login_route"`
	UsernameField string `toml:"username_field"`
	PasswordField string `toml:"password_field"`
	LoginButton   string `toml:"login_button"`
}

// LoggingConfig mirrors the arbor writer setup
type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output"` // "stdout", "file"
	Dir    string   `toml:"dir"`
}

type routesFile struct {
	Routes map[string]string `yaml:"routes"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		BaseURL:     "http://localhost",
		Browser: BrowserConfig{
			Headless:     true,
			DisableGPU:   true,
			NoSandbox:    false,
			WindowWidth:  1920,
			WindowHeight: 1080,
			Timeout:      "30s",
		},
		Wait: WaitConfig{
			PollInterval:   "100ms", // Same cadence as the Selenium wait loop
			DefaultTimeout: "5s",
		},
		Debug: DebugConfig{
			LogsDir:    "./var/logs",
			Screenshot: true,
			HTML:       true,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			Namespace: "default",
		},
		Database: DatabaseConfig{
			Driver:         "mysql",
			CacheDir:       "./var/cache",
			DumpCommand:    "mysqldump",
			RestoreCommand: "mysql",
		},
		Routes: map[string]string{},
		Admin: AdminConfig{
			LoginRoute:    "sonata_user_admin_security_login",
			UsernameField: "_username",
			PasswordField: "_password",
			LoginButton:   "Connexion",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
			Dir:    "./var/logs",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if config.RoutesFile != "" {
		if err := config.loadRoutesFile(); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadRoutesFile merges the YAML routes file into Routes; entries from toml win
func (c *Config) loadRoutesFile() error {
	data, err := os.ReadFile(c.RoutesFile)
	if err != nil {
		return fmt.Errorf("failed to read routes file %s: %w", c.RoutesFile, err)
	}

	var rf routesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return fmt.Errorf("failed to parse routes file %s: %w", c.RoutesFile, err)
	}

	if c.Routes == nil {
		c.Routes = make(map[string]string, len(rf.Routes))
	}
	for name, pattern := range rf.Routes {
		if _, exists := c.Routes[name]; !exists {
			c.Routes[name] = pattern
		}
	}
	return nil
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := []struct {
		key      string
		value    string
		positive bool
	}{
		{"browser.timeout", c.Browser.Timeout, false},
		{"wait.poll_interval", c.Wait.PollInterval, true},
		{"wait.default_timeout", c.Wait.DefaultTimeout, true},
	}
	for _, d := range durations {
		if d.value == "" && !d.positive {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid configuration: %s: %w", d.key, err)
		}
		if d.positive && parsed <= 0 {
			return fmt.Errorf("invalid configuration: %s must be positive, got %s", d.key, d.value)
		}
		if parsed < 0 {
			return fmt.Errorf("invalid configuration: %s must not be negative, got %s", d.key, d.value)
		}
	}
	return nil
}

// ActionTimeout returns the parsed browser timeout; zero when unset
func (b BrowserConfig) ActionTimeout() time.Duration {
	return parseDuration(b.Timeout, 0)
}

// Poll returns the parsed poll interval
func (w WaitConfig) Poll() time.Duration {
	return parseDuration(w.PollInterval, 100*time.Millisecond)
}

// Timeout returns the parsed default wait timeout
func (w WaitConfig) Timeout() time.Duration {
	return parseDuration(w.DefaultTimeout, 5*time.Second)
}

// parseDuration falls back to def for empty or malformed values; Validate reports those
func parseDuration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("BEHAT_HELPERS_ENV"); env != "" {
		config.Environment = env
	}
	if baseURL := os.Getenv("BEHAT_HELPERS_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}
	if routesFile := os.Getenv("BEHAT_HELPERS_ROUTES_FILE"); routesFile != "" {
		config.RoutesFile = routesFile
	}

	// Browser configuration
	if headless := os.Getenv("BEHAT_HELPERS_BROWSER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}
	if noSandbox := os.Getenv("BEHAT_HELPERS_BROWSER_NO_SANDBOX"); noSandbox != "" {
		if ns, err := strconv.ParseBool(noSandbox); err == nil {
			config.Browser.NoSandbox = ns
		}
	}
	if remoteURL := os.Getenv("BEHAT_HELPERS_BROWSER_REMOTE_URL"); remoteURL != "" {
		config.Browser.RemoteURL = remoteURL
	}
	if timeout := os.Getenv("BEHAT_HELPERS_BROWSER_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.Browser.Timeout = timeout
		}
	}

	// Wait configuration
	if pollInterval := os.Getenv("BEHAT_HELPERS_WAIT_POLL_INTERVAL"); pollInterval != "" {
		if _, err := time.ParseDuration(pollInterval); err == nil {
			config.Wait.PollInterval = pollInterval
		}
	}

	// Debug configuration
	if logsDir := os.Getenv("BEHAT_HELPERS_DEBUG_LOGS_DIR"); logsDir != "" {
		config.Debug.LogsDir = logsDir
	}

	// Cache configuration
	if backend := os.Getenv("BEHAT_HELPERS_CACHE_BACKEND"); backend != "" {
		config.Cache.Backend = backend
	}
	if path := os.Getenv("BEHAT_HELPERS_CACHE_PATH"); path != "" {
		config.Cache.Path = path
	}

	// Database configuration
	if dsn := os.Getenv("BEHAT_HELPERS_DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if driver := os.Getenv("BEHAT_HELPERS_DATABASE_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if cacheDir := os.Getenv("BEHAT_HELPERS_DATABASE_CACHE_DIR"); cacheDir != "" {
		config.Database.CacheDir = cacheDir
	}

	// Logging configuration
	if level := os.Getenv("BEHAT_HELPERS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("BEHAT_HELPERS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// DumpDir returns the absolute directory used for database dumps
func (c *Config) DumpDir() string {
	if abs, err := filepath.Abs(c.Database.CacheDir); err == nil {
		return abs
	}
	return c.Database.CacheDir
}
