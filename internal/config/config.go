package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// DefaultSourceAPI is the source REST root used when WP_API is not set
const DefaultSourceAPI = "https://equal-oil.localsite.io/wp-json/wp/v2"

// Config represents the application configuration
type Config struct {
	DestinationAPI   string        `yaml:"destination_api"`
	DestinationToken string        `yaml:"destination_token"`
	SourceAPI        string        `yaml:"source_api"`
	SourceUser       string        `yaml:"source_user"`
	SourcePassword   string        `yaml:"source_password"`
	SourcePerPage    int           `yaml:"source_per_page"`
	PublishJobs      int           `yaml:"publish_jobs"`
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	JournalPath      string        `yaml:"journal_path"`
	LogLevel         string        `yaml:"log_level"`
	Output           string        `yaml:"output"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. .env.local or .env (dotenv) - walks up parent directories to find it
// 3. ~/.config/pressmigrate/config.yaml (YAML)
func Load() (*Config, error) {
	cfg := &Config{
		SourceAPI:     DefaultSourceAPI,
		SourcePerPage: 100,
		PublishJobs:   1,
		HTTPTimeout:   60 * time.Second,
		LogLevel:      "info",
		Output:        "table",
	}

	// Load the dotenv file if one exists (walking up parent directories).
	// godotenv never overrides variables already set in the environment.
	if envPath := findEnvFile(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// YAML config is optional; a missing file is fine, a broken one is not
	if err := loadYAMLConfig(cfg); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Annotate(err, "reading config.yaml")
	}

	if v := getEnvOrFile("HYGRAPH_API", "HYGRAPH_API_FILE"); v != "" {
		cfg.DestinationAPI = v
	}
	if v := getEnvOrFile("HYGRAPH_TOKEN", "HYGRAPH_TOKEN_FILE"); v != "" {
		cfg.DestinationToken = v
	}
	if v := os.Getenv("WP_API"); v != "" {
		cfg.SourceAPI = v
	}
	if v := os.Getenv("WP_USER"); v != "" {
		cfg.SourceUser = v
	}
	if v := getEnvOrFile("WP_PASSWORD", "WP_PASSWORD_FILE"); v != "" {
		cfg.SourcePassword = v
	}
	if v := os.Getenv("WP_PER_PAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.NotValidf("WP_PER_PAGE %q", v)
		}
		cfg.SourcePerPage = n
	}
	if v := os.Getenv("PRESSMIGRATE_PUBLISH_JOBS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.NotValidf("PRESSMIGRATE_PUBLISH_JOBS %q", v)
		}
		cfg.PublishJobs = n
	}
	if v := os.Getenv("PRESSMIGRATE_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.NotValidf("PRESSMIGRATE_HTTP_TIMEOUT %q", v)
		}
		cfg.HTTPTimeout = d
	}
	if v := os.Getenv("PRESSMIGRATE_JOURNAL_PATH"); v != "" {
		cfg.JournalPath = v
	}
	if v := os.Getenv("PRESSMIGRATE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PRESSMIGRATE_OUTPUT"); v != "" {
		cfg.Output = v
	}

	if cfg.SourcePerPage < 1 || cfg.SourcePerPage > 100 {
		cfg.SourcePerPage = 100
	}
	if cfg.PublishJobs < 1 {
		cfg.PublishJobs = 1
	}

	return cfg, nil
}

// Validate checks the settings a run cannot start without. Only the
// destination is mandatory; the source has built-in defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DestinationAPI) == "" || strings.TrimSpace(c.DestinationToken) == "" {
		return errors.NewNotValid(nil, "missing destination credentials: set HYGRAPH_API and HYGRAPH_TOKEN")
	}
	return nil
}

// LoggingSpec returns the loggo configuration string for LogLevel
func (c *Config) LoggingSpec() string {
	level := strings.ToUpper(strings.TrimSpace(c.LogLevel))
	if level == "" {
		level = "INFO"
	}
	if strings.Contains(level, "=") {
		// already a full loggo spec such as "<root>=INFO;pressmigrate.source=DEBUG"
		return c.LogLevel
	}
	return "<root>=" + level
}

// loadYAMLConfig loads configuration from ~/.config/pressmigrate/config.yaml
func loadYAMLConfig(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	configPath := filepath.Join(homeDir, ".config", "pressmigrate", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// envFileNames are tried in each directory, most specific first
var envFileNames = []string{".env.local", ".env"}

// findEnvFile searches for a dotenv file starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to the file if found, empty string otherwise.
func findEnvFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, just check cwd
		for _, name := range envFileNames {
			if _, err := os.Stat(name); err == nil {
				return name
			}
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Clean paths for reliable comparison
	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		for _, name := range envFileNames {
			envPath := filepath.Join(dir, name)
			if _, err := os.Stat(envPath); err == nil {
				return envPath
			}
		}

		// Stop if we've reached home directory
		if dir == homeDir {
			break
		}

		// Get parent directory
		parent := filepath.Dir(dir)

		// Stop if we've reached the filesystem root
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}
