package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for playreviews
type Config struct {
	// Review source settings
	Store StoreConfig `yaml:"store" json:"store"`

	// Paging loop settings
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval"`

	// Request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Date window and languages
	Filter FilterConfig `yaml:"filter" json:"filter"`

	// Export settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// StoreConfig holds Google Play request settings
type StoreConfig struct {
	Language  string        `yaml:"language" json:"language"`
	Country   string        `yaml:"country" json:"country"`
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// RetrievalConfig holds paging loop settings
type RetrievalConfig struct {
	TargetCount          int           `yaml:"target_count" json:"target_count"`
	BaseDelay            time.Duration `yaml:"base_delay" json:"base_delay"`
	PageSize             int           `yaml:"page_size" json:"page_size"`
	MaxConsecutiveErrors int           `yaml:"max_consecutive_errors" json:"max_consecutive_errors"`
}

// RateLimitConfig holds request pacing configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// FilterConfig holds the filter criteria. Dates are YYYY-MM-DD; an empty
// end date means today.
type FilterConfig struct {
	Languages     []string `yaml:"languages" json:"languages"`
	StartDate     string   `yaml:"start_date" json:"start_date"`
	EndDate       string   `yaml:"end_date" json:"end_date"`
	MinConfidence float64  `yaml:"min_confidence" json:"min_confidence"`
}

// OutputConfig holds export configuration
type OutputConfig struct {
	BaseDirectory   string `yaml:"base_directory" json:"base_directory"`
	Format          string `yaml:"format" json:"format"`
	FileNamePattern string `yaml:"file_name_pattern" json:"file_name_pattern"`
	IncludeLanguage bool   `yaml:"include_language" json:"include_language"`
	WriteSummary    bool   `yaml:"write_summary" json:"write_summary"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// MaxPageSize is the largest page the store serves
const MaxPageSize = 200

// SupportedLanguages are the filter languages the language detector can
// report. Kazakh and Armenian reviews cannot be told apart by it.
var SupportedLanguages = []string{"ru", "en", "uk", "be", "az", "ka"}

// IsSupportedLanguage reports whether code names one of SupportedLanguages.
// Three-letter and mixed-case codes are accepted ("RUS" is "ru").
func IsSupportedLanguage(code string) bool {
	base, err := language.ParseBase(strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return false
	}
	for _, l := range SupportedLanguages {
		if base.String() == l {
			return true
		}
	}
	return false
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Language:  "ru",
			Country:   "ru",
			BaseURL:   "https://play.google.com",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Timeout:   30 * time.Second,
		},
		Retrieval: RetrievalConfig{
			TargetCount:          500,
			BaseDelay:            2500 * time.Millisecond,
			PageSize:             MaxPageSize,
			MaxConsecutiveErrors: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 20,
			BurstSize:         1,
		},
		Filter: FilterConfig{
			Languages: []string{"ru"},
			StartDate: "2023-01-01",
		},
		Output: OutputConfig{
			BaseDirectory:   ".",
			Format:          "both",
			FileNamePattern: "reviews_{app}_{date}.{ext}",
			IncludeLanguage: true,
			WriteSummary:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from PLAYREVIEWS_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("PLAYREVIEWS_LANGUAGE"); v != "" {
		c.Store.Language = v
	}
	if v := os.Getenv("PLAYREVIEWS_COUNTRY"); v != "" {
		c.Store.Country = v
	}
	if v := os.Getenv("PLAYREVIEWS_BASE_URL"); v != "" {
		c.Store.BaseURL = v
	}
	if v := os.Getenv("PLAYREVIEWS_TARGET_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PLAYREVIEWS_TARGET_COUNT: %w", err))
		} else {
			c.Retrieval.TargetCount = n
		}
	}
	if v := os.Getenv("PLAYREVIEWS_BASE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PLAYREVIEWS_BASE_DELAY: %w", err))
		} else {
			c.Retrieval.BaseDelay = d
		}
	}
	if v := os.Getenv("PLAYREVIEWS_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PLAYREVIEWS_REQUESTS_PER_MINUTE: %w", err))
		} else {
			c.RateLimit.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("PLAYREVIEWS_FILTER_LANGUAGES"); v != "" {
		c.Filter.Languages = splitList(v)
	}
	if v := os.Getenv("PLAYREVIEWS_START_DATE"); v != "" {
		c.Filter.StartDate = v
	}
	if v := os.Getenv("PLAYREVIEWS_END_DATE"); v != "" {
		c.Filter.EndDate = v
	}
	if v := os.Getenv("PLAYREVIEWS_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("PLAYREVIEWS_OUTPUT_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("PLAYREVIEWS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".playreviews.yaml",
		".playreviews.yml",
		filepath.Join(home, ".config", "playreviews", "config.yaml"),
		filepath.Join(home, ".playreviews.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Store.Language == "" || c.Store.Country == "" {
		errs = append(errs, errors.New("store language and country are required"))
	}
	if c.Store.BaseURL == "" {
		errs = append(errs, errors.New("store base URL is required"))
	}
	if c.Store.Timeout <= 0 {
		errs = append(errs, errors.New("store timeout must be positive"))
	}

	if c.Retrieval.TargetCount <= 0 {
		errs = append(errs, errors.New("target count must be positive"))
	}
	if c.Retrieval.BaseDelay <= 0 {
		errs = append(errs, errors.New("base delay must be positive"))
	}
	if c.Retrieval.PageSize <= 0 || c.Retrieval.PageSize > MaxPageSize {
		errs = append(errs, fmt.Errorf("page size must be between 1 and %d", MaxPageSize))
	}
	if c.Retrieval.MaxConsecutiveErrors <= 0 {
		errs = append(errs, errors.New("max consecutive errors must be positive"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if len(c.Filter.Languages) == 0 {
		errs = append(errs, errors.New("at least one filter language is required"))
	}
	for _, lang := range c.Filter.Languages {
		if !IsSupportedLanguage(lang) {
			errs = append(errs, fmt.Errorf("unsupported filter language %q, choose from %s", lang, strings.Join(SupportedLanguages, ", ")))
		}
	}
	if c.Filter.MinConfidence < 0 || c.Filter.MinConfidence > 1 {
		errs = append(errs, errors.New("min confidence must be between 0 and 1"))
	}

	validFormats := map[string]bool{"csv": true, "xlsx": true, "both": true}
	if !validFormats[strings.ToLower(c.Output.Format)] {
		errs = append(errs, fmt.Errorf("invalid output format %q", c.Output.Format))
	}
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.FileNamePattern == "" {
		errs = append(errs, errors.New("file name pattern is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["count"].(int); ok && v > 0 {
		c.Retrieval.TargetCount = v
	}
	if v, ok := flags["delay"].(time.Duration); ok && v > 0 {
		c.Retrieval.BaseDelay = v
	}
	if v, ok := flags["from"].(string); ok && v != "" {
		c.Filter.StartDate = v
	}
	if v, ok := flags["to"].(string); ok && v != "" {
		c.Filter.EndDate = v
	}
	if v, ok := flags["lang"].([]string); ok && len(v) > 0 {
		c.Filter.Languages = v
	}
	if v, ok := flags["format"].(string); ok && v != "" {
		c.Output.Format = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["include-language"].(bool); ok {
		c.Output.IncludeLanguage = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["no-color"].(bool); ok && v {
		c.Logging.NoColor = true
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".playreviews.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
