package model

import "time"

// Config holds every runtime setting for coding documents
type Config struct {
	Tagger      TaggerConfig      `yaml:"tagger" json:"tagger"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Rules       RulesConfig       `yaml:"rules" json:"rules"`
	Prepare     PrepareConfig     `yaml:"prepare" json:"prepare"`
	Store       StoreConfig       `yaml:"store" json:"store"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// TaggerConfig configures the concept-recognition service client
type TaggerConfig struct {
	URL               string        `yaml:"url" json:"url"`         // Service endpoint
	Timeout           time.Duration `yaml:"timeout" json:"timeout"` // Per request timeout
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" json:"max_body_bytes"` // Response size cap
	HTTPProxy         string        `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"`
	NoProxy           string        `yaml:"no_proxy,omitempty" json:"no_proxy,omitempty"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`                 // Retries after the first attempt
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"` // 0 disables throttling
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
}

// CacheConfig configures caching of tagger responses
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Directory string        `yaml:"directory" json:"directory"` // Disk layer, empty for memory only
	TTL       time.Duration `yaml:"ttl" json:"ttl"`
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" json:"workers"` // Documents coded in parallel
}

// RulesConfig points at the rule tables
type RulesConfig struct {
	Path string `yaml:"path" json:"path"` // YAML rules file
}

// PrepareConfig configures document preparation before tagging
type PrepareConfig struct {
	TerminateLines bool `yaml:"terminate_lines" json:"terminate_lines"` // End headings and paragraphs with a period
	ExtractHTML    bool `yaml:"extract_html" json:"extract_html"`       // Strip markup from HTML documents
}

// StoreConfig configures persistence of coded documents
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"` // SQLite database file
}

// OutputConfig configures result output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
	Pretty  bool `yaml:"pretty" json:"pretty"` // Indent JSON output
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Tagger: TaggerConfig{
			URL:               "http://localhost:8080/AutoCoding/MetaMapLite",
			Timeout:           30 * time.Second,
			UserAgent:         "autocoding/0.1",
			MaxBodyBytes:      10_000_000,
			MaxRetries:        2,
			RequestsPerSecond: 0,
			BurstSize:         1,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Rules: RulesConfig{
			Path: "rules.yaml",
		},
		Prepare: PrepareConfig{
			TerminateLines: true,
			ExtractHTML:    true,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    "autocoding.db",
		},
		Output: OutputConfig{
			Pretty: true,
		},
	}
}
