package model

import "time"

// Config is the complete claimfix configuration.
// Values are layered by the CLI: flags > CLAIMFIX_* env > config file > DefaultConfig.
type Config struct {
	Extraction  ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Resolver    ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	Viewer      ViewerConfig      `yaml:"viewer" mapstructure:"viewer"`
	Payload     PayloadConfig     `yaml:"payload" mapstructure:"payload"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// ExtractionConfig tunes the field extractor
type ExtractionConfig struct {
	MinPhoneDigits int `yaml:"min_phone_digits" mapstructure:"min_phone_digits"`
}

// CacheConfig controls the extraction result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	ExtractionWorkers int `yaml:"extraction_workers" mapstructure:"extraction_workers"`
	Claims            int `yaml:"claims" mapstructure:"claims"` // Claim manifests validated at once
}

// ResolverConfig tunes location resolution
type ResolverConfig struct {
	ContextSampleWidth float64 `yaml:"context_sample_width" mapstructure:"context_sample_width"`
	StrictContext      bool    `yaml:"strict_context" mapstructure:"strict_context"` // Fail when context cannot be sampled
}

// ViewerConfig describes the document viewer bridge
type ViewerConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey            string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// PayloadConfig controls ingestion of analysis payloads
type PayloadConfig struct {
	ValidateSchema        bool    `yaml:"validate_schema" mapstructure:"validate_schema"`
	SchemaPath            string  `yaml:"schema_path,omitempty" mapstructure:"schema_path"` // Empty uses the built-in schema
	AutoCorrectConfidence float64 `yaml:"auto_correct_confidence" mapstructure:"auto_correct_confidence"`
}

// LLMConfig configures the optional reviewer narrative
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "" disables, "openai" or "ollama"
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	Strict    bool   `yaml:"strict_citations" mapstructure:"strict_citations"`
}

// MetricsConfig controls metric export
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path,omitempty" mapstructure:"textfile_path"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Markdown bool   `yaml:"markdown" mapstructure:"markdown"`
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
	LogJSON  bool   `yaml:"log_json" mapstructure:"log_json"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			MinPhoneDigits: 10,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".claimfix-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			ExtractionWorkers: 4,
			Claims:            2,
		},
		Resolver: ResolverConfig{
			ContextSampleWidth: 200,
			StrictContext:      false,
		},
		Viewer: ViewerConfig{
			Timeout:           15 * time.Second,
			RequestsPerSecond: 10,
			BurstSize:         5,
		},
		Payload: PayloadConfig{
			ValidateSchema:        true,
			AutoCorrectConfidence: 0.95,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 800,
			Strict:    true,
		},
		Output: OutputConfig{
			Dir:      "./claimfix-reports",
			Markdown: true,
		},
	}
}
