// Package config provides configuration management for the analysis
// pipeline. Batch sizing, delays, caps and the keyword tables all live
// here so the pipeline stays testable and tunable without code changes.
package config

import (
	"time"

	"github.com/hmizuno/helpmapper/internal/aggregate"
	"github.com/hmizuno/helpmapper/internal/classify"
)

// Config holds the full configuration of one analysis run.
type Config struct {
	// Crawl shape
	BatchSize  int           `mapstructure:"batch_size" yaml:"batch_size"`   // Concurrency ceiling per batch
	BatchDelay time.Duration `mapstructure:"batch_delay" yaml:"batch_delay"` // Pause between batches
	MaxPages   int           `mapstructure:"max_pages" yaml:"max_pages"`     // Total fetched-page cap (0=unlimited)
	MaxDepth   int           `mapstructure:"max_depth" yaml:"max_depth"`     // Crawl generations beyond discovery

	// HTTP
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // Per-request timeout
	RequestDelay   time.Duration `mapstructure:"request_delay" yaml:"request_delay"`     // Per-domain politeness delay
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // HTTP User-Agent header

	// Extraction
	MinParagraphLen int `mapstructure:"min_paragraph_len" yaml:"min_paragraph_len"` // Shorter paragraphs are dropped as UI noise

	// Keyword tables. Empty fields fall back to the built-in defaults.
	SupportKeywords []string                 `mapstructure:"support_keywords" yaml:"support_keywords"`
	CategoryRules   []classify.Rule          `mapstructure:"category_rules" yaml:"category_rules"`
	PathPatterns    []string                 `mapstructure:"path_patterns" yaml:"path_patterns"`
	DomainKeywords  aggregate.DomainKeywords `mapstructure:"domain_keywords" yaml:"domain_keywords"`

	// Result cache
	DatabasePath string        `mapstructure:"database_path" yaml:"database_path"` // Path to SQLite cache file
	CacheTTL     time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`         // Freshness window for cached results
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:       3,
		BatchDelay:      1 * time.Second,
		MaxPages:        50,
		MaxDepth:        1,
		RequestTimeout:  30 * time.Second,
		RequestDelay:    200 * time.Millisecond,
		UserAgent:       "HelpMapper/1.0",
		MinParagraphLen: 20,
		DatabasePath:    "./helpmapper.db",
		CacheTTL:        24 * time.Hour,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxDepth < 1 {
		return ErrInvalidMaxDepth
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.BatchDelay < 0 {
		c.BatchDelay = 0
	}

	if c.DatabasePath == "" {
		return ErrEmptyDatabasePath
	}

	return nil
}
