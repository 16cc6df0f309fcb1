// Package config loads bot configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/ebooks/pkg/ebooks/internalerr"
	"github.com/cognicore/ebooks/pkg/ebooks/nlp"
)

const (
	DefaultModelPath      = "model.db"
	DefaultStatementLimit = 500
	DefaultReplyLimit     = 500
	DefaultRetryLimit     = 10
	DefaultPasses         = 3
)

// Config is the bot configuration file.
type Config struct {
	CorpusFiles    []string `yaml:"corpus_files"`
	ModelPath      string   `yaml:"model_path"`
	Stoplist       string   `yaml:"stoplist"`
	StatementLimit int      `yaml:"statement_limit"`
	ReplyLimit     int      `yaml:"reply_limit"`
	RetryLimit     int      `yaml:"retry_limit"`
	Passes         int      `yaml:"passes"`
	Log            Log      `yaml:"log"`
	Metrics        Metrics  `yaml:"metrics"`

	// Keys used by older bot configs.
	LegacyCorpusFiles []string `yaml:"CORPUS_FILES"`
	LegacyReplyLength int      `yaml:"REPLY_LENGTH"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Metrics configures the prometheus endpoint. An empty Addr disables it.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML config file, applies defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.CorpusFiles) == 0 {
		c.CorpusFiles = c.LegacyCorpusFiles
	}
	if c.ReplyLimit == 0 {
		c.ReplyLimit = c.LegacyReplyLength
	}
	if c.ModelPath == "" {
		c.ModelPath = DefaultModelPath
	}
	if c.StatementLimit == 0 {
		c.StatementLimit = DefaultStatementLimit
	}
	if c.ReplyLimit == 0 {
		c.ReplyLimit = DefaultReplyLimit
	}
	if c.RetryLimit == 0 {
		c.RetryLimit = DefaultRetryLimit
	}
	if c.Passes == 0 {
		c.Passes = DefaultPasses
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.StatementLimit <= 0:
		return fmt.Errorf("%w: statement_limit must be positive", internalerr.ErrInvalidConfig)
	case c.ReplyLimit <= 0:
		return fmt.Errorf("%w: reply_limit must be positive", internalerr.ErrInvalidConfig)
	case c.RetryLimit < 1:
		return fmt.Errorf("%w: retry_limit must be at least 1", internalerr.ErrInvalidConfig)
	case c.Passes < 0:
		return fmt.Errorf("%w: passes must not be negative", internalerr.ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", internalerr.ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// ValidateBuild additionally requires at least one corpus file.
func (c *Config) ValidateBuild() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.CorpusFiles) == 0 {
		return fmt.Errorf("%w: no corpus files", internalerr.ErrInvalidConfig)
	}
	return nil
}

// LoadStoplist loads stopwords from a YAML file with a `terms:` list.
func LoadStoplist(path string) (*nlp.Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	terms, err := nlp.ParseStoplist(data)
	if err != nil {
		return nil, fmt.Errorf("%w: stoplist %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return nlp.NewStoplist(terms), nil
}
