// Package config loads the YAML settings that shape an atom store:
//
//	shards: 64        # intern store shards, 0 for the GOMAXPROCS default
//	top: 10           # rows in the stats report
//	static:           # extra words for the static set
//	  - http
//	keywords: true    # include the scanner keywords in the static set
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/hstr/atom"
	"github.com/robinvdvleuten/hstr/scanner"
)

// MaxShards is the largest shard count a store supports.
const MaxShards = 1024

// Config holds store and report settings.
type Config struct {
	Shards   int      `yaml:"shards"`
	Top      int      `yaml:"top"`
	Static   []string `yaml:"static"`
	Keywords bool     `yaml:"keywords"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Top:      10,
		Keywords: true,
	}
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses YAML on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := New()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Shards < 0 || c.Shards > MaxShards {
		return fmt.Errorf("invalid shards %d, expected 0 to %d", c.Shards, MaxShards)
	}
	if c.Top < 0 {
		return fmt.Errorf("invalid top %d, expected a positive number", c.Top)
	}
	for i, w := range c.Static {
		if w == "" {
			return fmt.Errorf("invalid static word at index %d: empty", i)
		}
	}
	return nil
}

// Words returns the static words in set order: scanner keywords first when
// enabled, then the configured words.
func (c *Config) Words() []string {
	var words []string
	if c.Keywords {
		words = append(words, scanner.Keywords()...)
	}
	return append(words, c.Static...)
}

// StaticSet builds the static set from Words. It returns nil when there
// are no words.
func (c *Config) StaticSet() (*atom.StaticSet, error) {
	words := c.Words()
	if len(words) == 0 {
		return nil, nil
	}
	if !c.Keywords || len(c.Static) > 0 {
		return atom.NewStaticSet(words...)
	}
	return scanner.KeywordSet(), nil
}

// NewStore creates a store with the configured shards and static set.
func (c *Config) NewStore() (*atom.Store, error) {
	set, err := c.StaticSet()
	if err != nil {
		return nil, err
	}

	var opts []atom.Option
	if c.Shards > 0 {
		opts = append(opts, atom.WithShards(c.Shards))
	}
	if set != nil {
		opts = append(opts, atom.WithStatic(set))
	}
	return atom.NewStore(opts...), nil
}

type contextKey struct{}

var configKey = contextKey{}

// WithContext returns a new context with the config attached.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves the config from ctx, or nil if none is attached.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return nil
}
