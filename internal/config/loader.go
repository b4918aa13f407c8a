package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if KITFORGE_CONFIG is set
//  3. env (prefix KITFORGE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("KITFORGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: KITFORGE_ADDR, KITFORGE_RATE_LIMIT, ...
	// Map env keys like KITFORGE_RATE_LIMIT -> rate_limit (flat keys).
	envProvider := env.Provider("KITFORGE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "kitforge_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RateLimit <= 0:
		return fmt.Errorf("%w: rate_limit must be positive", ErrInvalidConfig)
	case c.RateWindowSeconds <= 0:
		return fmt.Errorf("%w: rate_window_seconds must be positive", ErrInvalidConfig)
	case c.PriceSeparation <= 1:
		return fmt.Errorf("%w: price_separation must exceed 1", ErrInvalidConfig)
	case c.MaxCategories <= 0:
		return fmt.Errorf("%w: max_categories must be positive", ErrInvalidConfig)
	}
	return nil
}
