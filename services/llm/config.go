// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifies a generation backend implementation.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
)

// ValidProviders lists every provider the factory can construct.
var ValidProviders = []Provider{ProviderOllama, ProviderAnthropic}

// Defaults applied by Config.Validate for fields left empty.
const (
	DefaultOllamaModel    = "llama3.2"
	DefaultOllamaBaseURL  = "http://localhost:11434"
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"
	DefaultMaxTokens      = 2048
	DefaultTimeout        = 60 * time.Second
)

// Config carries everything a provider client needs. Clients read no
// environment variables; resolving env, dotenv files, YAML, and flags is
// the command layer's job.
type Config struct {
	Provider  Provider      `yaml:"provider"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// UnmarshalYAML decodes a config mapping, accepting human-readable
// durations ("30s", "2m") for the timeout. Absent keys leave the
// receiver's current values alone, so defaults survive a partial file.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Provider  Provider `yaml:"provider"`
		Model     string   `yaml:"model"`
		BaseURL   string   `yaml:"base_url"`
		APIKey    string   `yaml:"api_key"`
		MaxTokens int      `yaml:"max_tokens"`
		Timeout   string   `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Provider != "" {
		c.Provider = raw.Provider
	}
	if raw.Model != "" {
		c.Model = raw.Model
	}
	if raw.BaseURL != "" {
		c.BaseURL = raw.BaseURL
	}
	if raw.APIKey != "" {
		c.APIKey = raw.APIKey
	}
	if raw.MaxTokens > 0 {
		c.MaxTokens = raw.MaxTokens
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("llm: invalid timeout %q: %w", raw.Timeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate fills provider-appropriate defaults and rejects configs the
// factory could not build a working client from.
func (c *Config) Validate() error {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	switch c.Provider {
	case ProviderOllama:
		if c.Model == "" {
			c.Model = DefaultOllamaModel
		}
		if c.BaseURL == "" {
			c.BaseURL = DefaultOllamaBaseURL
		}
	case ProviderAnthropic:
		if c.Model == "" {
			c.Model = DefaultAnthropicModel
		}
		if c.BaseURL == "" {
			c.BaseURL = anthropicDefaultBaseURL
		}
		if c.APIKey == "" {
			return fmt.Errorf("llm: API key required for Anthropic provider")
		}
	default:
		return fmt.Errorf("llm: unsupported provider: %q (valid: %v)", c.Provider, ValidProviders)
	}
	return nil
}

// NewGenerator creates the provider client the config names.
//
// Outputs:
//   - Generator: the configured client.
//   - error: non-nil when validation fails; construction itself cannot
//     fail after a config validates.
func NewGenerator(cfg Config) (Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderOllama:
		return NewOllamaClient(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider: %q (valid: %v)", cfg.Provider, ValidProviders)
	}
}
