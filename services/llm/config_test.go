// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"strings"
	"testing"
)

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{Provider: ProviderOllama}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Model != DefaultOllamaModel {
		t.Errorf("Model = %q, want %q", cfg.Model, DefaultOllamaModel)
	}
	if cfg.BaseURL != DefaultOllamaBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultOllamaBaseURL)
	}
	if cfg.MaxTokens != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", cfg.MaxTokens, DefaultMaxTokens)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
}

func TestConfigValidateAnthropicRequiresKey(t *testing.T) {
	cfg := Config{Provider: ProviderAnthropic}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted an Anthropic config without an API key")
	}
	if !strings.Contains(err.Error(), "API key") {
		t.Errorf("error = %v, want mention of the API key", err)
	}
}

func TestConfigValidateAnthropicDefaults(t *testing.T) {
	cfg := Config{Provider: ProviderAnthropic, APIKey: "sk-test"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Model != DefaultAnthropicModel {
		t.Errorf("Model = %q, want %q", cfg.Model, DefaultAnthropicModel)
	}
	if cfg.BaseURL != anthropicDefaultBaseURL {
		t.Errorf("BaseURL = %q, want the Anthropic messages endpoint", cfg.BaseURL)
	}
}

func TestConfigValidateUnknownProvider(t *testing.T) {
	cfg := Config{Provider: "watsonx"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate accepted an unknown provider")
	}
}

func TestNewGenerator(t *testing.T) {
	gen, err := NewGenerator(Config{Provider: ProviderOllama, Model: "llama3.2"})
	if err != nil {
		t.Fatalf("NewGenerator(ollama): %v", err)
	}
	if _, ok := gen.(*OllamaClient); !ok {
		t.Errorf("NewGenerator(ollama) = %T, want *OllamaClient", gen)
	}
	if gen.Model() != "llama3.2" {
		t.Errorf("Model() = %q, want llama3.2", gen.Model())
	}

	gen, err = NewGenerator(Config{Provider: ProviderAnthropic, APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewGenerator(anthropic): %v", err)
	}
	if _, ok := gen.(*AnthropicClient); !ok {
		t.Errorf("NewGenerator(anthropic) = %T, want *AnthropicClient", gen)
	}

	if _, err := NewGenerator(Config{Provider: "watsonx"}); err == nil {
		t.Error("NewGenerator accepted an unknown provider")
	}
}

func TestBuildPrompt(t *testing.T) {
	if got := BuildPrompt("hello", ""); got != "hello" {
		t.Errorf("BuildPrompt without context = %q, want the raw query", got)
	}

	got := BuildPrompt("How many walls?", "Walls: 3")
	if !strings.Contains(got, "Walls: 3") {
		t.Errorf("prompt missing context:\n%s", got)
	}
	if !strings.Contains(got, "User Question: How many walls?") {
		t.Errorf("prompt missing query:\n%s", got)
	}
	if !strings.Contains(got, "Answer ONLY based on the data shown above") {
		t.Errorf("prompt missing grounding instructions:\n%s", got)
	}
}

func TestBackendErrorFormat(t *testing.T) {
	err := &BackendError{Kind: ErrKindConnection, Provider: "ollama", Message: "cannot connect"}
	if got := err.Error(); !strings.Contains(got, "ollama") || !strings.Contains(got, "connection") {
		t.Errorf("Error() = %q, want provider and kind", got)
	}
}
