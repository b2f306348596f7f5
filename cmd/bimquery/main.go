// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bimquery/bimquery/services/llm"
)

var (
	cfgFile       string
	providerFlag  string
	modelFlag     string
	baseURLFlag   string
	apiKeyFlag    string
	maxTokensFlag int
	timeoutFlag   time.Duration
	verboseFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "bimquery",
	Short: "Conversational quantity analysis for IFC building models",
	Long: `bimquery loads an IFC (ISO 10303-21) building model, extracts
quantities with graded confidence, and answers natural-language questions
about the building through a local or cloud LLM backend.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat <ifc-file>",
	Short: "Interactive question-and-answer session over a building model",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatCommand,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <ifc-file>",
	Short: "Report what data actually exists in an IFC file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectCommand,
}

var demoCmd = &cobra.Command{
	Use:   "demo <ifc-file>",
	Short: "Walk through one query per intent without calling a backend",
	Args:  cobra.ExactArgs(1),
	RunE:  runDemoCommand,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	addLLMFlags(chatCmd)

	rootCmd.AddCommand(chatCmd, inspectCmd, demoCmd)
}

// addLLMFlags registers the backend override flags on a command.
func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&providerFlag, "provider", "", "LLM provider (ollama or anthropic)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "model name override")
	cmd.Flags().StringVar(&baseURLFlag, "base-url", "", "provider base URL override")
	cmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "provider API key (prefer ANTHROPIC_API_KEY)")
	cmd.Flags().IntVar(&maxTokensFlag, "max-tokens", 0, "response token budget")
	cmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "per-request timeout")
}

func initLogging() {
	level := slog.LevelInfo
	if verboseFlag {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadLLMConfig resolves the backend configuration. Precedence, lowest to
// highest: provider defaults, YAML file, environment, flags. A .env file
// in the working directory is folded into the environment first.
func loadLLMConfig(cmd *cobra.Command) (llm.Config, error) {
	cfg := llm.Config{Provider: llm.ProviderOllama}

	if cfgFile != "" {
		data, err := os.ReadFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", cfgFile, err)
		}
	}

	if cmd.Flags().Changed("provider") {
		cfg.Provider = llm.Provider(providerFlag)
	}

	applyEnv(&cfg)

	if cmd.Flags().Changed("model") {
		cfg.Model = modelFlag
	}
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = baseURLFlag
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = apiKeyFlag
	}
	if cmd.Flags().Changed("max-tokens") {
		cfg.MaxTokens = maxTokensFlag
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = timeoutFlag
	}
	return cfg, nil
}

// applyEnv overlays provider-specific environment variables onto the
// config. Environment beats the YAML file but loses to explicit flags.
func applyEnv(cfg *llm.Config) {
	switch cfg.Provider {
	case llm.ProviderOllama:
		if v := os.Getenv("OLLAMA_MODEL"); v != "" {
			cfg.Model = v
		}
		if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
			cfg.BaseURL = v
		}
	case llm.ProviderAnthropic:
		if v := os.Getenv("CLAUDE_MODEL"); v != "" {
			cfg.Model = v
		}
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.APIKey = v
		}
		if v := os.Getenv("CLAUDE_MAX_TOKENS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				cfg.MaxTokens = n
			}
		}
	}
}

func main() {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded environment from .env file")
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
