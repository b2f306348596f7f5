// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const (
	anthropicAPIVersion     = "2023-06-01"
	anthropicDefaultBaseURL = "https://api.anthropic.com/v1/messages"
)

type anthropicRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	System    string    `json:"system,omitempty"`
	MaxTokens int       `json:"max_tokens"`
}

type anthropicResponse struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AnthropicClient talks to the Anthropic Messages API.
//
// Thread Safety: safe for concurrent use.
type AnthropicClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
}

// NewAnthropicClient creates an AnthropicClient from an already-validated
// config. The client never reads environment variables; key resolution
// happens in the command layer.
func NewAnthropicClient(cfg Config) *AnthropicClient {
	return &AnthropicClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		maxTokens:  cfg.MaxTokens,
	}
}

// Model implements Generator.
func (a *AnthropicClient) Model() string { return a.model }

// Generate implements Generator.
func (a *AnthropicClient) Generate(ctx context.Context, query, contextText string) (string, error) {
	reqPayload := anthropicRequest{
		Model:     a.model,
		System:    systemPrompt,
		MaxTokens: a.maxTokens,
		Messages: []Message{
			{Role: "user", Content: BuildPrompt(query, contextText)},
		},
	}

	reqBodyBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", &BackendError{Kind: ErrKindMalformedResponse, Provider: "anthropic",
			Message: "marshaling request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return "", &BackendError{Kind: ErrKindConnection, Provider: "anthropic",
			Message: "creating HTTP request", Err: err}
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("content-type", "application/json")

	slog.Debug("Sending REST request to Anthropic", slog.String("model", a.model))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &BackendError{Kind: ErrKindConnection, Provider: "anthropic",
			Message: "HTTP request failed", Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &BackendError{Kind: ErrKindConnection, Provider: "anthropic",
			Message: fmt.Sprintf("reading response body (status %d)", resp.StatusCode), Err: err}
	}

	slog.Debug("Anthropic response received",
		slog.Int("status", resp.StatusCode),
		slog.Int("body_length", len(bodyBytes)),
		slog.String("model", a.model))

	if resp.StatusCode != http.StatusOK {
		return "", &BackendError{Kind: ErrKindBackend, Provider: "anthropic",
			Message: fmt.Sprintf("API returned status %d: %s", resp.StatusCode, safeLogString(string(bodyBytes)))}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", &BackendError{Kind: ErrKindMalformedResponse, Provider: "anthropic",
			Message: "parsing response JSON", Err: err}
	}
	if apiResp.Error != nil {
		return "", &BackendError{Kind: ErrKindBackend, Provider: "anthropic",
			Message: fmt.Sprintf("API error: %s - %s", apiResp.Error.Type, safeLogString(apiResp.Error.Message))}
	}

	finalText := ""
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			finalText += block.Text
		}
	}
	if finalText == "" {
		return "", &BackendError{Kind: ErrKindMalformedResponse, Provider: "anthropic",
			Message: "received content but no text block found"}
	}

	return finalText, nil
}

// Ping implements Generator with a minimal one-token exchange. Anthropic
// has no cheap health endpoint, so reachability is proven by a real call.
func (a *AnthropicClient) Ping(ctx context.Context) error {
	_, err := a.Generate(ctx, "Hello, are you working?", "")
	return err
}
