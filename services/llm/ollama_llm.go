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
	"strings"
)

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Error   string  `json:"error,omitempty"`
}

// OllamaClient talks to a local Ollama server over its REST API.
//
// Thread Safety: safe for concurrent use.
type OllamaClient struct {
	httpClient *http.Client
	model      string
	baseURL    string
}

// NewOllamaClient creates an OllamaClient from an already-validated config.
func NewOllamaClient(cfg Config) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Model implements Generator.
func (o *OllamaClient) Model() string { return o.model }

// Generate implements Generator via a single non-streaming chat call.
func (o *OllamaClient) Generate(ctx context.Context, query, contextText string) (string, error) {
	reqPayload := ollamaChatRequest{
		Model: o.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(query, contextText)},
		},
		Stream: false,
	}

	reqBodyBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", &BackendError{Kind: ErrKindMalformedResponse, Provider: "ollama",
			Message: "marshaling request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/chat", bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return "", &BackendError{Kind: ErrKindConnection, Provider: "ollama",
			Message: "creating HTTP request", Err: err}
	}
	req.Header.Set("content-type", "application/json")

	slog.Debug("Sending chat request to Ollama",
		slog.String("model", o.model),
		slog.String("base_url", o.baseURL))

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", &BackendError{Kind: ErrKindConnection, Provider: "ollama",
			Message: "cannot connect to Ollama, make sure it is running (try: ollama serve)", Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &BackendError{Kind: ErrKindConnection, Provider: "ollama",
			Message: fmt.Sprintf("reading response body (status %d)", resp.StatusCode), Err: err}
	}

	slog.Debug("Ollama response received",
		slog.Int("status", resp.StatusCode),
		slog.Int("body_length", len(bodyBytes)))

	if resp.StatusCode != http.StatusOK {
		return "", &BackendError{Kind: ErrKindBackend, Provider: "ollama",
			Message: fmt.Sprintf("API returned status %d: %s", resp.StatusCode, safeLogString(string(bodyBytes)))}
	}

	var apiResp ollamaChatResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", &BackendError{Kind: ErrKindMalformedResponse, Provider: "ollama",
			Message: "parsing response JSON", Err: err}
	}
	if apiResp.Error != "" {
		return "", &BackendError{Kind: ErrKindBackend, Provider: "ollama",
			Message: fmt.Sprintf("API error: %s", safeLogString(apiResp.Error))}
	}
	if apiResp.Message.Content == "" {
		return "", &BackendError{Kind: ErrKindMalformedResponse, Provider: "ollama",
			Message: "received response with no message content"}
	}

	return apiResp.Message.Content, nil
}

// Ping implements Generator by hitting the version endpoint.
func (o *OllamaClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", o.baseURL+"/api/version", nil)
	if err != nil {
		return &BackendError{Kind: ErrKindConnection, Provider: "ollama",
			Message: "creating HTTP request", Err: err}
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return &BackendError{Kind: ErrKindConnection, Provider: "ollama",
			Message: "cannot connect to Ollama, make sure it is running (try: ollama serve)", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &BackendError{Kind: ErrKindBackend, Provider: "ollama",
			Message: fmt.Sprintf("version endpoint returned status %d", resp.StatusCode)}
	}
	return nil
}
