// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func anthropicTestConfig(baseURL string) Config {
	return Config{
		Provider:  ProviderAnthropic,
		Model:     "claude-3-5-sonnet-20241022",
		BaseURL:   baseURL,
		APIKey:    "test-key",
		MaxTokens: 1024,
		Timeout:   5 * time.Second,
	}
}

func TestAnthropicGenerate(t *testing.T) {
	var gotReq anthropicRequest
	var gotHeaders http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(anthropicResponse{
			ID:   "msg_test",
			Type: "message",
			Role: "assistant",
			Content: []anthropicContent{
				{Type: "text", Text: "You need "},
				{Type: "text", Text: "1 cubic meter of plaster."},
			},
		})
	}))
	defer server.Close()

	client := NewAnthropicClient(anthropicTestConfig(server.URL))
	got, err := client.Generate(context.Background(), "How much plaster?", "FINAL RESULT - PLASTER VOLUME NEEDED: 1 cubic meters")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "You need 1 cubic meter of plaster." {
		t.Errorf("Generate = %q, want concatenated text blocks", got)
	}

	if gotHeaders.Get("x-api-key") != "test-key" {
		t.Errorf("x-api-key = %q, want test-key", gotHeaders.Get("x-api-key"))
	}
	if gotHeaders.Get("anthropic-version") != anthropicAPIVersion {
		t.Errorf("anthropic-version = %q, want %q", gotHeaders.Get("anthropic-version"), anthropicAPIVersion)
	}
	if gotReq.MaxTokens != 1024 {
		t.Errorf("max_tokens = %d, want 1024", gotReq.MaxTokens)
	}
	if gotReq.System == "" {
		t.Error("request carried no system prompt")
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v, want a single user message", gotReq.Messages)
	}
	if !strings.Contains(gotReq.Messages[0].Content, "FINAL RESULT") {
		t.Errorf("user message missing grounding context: %q", gotReq.Messages[0].Content)
	}
}

func TestAnthropicGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(anthropicResponse{
			Error: &anthropicError{Type: "invalid_request_error", Message: "max_tokens required"},
		})
	}))
	defer server.Close()

	client := NewAnthropicClient(anthropicTestConfig(server.URL))
	_, err := client.Generate(context.Background(), "hello", "")

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Generate error = %T, want *BackendError", err)
	}
	if backendErr.Kind != ErrKindBackend {
		t.Errorf("Kind = %s, want %s", backendErr.Kind, ErrKindBackend)
	}
	if backendErr.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic", backendErr.Provider)
	}
}

func TestAnthropicGenerateNoTextBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContent{{Type: "thinking"}},
		})
	}))
	defer server.Close()

	client := NewAnthropicClient(anthropicTestConfig(server.URL))
	_, err := client.Generate(context.Background(), "hello", "")

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Generate error = %T, want *BackendError", err)
	}
	if backendErr.Kind != ErrKindMalformedResponse {
		t.Errorf("Kind = %s, want %s", backendErr.Kind, ErrKindMalformedResponse)
	}
}

func TestAnthropicGenerateConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewAnthropicClient(anthropicTestConfig(url))
	_, err := client.Generate(context.Background(), "hello", "")

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Generate error = %T, want *BackendError", err)
	}
	if backendErr.Kind != ErrKindConnection {
		t.Errorf("Kind = %s, want %s", backendErr.Kind, ErrKindConnection)
	}
}

func TestAnthropicPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContent{{Type: "text", Text: "Yes, working."}},
		})
	}))
	defer server.Close()

	client := NewAnthropicClient(anthropicTestConfig(server.URL))
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
