// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm is the generation backend: provider clients that turn a
// user query plus its grounding context into a natural-language answer.
// The clients are thin HTTP adapters; all domain knowledge lives in the
// prompt and the context handed in by the caller.
package llm

import (
	"context"
	"fmt"
)

// ErrorKind partitions backend failures for callers that want to react
// differently to an unreachable server versus a garbled reply.
type ErrorKind string

const (
	// ErrKindConnection: the provider could not be reached at all.
	ErrKindConnection ErrorKind = "connection"

	// ErrKindBackend: the provider was reached and refused or failed the
	// request (non-2xx status, in-band API error).
	ErrKindBackend ErrorKind = "backend_error"

	// ErrKindMalformedResponse: the provider replied 2xx but the body
	// could not be decoded or carried no usable text.
	ErrKindMalformedResponse ErrorKind = "malformed_response"
)

// BackendError is the tagged error every provider client returns.
//
// Thread Safety: immutable after construction.
type BackendError struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Err      error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Provider, e.Message, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Kind)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Message is one turn of a chat exchange in provider wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator is the generation surface the chat loop consumes.
//
// Description:
//
//	Generate produces an answer to the query, grounded exclusively in
//	contextText; contextText may be empty for context-free exchanges
//	such as connectivity probes. Implementations return *BackendError
//	on failure.
type Generator interface {
	Generate(ctx context.Context, query, contextText string) (string, error)

	// Model names the configured model, for banners and logs.
	Model() string

	// Ping verifies the provider is reachable and able to answer.
	Ping(ctx context.Context) error
}

// safeLogString truncates provider payloads before they hit the logs.
func safeLogString(s string) string {
	const max = 512
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
