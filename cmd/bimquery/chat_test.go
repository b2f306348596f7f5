// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

func TestReadLinesDeliversInputThenCloses(t *testing.T) {
	lines := readLines(strings.NewReader("hello\nworld\n"))

	if got := <-lines; got != "hello" {
		t.Errorf("first line = %q, want hello", got)
	}
	if got := <-lines; got != "world" {
		t.Errorf("second line = %q, want world", got)
	}
	if _, ok := <-lines; ok {
		t.Error("channel still open after EOF")
	}
}

func TestNextLineReturnsFalseOnEOF(t *testing.T) {
	lines := readLines(strings.NewReader(""))

	if _, ok := nextLine(context.Background(), lines); ok {
		t.Error("nextLine = true on exhausted input, want false")
	}
}

func TestNextLineUnblocksOnCancel(t *testing.T) {
	// A pipe with no writer pending: the reader goroutine stays blocked,
	// so only cancellation can release nextLine.
	r, w := io.Pipe()
	defer w.Close()
	lines := readLines(r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := nextLine(ctx, lines); ok {
			t.Error("nextLine = true after cancellation, want false")
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nextLine still blocked after cancellation")
	}
}
