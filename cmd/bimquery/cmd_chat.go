// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bimquery/bimquery/services/ifc"
	"github.com/bimquery/bimquery/services/llm"
	"github.com/bimquery/bimquery/services/query"
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	promptStyle = lipgloss.NewStyle().Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func rule() string {
	return ruleStyle.Render(strings.Repeat("=", 70))
}

func printBanner(info ifc.BuildingInfo, gen llm.Generator) {
	fmt.Println(rule())
	fmt.Println(bannerStyle.Render("  BIMQUERY - Conversational Building Model Analysis"))
	fmt.Println(rule())
	fmt.Printf("Project:  %s\n", orDash(info.ProjectName))
	fmt.Printf("Building: %s\n", orDash(info.BuildingName))
	fmt.Printf("Schema:   %s\n", orDash(info.Schema))
	fmt.Printf("Model:    %s\n", gen.Model())
	fmt.Println(rule())
	fmt.Println("Ask questions about the building. Type 'help' for examples, 'exit' to quit.")
}

func printHelp() {
	fmt.Println("\nExample questions you can ask:")
	fmt.Println("  - How much plastering is done?")
	fmt.Println("  - How much plaster for 2 coats at 5mm?")
	fmt.Println("  - How many walls are there?")
	fmt.Println("  - What is the total floor area?")
	fmt.Println("  - List all the doors")
	fmt.Println("  - How many windows are in the building?")
	fmt.Println("\nCommands:")
	fmt.Println("  help - show this message")
	fmt.Println("  info - show building information")
	fmt.Println("  exit - quit")
	fmt.Println()
}

func printInfo(model *ifc.Model) {
	info := model.BuildingInfo()
	fmt.Println("\n" + rule())
	fmt.Println(bannerStyle.Render("  BUILDING INFORMATION"))
	fmt.Println(rule())
	fmt.Printf("  schema: %s\n", orDash(info.Schema))
	fmt.Printf("  project_name: %s\n", orDash(info.ProjectName))
	fmt.Printf("  building_name: %s\n", orDash(info.BuildingName))
	fmt.Printf("  site_name: %s\n", orDash(info.SiteName))
	fmt.Println(rule())
}

func orDash(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// readLines pumps input lines onto a channel so the prompt loop can select
// between user input and cancellation. The channel closes on EOF or a read
// error.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// nextLine waits for the next input line. It returns false when the input
// stream ends or the context is cancelled, so an interrupt at the prompt
// takes effect without waiting for Enter.
func nextLine(ctx context.Context, lines <-chan string) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case s, ok := <-lines:
		return s, ok
	}
}

func runChatCommand(cmd *cobra.Command, args []string) error {
	model, err := ifc.Open(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadLLMConfig(cmd)
	if err != nil {
		return err
	}
	gen, err := llm.NewGenerator(cfg)
	if err != nil {
		return err
	}

	builder := query.NewContextBuilder(model)
	sessionID := uuid.New().String()[:8]
	logger := slog.Default().With(slog.String("session", sessionID))
	logger.Info("chat session started",
		slog.String("file", model.Path()),
		slog.String("provider", string(cfg.Provider)),
		slog.String("model", gen.Model()))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted. Exiting...")
		cancel()
	}()

	printBanner(model.BuildingInfo(), gen)

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	err = gen.Ping(pingCtx)
	pingCancel()
	if err != nil {
		fmt.Println(warnStyle.Render("Warning: LLM backend not reachable. Continuing anyway."))
		fmt.Println(warnStyle.Render("  " + err.Error()))
	} else {
		fmt.Println("LLM connection successful.")
	}

	lines := readLines(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("\nYou: "))
		line, ok := nextLine(ctx, lines)
		if !ok {
			break
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit", "q":
			fmt.Println("\nGoodbye.")
			return nil
		case "help":
			printHelp()
			continue
		case "info":
			printInfo(model)
			continue
		}

		contextText, intent := builder.Build(input)
		logger.Debug("processing query",
			slog.String("intent", string(intent)),
			slog.Int("context_bytes", len(contextText)))

		fmt.Print(promptStyle.Render("Agent: "))
		answer, err := gen.Generate(ctx, input, contextText)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			var backendErr *llm.BackendError
			if errors.As(err, &backendErr) {
				fmt.Println(errorStyle.Render(backendErr.Error()))
			} else {
				fmt.Println(errorStyle.Render("error generating response: " + err.Error()))
			}
			continue
		}
		fmt.Println(answer)
	}
	return nil
}
