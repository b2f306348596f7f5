// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bimquery/bimquery/services/ifc"
	"github.com/bimquery/bimquery/services/query"
)

// demoQueries exercises each intent once. The demo is deterministic: it
// prints the grounding context the chat loop would hand to a backend, but
// never calls one.
var demoQueries = []struct {
	title string
	query string
}{
	{"Plastering Calculation (Primary Use Case)", "How much plastering is done?"},
	{"Plastering Volume with Specification", "How much plaster for 2 coats at 5mm?"},
	{"Wall Information", "How many walls are there?"},
	{"Element Counting - Doors", "How many doors are there?"},
	{"Element Counting - Windows", "Count all windows"},
	{"Floor Area Calculation", "What is the total floor area?"},
	{"Building Summary", "Give me building statistics"},
}

func runDemoCommand(_ *cobra.Command, args []string) error {
	model, err := ifc.Open(args[0])
	if err != nil {
		return err
	}
	builder := query.NewContextBuilder(model)

	fmt.Println(rule())
	fmt.Println(bannerStyle.Render("  BIMQUERY DEMONSTRATION"))
	fmt.Println(rule())
	fmt.Printf("Model: %s\n", model.Path())
	fmt.Println("Each demo shows the intent classification and the grounding")
	fmt.Println("context the chat backend would receive. No LLM is called.")

	for i, demo := range demoQueries {
		fmt.Println("\n" + rule())
		fmt.Println(bannerStyle.Render(fmt.Sprintf("  DEMO %d: %s", i+1, demo.title)))
		fmt.Println(rule())
		fmt.Printf("Query: %s\n", demo.query)

		contextText, intent := builder.Build(demo.query)
		fmt.Printf("Intent: %s\n", intent)
		fmt.Println("Context:")
		fmt.Println(contextText)
	}

	fmt.Println(rule())
	fmt.Println(bannerStyle.Render("  DEMONSTRATION COMPLETE"))
	fmt.Println(rule())
	return nil
}
