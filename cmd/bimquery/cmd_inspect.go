// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bimquery/bimquery/services/ifc"
)

// inspectCategories is the fixed order the report counts elements in.
var inspectCategories = []ifc.Category{
	ifc.CategoryWall, ifc.CategoryDoor, ifc.CategoryWindow, ifc.CategorySpace,
	ifc.CategorySlab, ifc.CategoryRoof, ifc.CategoryStair, ifc.CategoryColumn,
	ifc.CategoryBeam,
}

// dimensionKeywords select which property keys the wall detail block prints.
var dimensionKeywords = []string{"area", "length", "height"}

func runInspectCommand(_ *cobra.Command, args []string) error {
	model, err := ifc.Open(args[0])
	if err != nil {
		return err
	}

	fmt.Println(rule())
	fmt.Println(bannerStyle.Render("  IFC FILE INSPECTION REPORT"))
	fmt.Println(rule())

	info := model.BuildingInfo()
	fmt.Println("\nBASIC INFORMATION:")
	fmt.Printf("  Schema: %s\n", orDash(info.Schema))
	if info.ProjectName != "" {
		fmt.Printf("  Project: %s\n", info.ProjectName)
	}
	if info.BuildingName != "" {
		fmt.Printf("  Building: %s\n", info.BuildingName)
	}

	fmt.Println("\nELEMENT COUNTS:")
	for _, cat := range inspectCategories {
		if n := model.Count(cat); n > 0 {
			fmt.Printf("  %s: %d\n", cat, n)
		}
	}

	inspectWalls(model)
	inspectNamed(model, ifc.CategoryWindow, "WINDOW DETAILS:", "Window")
	inspectNamed(model, ifc.CategoryDoor, "DOOR DETAILS:", "Door")
	inspectSpaces(model)
	inspectQuantityData(model)

	fmt.Println("\n" + rule())
	fmt.Println(bannerStyle.Render("  INSPECTION COMPLETE"))
	fmt.Println(rule())
	return nil
}

func inspectWalls(model *ifc.Model) {
	walls := model.ElementsOf(ifc.CategoryWall)
	fmt.Println("\nWALL DETAILS:")
	fmt.Printf("  Total Walls: %d\n", len(walls))

	for i, wall := range walls {
		fmt.Printf("\n  Wall #%d:\n", i+1)
		fmt.Printf("    Name: %s\n", orUnnamed(wall.Name))
		fmt.Printf("    GlobalId: %s\n", wall.GlobalID)
		fmt.Printf("    Type: %s\n", wall.StepType)

		psets, err := model.PropertySets(wall)
		if err != nil {
			fmt.Printf("    Error reading properties: %v\n", err)
			continue
		}
		if len(psets) == 0 {
			fmt.Println("    No properties found")
			continue
		}
		fmt.Printf("    Properties found: %d property sets\n", len(psets))
		for name, props := range psets {
			fmt.Printf("      - %s\n", name)
			for key, value := range props {
				if hasDimensionKeyword(key) {
					fmt.Printf("          %s: %v\n", key, value)
				}
			}
		}
	}
}

func inspectNamed(model *ifc.Model, cat ifc.Category, heading, singular string) {
	elements := model.ElementsOf(cat)
	fmt.Println("\n" + heading)
	fmt.Printf("  Total %ss: %d\n", singular, len(elements))
	for i, el := range elements {
		fmt.Printf("    %s #%d: %s\n", singular, i+1, orUnnamed(el.Name))
	}
}

func inspectSpaces(model *ifc.Model) {
	spaces := model.ElementsOf(ifc.CategorySpace)
	fmt.Println("\nSPACE DETAILS:")
	fmt.Printf("  Total Spaces: %d\n", len(spaces))

	totalArea := 0.0
	for i, space := range spaces {
		fmt.Printf("\n  Space #%d:\n", i+1)
		fmt.Printf("    Name: %s\n", orUnnamed(space.Name))

		psets, err := model.PropertySets(space)
		if err != nil {
			continue
		}
		for _, props := range psets {
			for key, value := range props {
				if !strings.Contains(strings.ToLower(key), "area") {
					continue
				}
				fmt.Printf("    %s: %v\n", key, value)
				if num, ok := value.(float64); ok {
					totalArea += num
				}
			}
		}
	}

	if totalArea > 0 {
		fmt.Printf("\n  Total Floor Area: %v sqm\n", totalArea)
	} else {
		fmt.Println("\n  No area data found in spaces")
	}
}

func inspectQuantityData(model *ifc.Model) {
	fmt.Println("\nCHECKING FOR QUANTITY DATA:")
	found := false
	for _, wall := range model.ElementsOf(ifc.CategoryWall) {
		entries := model.QuantityEntries(wall)
		if len(entries) == 0 {
			continue
		}
		found = true
		fmt.Printf("  Found quantity data in: %s\n", orUnnamedWall(wall.Name))
		for _, q := range entries {
			fmt.Printf("    - %s: %v (%s)\n", q.Name, q.Value, q.Kind)
		}
	}
	if !found {
		fmt.Println("  No structured quantity data found")
		fmt.Println("  Area and volume answers would need geometry, which this tool does not compute")
	}
}

func hasDimensionKeyword(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range dimensionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func orUnnamed(s string) string {
	if s == "" {
		return "Unnamed"
	}
	return s
}

func orUnnamedWall(s string) string {
	if s == "" {
		return "Unnamed Wall"
	}
	return s
}
