// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package query

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bimquery/bimquery/services/ifc"
)

// maxListedNames caps how many element names an info block enumerates.
const maxListedNames = 5

// intentRule pairs an intent with the keywords that select it.
type intentRule struct {
	intent   Intent
	keywords []string
}

// intentRules is evaluated top to bottom; the first rule with a matching
// keyword wins. Order is the precedence contract: a query mentioning both
// plaster and doors is a plastering query.
var intentRules = []intentRule{
	{IntentPlastering, []string{"plaster", "plastering", "wall area", "paint"}},
	{IntentWallInfo, []string{"wall"}},
	{IntentDoorInfo, []string{"door"}},
	{IntentWindowInfo, []string{"window"}},
	{IntentSpaceInfo, []string{"space", "room", "area", "floor"}},
}

// ClassifyIntent classifies a free-text query into exactly one intent.
// Queries matching no rule fall through to IntentGeneralSummary.
func ClassifyIntent(queryText string) Intent {
	text := strings.ToLower(queryText)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.intent
			}
		}
	}
	return IntentGeneralSummary
}

// ContextBuilder classifies queries and assembles the grounding-context
// bundle handed to the generation backend. Each call re-scans the model;
// nothing is cached between queries.
//
// Thread Safety: safe for concurrent use over a read-only model.
type ContextBuilder struct {
	model     ContextSource
	extractor *Extractor
	logger    *slog.Logger
}

// NewContextBuilder creates a ContextBuilder over a model.
func NewContextBuilder(model ContextSource) *ContextBuilder {
	return &ContextBuilder{
		model:     model,
		extractor: NewExtractor(model),
		logger:    slog.Default(),
	}
}

// WallSurfaceArea extracts and aggregates wall surface area.
func (b *ContextBuilder) WallSurfaceArea() AggregationResult {
	records, count := b.extractor.Extract(ifc.CategoryWall, "area")
	return Aggregate(records, count, ifc.CategoryWall, "area")
}

// SpaceFloorArea extracts and aggregates floor area over spaces.
func (b *ContextBuilder) SpaceFloorArea() AggregationResult {
	records, count := b.extractor.Extract(ifc.CategorySpace, "area")
	return Aggregate(records, count, ifc.CategorySpace, "area")
}

// Build assembles the grounding context for a query.
//
// Description:
//
//	Classifies the query, then emits the building identity followed by
//	the intent-specific data block. The returned text is the only model
//	data the generation backend is allowed to discuss.
//
// Outputs:
//   - string: the grounding-context text.
//   - Intent: the classified intent, for logging and the demo walkthrough.
func (b *ContextBuilder) Build(queryText string) (string, Intent) {
	intent := ClassifyIntent(queryText)

	var sb strings.Builder
	info := b.model.BuildingInfo()
	fmt.Fprintf(&sb, "Building: %s\n", orNA(info.BuildingName))
	fmt.Fprintf(&sb, "Project: %s\n", orNA(info.ProjectName))

	switch intent {
	case IntentPlastering:
		b.writePlastering(&sb, queryText)
	case IntentWallInfo:
		b.writeElementInfo(&sb, ifc.CategoryWall, "WALL", "Wall")
	case IntentDoorInfo:
		b.writeElementInfo(&sb, ifc.CategoryDoor, "DOOR", "Door")
	case IntentWindowInfo:
		b.writeElementInfo(&sb, ifc.CategoryWindow, "WINDOW", "Window")
	case IntentSpaceInfo:
		b.writeSpaceInfo(&sb)
	default:
		b.writeSummary(&sb)
	}

	b.logger.Info("assembled grounding context",
		slog.String("intent", string(intent)),
		slog.Int("context_bytes", sb.Len()))
	return sb.String(), intent
}

// writePlastering emits either a completed volume calculation (when the
// query carried a full specification) or the raw area aggregate together
// with an explicit statement of what arithmetic the downstream consumer
// may perform itself.
func (b *ContextBuilder) writePlastering(sb *strings.Builder, queryText string) {
	material := DetectMaterial(queryText)
	materialName := strings.ToUpper(string(material))
	area := b.WallSurfaceArea()

	if spec, ok := ParseSpec(queryText); ok {
		vol, err := ComputeVolume(area, spec)
		if err != nil {
			fmt.Fprintf(sb, "\n--- %s CALCULATION ERROR ---\n", materialName)
			fmt.Fprintf(sb, "Error: %s\n", err)
			fmt.Fprintf(sb, "Details: %s\n", area.Note)
			return
		}
		fmt.Fprintf(sb, "\nANSWER TO USER'S QUESTION:\n")
		fmt.Fprintf(sb, "\nFINAL RESULT - %s VOLUME NEEDED:\n", materialName)
		fmt.Fprintf(sb, "  %v cubic meters\n", Round(vol.VolumeM3, 4))
		fmt.Fprintf(sb, "  %v liters\n", Round(vol.VolumeLiters, 2))
		fmt.Fprintf(sb, "\nCalculation details:\n")
		fmt.Fprintf(sb, "  - Wall area: %v sqm (from the building model)\n", vol.AreaSqm)
		fmt.Fprintf(sb, "  - Thickness per coat: %v mm\n", spec.ThicknessMm)
		fmt.Fprintf(sb, "  - Number of coats: %d\n", vol.CoatCount)
		fmt.Fprintf(sb, "  - Formula: %v sqm x %v m = %v m3\n",
			vol.AreaSqm, vol.TotalThicknessM, Round(vol.VolumeM3, 4))
		fmt.Fprintf(sb, "  - Data source: %s (confidence: %s)\n", vol.DataSource, vol.Confidence)
		fmt.Fprintf(sb, "\nINSTRUCTION: Report the result above directly to the user. The calculation is complete.\n")
		return
	}

	fmt.Fprintf(sb, "\n--- PLASTERING/WALL AREA DATA ---\n")
	fmt.Fprintf(sb, "Total walls: %d\n", area.EntityCount)
	fmt.Fprintf(sb, "Total wall surface area: %v %s\n", area.TotalValue, area.Unit)
	fmt.Fprintf(sb, "Walls with data: %d\n", area.EntitiesWithData)
	fmt.Fprintf(sb, "Data source: %s\n", area.DataSource)
	fmt.Fprintf(sb, "Confidence: %s\n", area.Confidence)
	fmt.Fprintf(sb, "Note: %s\n", area.Note)
	fmt.Fprintf(sb, "\nIMPORTANT: The wall surface area above comes from the building model.\n")
	fmt.Fprintf(sb, "ALLOWED: You may perform calculations using this area with specifications provided by the user.\n")
	fmt.Fprintf(sb, "ALLOWED: If the user provides material thickness and coats, calculate: Volume = Area x Total_Thickness\n")
}

// writeElementInfo emits an element count plus up to five display names.
func (b *ContextBuilder) writeElementInfo(sb *strings.Builder, cat ifc.Category, heading, singular string) {
	elements := b.model.ElementsOf(cat)
	fmt.Fprintf(sb, "\n--- %s INFORMATION ---\n", heading)
	fmt.Fprintf(sb, "Total %s: %d\n", categoryLabel(cat), len(elements))
	if len(elements) == 0 {
		return
	}
	names := make([]string, 0, maxListedNames)
	for i, el := range elements {
		if i == maxListedNames {
			break
		}
		names = append(names, displayName(el, singular))
	}
	fmt.Fprintf(sb, "%s names: %s\n", singular, strings.Join(names, ", "))
}

func (b *ContextBuilder) writeSpaceInfo(sb *strings.Builder) {
	area := b.SpaceFloorArea()
	fmt.Fprintf(sb, "\n--- SPACE/ROOM INFORMATION ---\n")
	fmt.Fprintf(sb, "Total spaces: %d\n", area.EntityCount)
	fmt.Fprintf(sb, "Total floor area: %v sqm\n", area.TotalValue)
	fmt.Fprintf(sb, "Data source: %s\n", area.DataSource)
	fmt.Fprintf(sb, "Confidence: %s\n", area.Confidence)
}

func (b *ContextBuilder) writeSummary(sb *strings.Builder) {
	fmt.Fprintf(sb, "\n--- BUILDING SUMMARY ---\n")
	summary := []struct {
		label string
		cat   ifc.Category
	}{
		{"Walls", ifc.CategoryWall},
		{"Doors", ifc.CategoryDoor},
		{"Windows", ifc.CategoryWindow},
		{"Spaces", ifc.CategorySpace},
		{"Slabs", ifc.CategorySlab},
	}
	for _, s := range summary {
		fmt.Fprintf(sb, "%s: %d\n", s.label, b.model.Count(s.cat))
	}
}

// displayName returns the element's name or a category-based placeholder.
func displayName(el ifc.Element, singular string) string {
	if el.Name != "" {
		return el.Name
	}
	return "Unnamed " + singular
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
