// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package query

import (
	"strings"
	"testing"

	"github.com/bimquery/bimquery/services/ifc"
)

func structuredRecord(id string, value float64) QuantityRecord {
	return QuantityRecord{
		EntityID: id,
		Value:    value,
		Unit:     "square meters",
		Source:   SourceElementQuantity,
	}
}

func TestAggregateFullCoverageHigh(t *testing.T) {
	records := []QuantityRecord{
		structuredRecord("wall-1", 10.0),
		structuredRecord("wall-2", 15.5),
	}
	result := Aggregate(records, 2, ifc.CategoryWall, "area")

	if result.TotalValue != 25.5 {
		t.Errorf("TotalValue = %v, want 25.5", result.TotalValue)
	}
	if result.Confidence != ConfidenceHigh {
		t.Errorf("Confidence = %s, want %s", result.Confidence, ConfidenceHigh)
	}
	if result.DataSource != SourceElementQuantity {
		t.Errorf("DataSource = %s, want %s", result.DataSource, SourceElementQuantity)
	}
	if want := "Found area data for all 2 walls from IFC_ELEMENT_QUANTITY"; result.Note != want {
		t.Errorf("Note = %q, want %q", result.Note, want)
	}
}

func TestAggregatePartialCoverageForcesMedium(t *testing.T) {
	// Three walls, only two carry structured area data. Authoritative
	// source, but incomplete coverage drops the grade.
	records := []QuantityRecord{
		structuredRecord("wall-1", 10.0),
		structuredRecord("wall-2", 15.0),
	}
	result := Aggregate(records, 3, ifc.CategoryWall, "area")

	if result.TotalValue != 25.0 {
		t.Errorf("TotalValue = %v, want 25", result.TotalValue)
	}
	if result.EntityCount != 3 || result.EntitiesWithData != 2 {
		t.Errorf("coverage = %d/%d, want 2/3", result.EntitiesWithData, result.EntityCount)
	}
	if result.Confidence != ConfidenceMedium {
		t.Errorf("Confidence = %s, want %s", result.Confidence, ConfidenceMedium)
	}
	if result.DataSource != SourceElementQuantity {
		t.Errorf("DataSource = %s, want %s", result.DataSource, SourceElementQuantity)
	}
	if want := "Found area data for 2 out of 3 walls from IFC_ELEMENT_QUANTITY"; result.Note != want {
		t.Errorf("Note = %q, want %q", result.Note, want)
	}
}

func TestAggregatePropertySetIsMedium(t *testing.T) {
	records := []QuantityRecord{
		{EntityID: "wall-1", Value: 7.25, Unit: "square meters", Source: SourcePropertySet},
	}
	result := Aggregate(records, 1, ifc.CategoryWall, "area")

	if result.Confidence != ConfidenceMedium {
		t.Errorf("Confidence = %s, want %s (full coverage never lifts property-set data)",
			result.Confidence, ConfidenceMedium)
	}
	if result.DataSource != SourcePropertySet {
		t.Errorf("DataSource = %s, want %s", result.DataSource, SourcePropertySet)
	}
}

func TestAggregateNoElements(t *testing.T) {
	result := Aggregate(nil, 0, ifc.CategoryWall, "area")

	if result.TotalValue != 0 || result.EntitiesWithData != 0 {
		t.Errorf("result = %+v, want zero totals", result)
	}
	if result.DataSource != SourceNone || result.Confidence != ConfidenceNone {
		t.Errorf("provenance = %s/%s, want NONE/NONE", result.DataSource, result.Confidence)
	}
	if want := "No walls found in the model."; result.Note != want {
		t.Errorf("Note = %q, want %q", result.Note, want)
	}
}

func TestAggregateElementsWithoutData(t *testing.T) {
	result := Aggregate(nil, 3, ifc.CategoryWall, "area")

	if result.EntityCount != 3 {
		t.Errorf("EntityCount = %d, want 3", result.EntityCount)
	}
	if result.TotalValue != 0 || result.EntitiesWithData != 0 {
		t.Errorf("result = %+v, want zero totals", result)
	}
	if result.DataSource != SourceNone || result.Confidence != ConfidenceNone {
		t.Errorf("provenance = %s/%s, want NONE/NONE", result.DataSource, result.Confidence)
	}
	if !strings.Contains(result.Note, "NO AREA DATA FOUND IN THE MODEL") {
		t.Errorf("Note = %q, want the explicit no-data banner", result.Note)
	}
	if !strings.Contains(result.Note, "Cannot calculate derived quantities") {
		t.Errorf("Note = %q, want the derived-quantity warning", result.Note)
	}
}

func TestAggregateCoverageInvariant(t *testing.T) {
	records := []QuantityRecord{
		structuredRecord("wall-1", 10.0),
		structuredRecord("wall-2", 15.0),
	}
	for count := 2; count <= 5; count++ {
		result := Aggregate(records, count, ifc.CategoryWall, "area")
		if result.EntitiesWithData > result.EntityCount {
			t.Errorf("entityCount %d: EntitiesWithData %d exceeds EntityCount %d",
				count, result.EntitiesWithData, result.EntityCount)
		}
	}
}

func TestCategoryLabelFallback(t *testing.T) {
	if got := categoryLabel(ifc.CategorySpace); got != "spaces" {
		t.Errorf("categoryLabel(space) = %q, want %q", got, "spaces")
	}
	if got := categoryLabel(ifc.Category("chimney")); got != "chimneys" {
		t.Errorf("categoryLabel(chimney) = %q, want %q", got, "chimneys")
	}
}
