// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package query is the deterministic quantity-extraction and
// confidence-graded aggregation engine. It mines measurements out of a
// building model, grades how trustworthy the aggregate is, parses
// material-application specifications from free text, derives volumes,
// and assembles the grounding context handed to the generation backend.
//
// All values are created fresh per query and discarded once the context
// bundle is returned; nothing here caches across queries or mutates the
// model.
package query

import (
	"github.com/bimquery/bimquery/services/ifc"
)

// DataSource identifies where an aggregated measurement came from.
type DataSource string

const (
	// SourceNone means no measurement data was found at all.
	SourceNone DataSource = "NONE"

	// SourceElementQuantity is the authoritative source: explicit,
	// unit-bearing structured quantity sets.
	SourceElementQuantity DataSource = "IFC_ELEMENT_QUANTITY"

	// SourcePropertySet is the best-effort fallback: numeric values found
	// by keyword-scanning loosely typed property sets.
	SourcePropertySet DataSource = "IFC_PROPERTY_SETS"
)

// Confidence is a coarse reliability tier for an aggregated measurement.
type Confidence string

const (
	ConfidenceNone   Confidence = "NONE"
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// QuantityRecord is one element's contribution to an aggregate. Produced
// transiently by extraction; never persisted.
type QuantityRecord struct {
	EntityID string
	Value    float64
	Unit     string
	Source   DataSource
}

// AggregationResult is a summed measurement for a whole category, with
// provenance, coverage, and a human-readable diagnostic note.
//
// Invariants: EntitiesWithData <= EntityCount; DataSource == SourceNone
// exactly when TotalValue == 0; Confidence is ConfidenceHigh only when
// every entity contributed structured quantity data.
type AggregationResult struct {
	TotalValue       float64
	Unit             string
	EntityCount      int
	EntitiesWithData int
	DataSource       DataSource
	Confidence       Confidence
	Note             string
}

// MaterialKind is the material a specification applies to.
type MaterialKind string

const (
	MaterialPlaster MaterialKind = "plaster"
	MaterialPaint   MaterialKind = "paint"
)

// SpecRequest is a material-application specification mined from query
// text. Only constructible when both numeric fields were present.
type SpecRequest struct {
	ThicknessMm float64
	CoatCount   int
	Material    MaterialKind
}

// VolumeResult is a derived material volume. A pure function of an
// AggregationResult and a SpecRequest; confidence and data source are
// inherited from the area input, never upgraded.
type VolumeResult struct {
	AreaSqm           float64
	ThicknessPerCoatM float64
	CoatCount         int
	TotalThicknessM   float64
	VolumeM3          float64
	VolumeLiters      float64
	Material          MaterialKind
	DataSource        DataSource
	Confidence        Confidence
}

// Intent is the classified purpose of a free-text query.
type Intent string

const (
	IntentPlastering     Intent = "plastering"
	IntentWallInfo       Intent = "wall_info"
	IntentDoorInfo       Intent = "door_info"
	IntentWindowInfo     Intent = "window_info"
	IntentSpaceInfo      Intent = "space_info"
	IntentGeneralSummary Intent = "general_summary"
)

// ModelSource is the model-graph access the extractor consumes. *ifc.Model
// satisfies it; tests substitute fakes.
type ModelSource interface {
	// ElementsOf returns every element of the category.
	ElementsOf(cat ifc.Category) []ifc.Element

	// QuantityValues returns the element's structured quantity values for
	// a measurement keyword. An error marks the element's relationships
	// as malformed; the caller skips that element.
	QuantityValues(el ifc.Element, measure string) ([]float64, error)

	// PropertySets returns the element's property sets as pset name ->
	// key -> value.
	PropertySets(el ifc.Element) (map[string]map[string]any, error)
}

// ContextSource is the full model surface the context builder consumes.
type ContextSource interface {
	ModelSource
	BuildingInfo() ifc.BuildingInfo
	Count(cat ifc.Category) int
}
