// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package query

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/bimquery/bimquery/services/ifc"
)

// measurementSource is one way of pulling a measurement out of an element.
// Sources are tried in a fixed priority order; the first source that
// produces a non-zero category total wins and later sources are not
// consulted, even for elements the winning source missed. That all-or-
// nothing fallback mirrors the measured system's behavior and is pinned by
// tests; an element carrying only property-set data is ignored whenever a
// sibling supplied a structured quantity.
type measurementSource interface {
	// Source identifies the tier records from this source carry.
	Source() DataSource

	// Collect emits at most one record per element. Elements whose
	// traversal fails are skipped, never fatal for the category.
	Collect(model ModelSource, elements []ifc.Element, measure string) []QuantityRecord
}

// quantitySetSource reads explicit structured quantity sets. Authoritative:
// values are unit-bearing and typed.
type quantitySetSource struct {
	logger *slog.Logger
}

func (s quantitySetSource) Source() DataSource { return SourceElementQuantity }

func (s quantitySetSource) Collect(model ModelSource, elements []ifc.Element, measure string) []QuantityRecord {
	var records []QuantityRecord
	for _, el := range elements {
		vals, err := model.QuantityValues(el, measure)
		if err != nil {
			s.logger.Debug("skipping element with malformed quantity relationships",
				slog.String("element", el.GlobalID),
				slog.String("error", err.Error()))
			continue
		}
		total := 0.0
		for _, v := range vals {
			total += v
		}
		if total > 0 {
			records = append(records, QuantityRecord{
				EntityID: el.GlobalID,
				Value:    total,
				Unit:     unitFor(measure),
				Source:   SourceElementQuantity,
			})
		}
	}
	return records
}

// propertyScanSource keyword-scans loosely typed property sets. Best
// effort: property names are matched case-insensitively against the
// measure keyword and only numeric values count. Within one property set,
// keys are scanned in sorted order and the first match wins, so a set
// carrying both GrossArea and NetArea always yields GrossArea; matches
// from separate sets on the same element are summed.
type propertyScanSource struct {
	logger *slog.Logger
}

func (s propertyScanSource) Source() DataSource { return SourcePropertySet }

func (s propertyScanSource) Collect(model ModelSource, elements []ifc.Element, measure string) []QuantityRecord {
	keyword := strings.ToLower(measure)
	var records []QuantityRecord
	for _, el := range elements {
		psets, err := model.PropertySets(el)
		if err != nil {
			s.logger.Debug("skipping element with malformed property sets",
				slog.String("element", el.GlobalID),
				slog.String("error", err.Error()))
			continue
		}
		total := 0.0
		found := false
		for _, props := range psets {
			keys := make([]string, 0, len(props))
			for key := range props {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				num, ok := props[key].(float64)
				if !ok || !strings.Contains(strings.ToLower(key), keyword) {
					continue
				}
				total += num
				found = true
				break
			}
		}
		if found && total > 0 {
			records = append(records, QuantityRecord{
				EntityID: el.GlobalID,
				Value:    total,
				Unit:     unitFor(measure),
				Source:   SourcePropertySet,
			})
		}
	}
	return records
}

// Extractor produces per-element measurement records for a category using
// an ordered list of measurement sources.
//
// Thread Safety: safe for concurrent use; it holds no per-query state.
type Extractor struct {
	model   ModelSource
	sources []measurementSource
	logger  *slog.Logger
}

// NewExtractor creates an Extractor with the default source priority:
// structured quantity sets first, keyword-scanned property sets as the
// fallback.
func NewExtractor(model ModelSource) *Extractor {
	logger := slog.Default()
	return &Extractor{
		model: model,
		sources: []measurementSource{
			quantitySetSource{logger: logger},
			propertyScanSource{logger: logger},
		},
		logger: logger,
	}
}

// Extract collects measurement records for every element of the category.
//
// Outputs:
//   - []QuantityRecord: at most one record per element; nil when no source
//     produced data.
//   - int: the number of elements examined, whether or not they yielded a
//     value.
func (x *Extractor) Extract(cat ifc.Category, measure string) ([]QuantityRecord, int) {
	elements := x.model.ElementsOf(cat)
	if len(elements) == 0 {
		return nil, 0
	}

	for _, src := range x.sources {
		records := src.Collect(x.model, elements, measure)
		total := 0.0
		for _, r := range records {
			total += r.Value
		}
		if total > 0 {
			x.logger.Debug("extraction complete",
				slog.String("category", string(cat)),
				slog.String("measure", measure),
				slog.String("source", string(src.Source())),
				slog.Int("elements", len(elements)),
				slog.Int("with_data", len(records)))
			return records, len(elements)
		}
	}
	return nil, len(elements)
}

// unitFor names the presentation unit for a measurement keyword.
func unitFor(measure string) string {
	switch strings.ToLower(measure) {
	case "area":
		return "square meters"
	case "volume":
		return "cubic meters"
	case "length":
		return "meters"
	default:
		return ""
	}
}
