// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package query

import (
	"fmt"
	"strings"

	"github.com/bimquery/bimquery/services/ifc"
)

// categoryLabels gives the plural display label for each category.
var categoryLabels = map[ifc.Category]string{
	ifc.CategoryWall:   "walls",
	ifc.CategoryDoor:   "doors",
	ifc.CategoryWindow: "windows",
	ifc.CategorySpace:  "spaces",
	ifc.CategorySlab:   "slabs",
	ifc.CategoryRoof:   "roofs",
	ifc.CategoryStair:  "stairs",
	ifc.CategoryColumn: "columns",
	ifc.CategoryBeam:   "beams",
}

func categoryLabel(cat ifc.Category) string {
	if label, ok := categoryLabels[cat]; ok {
		return label
	}
	return string(cat) + "s"
}

// Aggregate sums a category's measurement records into one statistic with
// a confidence tier and a diagnostic note.
//
// Grading rules, in order:
//   - no elements in the category: zero total, SourceNone, ConfidenceNone;
//   - data from every element: tier implied by the source (HIGH for
//     structured quantities, MEDIUM for property-set scans);
//   - data from only some elements: forced down to MEDIUM regardless of
//     source, with a coverage note. For property-set data this branch is a
//     no-op (it is already MEDIUM); the downgrade is kept unconditional so
//     the coverage rule stays source-independent.
//   - elements exist but no records: zero total, SourceNone,
//     ConfidenceNone, and a note that downstream calculation is impossible.
func Aggregate(records []QuantityRecord, entityCount int, cat ifc.Category, measure string) AggregationResult {
	label := categoryLabel(cat)
	result := AggregationResult{
		Unit:        unitFor(measure),
		EntityCount: entityCount,
		DataSource:  SourceNone,
		Confidence:  ConfidenceNone,
	}

	if entityCount == 0 {
		result.Note = fmt.Sprintf("No %s found in the model.", label)
		return result
	}

	for _, r := range records {
		result.TotalValue += r.Value
		result.EntitiesWithData++
		result.DataSource = r.Source
	}

	if result.TotalValue > 0 {
		switch result.DataSource {
		case SourceElementQuantity:
			result.Confidence = ConfidenceHigh
		case SourcePropertySet:
			result.Confidence = ConfidenceMedium
		}
		if result.EntitiesWithData == entityCount {
			result.Note = fmt.Sprintf("Found %s data for all %d %s from %s",
				measure, entityCount, label, result.DataSource)
		} else {
			result.Confidence = ConfidenceMedium
			result.Note = fmt.Sprintf("Found %s data for %d out of %d %s from %s",
				measure, result.EntitiesWithData, entityCount, label, result.DataSource)
		}
		return result
	}

	result.TotalValue = 0
	result.EntitiesWithData = 0
	result.DataSource = SourceNone
	result.Confidence = ConfidenceNone
	result.Note = fmt.Sprintf(
		"NO %s DATA FOUND IN THE MODEL\n"+
			"  - The model contains %d %s but lacks dimensional data\n"+
			"  - Missing: structured quantity sets and %s properties\n"+
			"  - The %s may have geometry but carry no parametric measurements\n"+
			"  - Cannot calculate derived quantities without this data",
		strings.ToUpper(measure), entityCount, label, measure, label)
	return result
}
