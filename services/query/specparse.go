// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package query

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// thicknessPattern matches the first number directly followed by a
	// millimeter marker, e.g. "5mm", "2.5 mm".
	thicknessPattern = regexp.MustCompile(`(\d+\.?\d*)\s*mm`)

	// coatDigitPattern matches a digit directly followed by a coat marker,
	// singular or plural, e.g. "2 coats", "1 coat".
	coatDigitPattern = regexp.MustCompile(`(\d+)\s*coats?`)
)

// coatWords is the spelled-out-number lexicon for coat counts. Scanned in
// this order; the first match wins. A slice, not a map: the scan order is
// part of the contract.
var coatWords = []struct {
	word  string
	count int
}{
	{"one", 1},
	{"two", 2},
	{"three", 3},
	{"four", 4},
	{"five", 5},
	{"single", 1},
	{"double", 2},
	{"triple", 3},
}

// DetectMaterial returns paint when the query literally mentions paint,
// plaster otherwise.
func DetectMaterial(queryText string) MaterialKind {
	if strings.Contains(strings.ToLower(queryText), "paint") {
		return MaterialPaint
	}
	return MaterialPlaster
}

// ParseSpec mines a material-application specification from free text.
//
// Description:
//
//	Thickness is the first numeric token followed by "mm". Coat count is
//	the first digit followed by "coat"/"coats"; when no digit form is
//	present, the spelled-out lexicon is matched against the literal
//	phrase "<word> coat". A specification exists only when both fields
//	were found.
//
// Outputs:
//   - SpecRequest: the parsed specification; zero value when ok is false.
//   - bool: false when the text carries no complete specification. This
//     is an expected, common case, not an error.
func ParseSpec(queryText string) (SpecRequest, bool) {
	text := strings.ToLower(queryText)

	var thickness float64
	haveThickness := false
	if m := thicknessPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			thickness = v
			haveThickness = true
		}
	}

	coats := 0
	if m := coatDigitPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			coats = v
		}
	}
	if coats == 0 {
		for _, w := range coatWords {
			if strings.Contains(text, w.word+" coat") {
				coats = w.count
				break
			}
		}
	}

	if !haveThickness || coats == 0 {
		return SpecRequest{}, false
	}
	return SpecRequest{
		ThicknessMm: thickness,
		CoatCount:   coats,
		Material:    DetectMaterial(queryText),
	}, true
}
