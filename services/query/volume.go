// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package query

import (
	"errors"
	"math"
)

// ErrNoAreaData reports that a volume was requested over an aggregation
// with zero total area. A normal, expected outcome of missing input data,
// not a crash; callers report it to the user.
var ErrNoAreaData = errors.New("no wall area data available in the model")

// ComputeVolume derives a material volume from an aggregated area and a
// parsed specification.
//
// Description:
//
//	thicknessPerCoatM = thicknessMm / 1000
//	totalThicknessM   = thicknessPerCoatM * coatCount
//	volumeM3          = totalArea * totalThicknessM
//	volumeLiters      = volumeM3 * 1000
//
//	All fields keep full precision; rounding to 4 decimal places (cubic
//	meters) and 2 (liters) happens at presentation time via Round. The
//	data source and confidence are inherited from the area input — a
//	derived quantity is never more reliable than the area it came from.
func ComputeVolume(area AggregationResult, spec SpecRequest) (VolumeResult, error) {
	if area.TotalValue == 0 {
		return VolumeResult{}, ErrNoAreaData
	}

	thicknessPerCoatM := spec.ThicknessMm / 1000.0
	totalThicknessM := thicknessPerCoatM * float64(spec.CoatCount)
	volumeM3 := area.TotalValue * totalThicknessM

	return VolumeResult{
		AreaSqm:           area.TotalValue,
		ThicknessPerCoatM: thicknessPerCoatM,
		CoatCount:         spec.CoatCount,
		TotalThicknessM:   totalThicknessM,
		VolumeM3:          volumeM3,
		VolumeLiters:      volumeM3 * 1000.0,
		Material:          spec.Material,
		DataSource:        area.DataSource,
		Confidence:        area.Confidence,
	}, nil
}

// Round rounds v to the given number of decimal places, for presentation.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
