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
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeVolume(t *testing.T) {
	area := AggregationResult{
		TotalValue: 100.0,
		Unit:       "square meters",
		DataSource: SourceElementQuantity,
		Confidence: ConfidenceMedium,
	}
	spec := SpecRequest{ThicknessMm: 5, CoatCount: 2, Material: MaterialPlaster}

	vol, err := ComputeVolume(area, spec)
	if err != nil {
		t.Fatalf("ComputeVolume: %v", err)
	}

	// 100 sqm x (5mm x 2) = 100 x 0.01 m = 1 cubic meter.
	if !almostEqual(vol.VolumeM3, 1.0) {
		t.Errorf("VolumeM3 = %v, want 1.0", vol.VolumeM3)
	}
	if !almostEqual(vol.VolumeLiters, 1000.0) {
		t.Errorf("VolumeLiters = %v, want 1000", vol.VolumeLiters)
	}
	if !almostEqual(vol.ThicknessPerCoatM, 0.005) {
		t.Errorf("ThicknessPerCoatM = %v, want 0.005", vol.ThicknessPerCoatM)
	}
	if !almostEqual(vol.TotalThicknessM, 0.01) {
		t.Errorf("TotalThicknessM = %v, want 0.01", vol.TotalThicknessM)
	}
	if vol.AreaSqm != 100.0 || vol.CoatCount != 2 {
		t.Errorf("inputs not carried through: %+v", vol)
	}
	if vol.Material != MaterialPlaster {
		t.Errorf("Material = %s, want %s", vol.Material, MaterialPlaster)
	}
	// Provenance is inherited from the area, never upgraded.
	if vol.DataSource != SourceElementQuantity || vol.Confidence != ConfidenceMedium {
		t.Errorf("provenance = %s/%s, want %s/%s",
			vol.DataSource, vol.Confidence, SourceElementQuantity, ConfidenceMedium)
	}
}

func TestComputeVolumeNoAreaData(t *testing.T) {
	area := AggregationResult{
		TotalValue:  0,
		EntityCount: 3,
		DataSource:  SourceNone,
		Confidence:  ConfidenceNone,
	}
	spec := SpecRequest{ThicknessMm: 5, CoatCount: 2, Material: MaterialPlaster}

	_, err := ComputeVolume(area, spec)
	if !errors.Is(err, ErrNoAreaData) {
		t.Fatalf("ComputeVolume error = %v, want ErrNoAreaData", err)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{1.23456, 4, 1.2346},
		{999.999, 2, 1000.0},
		{0.0049999, 2, 0.0},
		{25.5, 4, 25.5},
		{-1.005, 2, -1.0},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.places); got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
}
