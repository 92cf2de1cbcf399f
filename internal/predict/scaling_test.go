// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package predict

import (
	"errors"
	"math"
	"testing"
)

// Reference crop scalers, fitted on the crop training set bounds.
var (
	cropDataMin = []float64{0, 5, 5, 8.825675, 14.25804, 3.504752, 20.211267}
	cropDataMax = []float64{140, 145, 205, 43.675493, 99.981876, 9.935091, 298.560117}
	cropMean    = []float64{0.3611, 0.3454, 0.2157, 0.4819, 0.6675, 0.4611, 0.2991}
	cropStd     = []float64{0.2637, 0.2356, 0.2532, 0.1452, 0.2597, 0.1204, 0.1975}

	// appleGolden is appleSample after min-max then standard scaling.
	appleGolden = []float64{
		-0.9901403109594237, 2.6268493815183116, 2.93957345971564, -0.44856036852858566,
		0.8723780678297525, -0.5163713449901718, 0.17416614675515268,
	}

	// appleReversed is appleSample after standard then min-max scaling.
	appleReversed = []float64{
		0.3694376726799935, 4.198296143584768, 3.8609458925750397, 4.265965654480393,
		3.886794561921339, 6.69961508604095, 1.9781965436537643,
	}
)

func referenceCropScalers(t *testing.T) ScalerPair {
	t.Helper()
	mm, err := MinMaxFromData(cropDataMin, cropDataMax, 0, 1)
	if err != nil {
		t.Fatalf("MinMaxFromData() error = %v", err)
	}
	std, err := NewStandardScaler(cropMean, cropStd)
	if err != nil {
		t.Fatalf("NewStandardScaler() error = %v", err)
	}
	return ScalerPair{MinMax: mm, Standard: std}
}

func assertVector(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("vector length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("vector[%d] = %.15f, want %.15f", i, got[i], want[i])
		}
	}
}

func TestScalerPair_GoldenVector(t *testing.T) {
	t.Parallel()

	pair := referenceCropScalers(t)
	got, report, err := pair.Apply(appleSample)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	assertVector(t, got, appleGolden)

	if !report.MinMaxApplied || !report.StandardApplied || report.Degraded {
		t.Errorf("report = %+v, want both applied", report)
	}
}

func TestScalerPair_OrderMatters(t *testing.T) {
	t.Parallel()

	pair := referenceCropScalers(t)
	reversed := ScalerPair{MinMax: pair.Standard, Standard: pair.MinMax}

	got, _, err := reversed.Apply(appleSample)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	assertVector(t, got, appleReversed)

	differs := false
	for i := range got {
		if math.Abs(got[i]-appleGolden[i]) > 1e-6 {
			differs = true
		}
	}
	if !differs {
		t.Error("reversing the transforms left the output unchanged")
	}
}

func TestScalerPair_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	in := append([]float64(nil), appleSample...)
	pair := referenceCropScalers(t)
	if _, _, err := pair.Apply(in); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	for i := range in {
		if in[i] != appleSample[i] {
			t.Fatalf("input[%d] changed to %v", i, in[i])
		}
	}
}

func TestScalerPair_Degraded(t *testing.T) {
	t.Parallel()

	full := referenceCropScalers(t)

	tests := []struct {
		name         string
		pair         ScalerPair
		wantMinMax   bool
		wantStandard bool
	}{
		{"minmax only", ScalerPair{MinMax: full.MinMax}, true, false},
		{"standard only", ScalerPair{Standard: full.Standard}, false, true},
		{"none", ScalerPair{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := append([]float64(nil), appleSample...)
			got, report, err := tt.pair.Apply(in)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if !report.Degraded {
				t.Error("report.Degraded = false, want true")
			}
			if report.MinMaxApplied != tt.wantMinMax || report.StandardApplied != tt.wantStandard {
				t.Errorf("report = %+v", report)
			}
			if !tt.wantMinMax && !tt.wantStandard {
				assertVector(t, got, appleSample)
				got[0] = -1
				if in[0] != appleSample[0] {
					t.Error("pass-through output aliases the input")
				}
			}
		})
	}
}

func TestScalerPair_ShapeMismatch(t *testing.T) {
	t.Parallel()

	pair := referenceCropScalers(t)
	_, _, err := pair.Apply([]float64{1, 2, 3})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Apply(short) error = %v, want ErrShapeMismatch", err)
	}
}

type nanTransformer struct{}

func (nanTransformer) Transform(x []float64) ([]float64, error) {
	out := make([]float64, len(x))
	out[0] = math.NaN()
	return out, nil
}
func (nanTransformer) NumFeatures() int { return 7 }

func TestScalerPair_NonFinite(t *testing.T) {
	t.Parallel()

	_, _, err := ScalerPair{MinMax: nanTransformer{}}.Apply(appleSample)
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("Apply() error = %v, want ErrNonFinite", err)
	}
}

func TestMinMaxScaler(t *testing.T) {
	t.Parallel()

	s, err := NewMinMaxScaler([]float64{0, -1}, []float64{0.5, 0.25})
	if err != nil {
		t.Fatalf("NewMinMaxScaler() error = %v", err)
	}
	got, err := s.Transform([]float64{2, 12})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	assertVector(t, got, []float64{1, 2})

	s.Clip = true
	got, _ = s.Transform([]float64{2, 12})
	assertVector(t, got, []float64{1, 1})

	if _, err := NewMinMaxScaler([]float64{0}, []float64{1, 2}); err == nil {
		t.Error("NewMinMaxScaler(mismatched) error = nil")
	}
	if _, err := NewMinMaxScaler([]float64{math.NaN()}, []float64{1}); !errors.Is(err, ErrNonFinite) {
		t.Errorf("NewMinMaxScaler(NaN) error = %v, want ErrNonFinite", err)
	}
}

func TestMinMaxFromData(t *testing.T) {
	t.Parallel()

	s, err := MinMaxFromData([]float64{10, 3}, []float64{20, 3}, -1, 1)
	if err != nil {
		t.Fatalf("MinMaxFromData() error = %v", err)
	}
	got, _ := s.Transform([]float64{15, 3})
	assertVector(t, got, []float64{0, -1})

	if _, err := MinMaxFromData([]float64{0}, []float64{1}, 1, 1); err == nil {
		t.Error("MinMaxFromData(empty range) error = nil")
	}
}

func TestStandardScaler(t *testing.T) {
	t.Parallel()

	s, err := NewStandardScaler([]float64{1, 2}, []float64{2, 0})
	if err != nil {
		t.Fatalf("NewStandardScaler() error = %v", err)
	}
	got, _ := s.Transform([]float64{5, 7})
	assertVector(t, got, []float64{2, 5})

	noMean, err := NewStandardScaler(nil, []float64{4})
	if err != nil {
		t.Fatalf("NewStandardScaler(nil mean) error = %v", err)
	}
	got, _ = noMean.Transform([]float64{8})
	assertVector(t, got, []float64{2})

	if _, err := NewStandardScaler(nil, nil); err == nil {
		t.Error("NewStandardScaler(nil, nil) error = nil")
	}
	if _, err := NewStandardScaler([]float64{1, 2}, []float64{1}); err == nil {
		t.Error("NewStandardScaler(mismatched) error = nil")
	}
}
