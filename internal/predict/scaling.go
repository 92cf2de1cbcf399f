// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package predict

import (
	"fmt"
	"math"
)

// Transformer is a fitted, stateless column transform.
type Transformer interface {
	Transform(x []float64) ([]float64, error)
	NumFeatures() int
}

// MinMaxScaler applies x*Scale + Min per column, the fitted form of a
// min-max scaler. With Clip set, results are clamped to Range.
type MinMaxScaler struct {
	Min   []float64
	Scale []float64
	Range [2]float64
	Clip  bool
}

// NewMinMaxScaler builds a scaler from fitted min and scale vectors.
func NewMinMaxScaler(minimum, scale []float64) (*MinMaxScaler, error) {
	if len(minimum) == 0 || len(minimum) != len(scale) {
		return nil, fmt.Errorf("minmax scaler: min has %d values, scale has %d", len(minimum), len(scale))
	}
	if err := allFinite(minimum, scale); err != nil {
		return nil, fmt.Errorf("minmax scaler: %w", err)
	}
	return &MinMaxScaler{
		Min:   append([]float64(nil), minimum...),
		Scale: append([]float64(nil), scale...),
		Range: [2]float64{0, 1},
	}, nil
}

// MinMaxFromData derives min and scale from training data bounds and the
// target range. Constant columns get a unit range.
func MinMaxFromData(dataMin, dataMax []float64, lo, hi float64) (*MinMaxScaler, error) {
	if len(dataMin) == 0 || len(dataMin) != len(dataMax) {
		return nil, fmt.Errorf("minmax scaler: data_min has %d values, data_max has %d", len(dataMin), len(dataMax))
	}
	if hi <= lo {
		return nil, fmt.Errorf("minmax scaler: invalid feature range [%g, %g]", lo, hi)
	}
	minimum := make([]float64, len(dataMin))
	scale := make([]float64, len(dataMin))
	for i := range dataMin {
		span := dataMax[i] - dataMin[i]
		if span == 0 {
			span = 1
		}
		scale[i] = (hi - lo) / span
		minimum[i] = lo - dataMin[i]*scale[i]
	}
	s, err := NewMinMaxScaler(minimum, scale)
	if err != nil {
		return nil, err
	}
	s.Range = [2]float64{lo, hi}
	return s, nil
}

// NumFeatures implements Transformer.
func (s *MinMaxScaler) NumFeatures() int { return len(s.Scale) }

// Transform implements Transformer.
func (s *MinMaxScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Scale) {
		return nil, shapeError("minmax scaler", len(x), len(s.Scale))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v*s.Scale[i] + s.Min[i]
		if s.Clip {
			out[i] = math.Min(math.Max(out[i], s.Range[0]), s.Range[1])
		}
	}
	return out, nil
}

// StandardScaler applies (x - Mean) / Scale per column. A nil Mean skips
// centering and a nil Scale skips scaling.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
	n     int
}

// NewStandardScaler builds a scaler from fitted mean and scale vectors.
// Zero scale entries are treated as 1.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	n := len(mean)
	if n == 0 {
		n = len(scale)
	}
	if n == 0 {
		return nil, fmt.Errorf("standard scaler: neither mean nor scale given")
	}
	if (mean != nil && len(mean) != n) || (scale != nil && len(scale) != n) {
		return nil, fmt.Errorf("standard scaler: mean has %d values, scale has %d", len(mean), len(scale))
	}
	if err := allFinite(mean, scale); err != nil {
		return nil, fmt.Errorf("standard scaler: %w", err)
	}

	s := &StandardScaler{n: n}
	if mean != nil {
		s.Mean = append([]float64(nil), mean...)
	}
	if scale != nil {
		s.Scale = make([]float64, n)
		for i, v := range scale {
			if v == 0 {
				v = 1
			}
			s.Scale[i] = v
		}
	}
	return s, nil
}

// NumFeatures implements Transformer.
func (s *StandardScaler) NumFeatures() int { return s.n }

// Transform implements Transformer.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != s.n {
		return nil, shapeError("standard scaler", len(x), s.n)
	}
	out := make([]float64, len(x))
	for i, v := range x {
		if s.Mean != nil {
			v -= s.Mean[i]
		}
		if s.Scale != nil {
			v /= s.Scale[i]
		}
		out[i] = v
	}
	return out, nil
}

// ScalingReport records which transforms ran for a single call.
type ScalingReport struct {
	MinMaxApplied   bool `json:"minmax_applied"`
	StandardApplied bool `json:"standard_applied"`
	Degraded        bool `json:"degraded"`
}

// ScalerPair chains the min-max transform into the standard transform.
// Either may be nil, in which case that step is skipped and the report
// is marked degraded.
type ScalerPair struct {
	MinMax   Transformer
	Standard Transformer
}

// Complete reports whether both transforms are present.
func (p ScalerPair) Complete() bool {
	return p.MinMax != nil && p.Standard != nil
}

// Apply runs min-max then standard scaling. x is never modified.
func (p ScalerPair) Apply(x []float64) ([]float64, ScalingReport, error) {
	report := ScalingReport{Degraded: !p.Complete()}
	out := x

	if p.MinMax != nil {
		scaled, err := p.MinMax.Transform(out)
		if err != nil {
			return nil, report, err
		}
		out = scaled
		report.MinMaxApplied = true
	}

	if p.Standard != nil {
		scaled, err := p.Standard.Transform(out)
		if err != nil {
			return nil, report, err
		}
		out = scaled
		report.StandardApplied = true
	}

	if err := allFinite(out); err != nil {
		return nil, report, fmt.Errorf("scaled vector: %w", err)
	}
	if !report.MinMaxApplied && !report.StandardApplied {
		out = append([]float64(nil), x...)
	}
	return out, report, nil
}

func allFinite(vectors ...[]float64) error {
	for _, vec := range vectors {
		for i, v := range vec {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w at column %d", ErrNonFinite, i)
			}
		}
	}
	return nil
}
