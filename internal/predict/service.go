// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agrisense/internal/logging"
)

// Classifier is a fitted model. Predict must not retain or modify x.
type Classifier interface {
	Predict(x []float64) (int, error)
	NumFeatures() int
}

// Artifacts are the loaded, read-only model pieces for one domain.
// A nil Classifier leaves the domain unavailable.
type Artifacts struct {
	Classifier Classifier
	Scalers    ScalerPair
}

// Stage is a step of the per-request state machine. A success walks
// received, validated, features_built, scaled, predicted, decoded and
// responded in that order; a failure ends in rejected or failed.
type Stage string

const (
	StageReceived      Stage = "received"
	StageValidated     Stage = "validated"
	StageFeaturesBuilt Stage = "features_built"
	StageScaled        Stage = "scaled"
	StagePredicted     Stage = "predicted"
	StageDecoded       Stage = "decoded"
	StageResponded     Stage = "responded"
	StageRejected      Stage = "rejected"
	StageFailed        Stage = "failed"
)

// Result is the outcome of one prediction. It holds no timestamps or ids so
// identical inputs encode to identical bytes.
type Result struct {
	OK        bool           `json:"ok"`
	Domain    string         `json:"domain"`
	Stage     Stage          `json:"stage"`
	Label     string         `json:"label,omitempty"`
	ClassID   *int           `json:"class_id,omitempty"`
	Error     string         `json:"error,omitempty"`
	Kind      Kind           `json:"kind,omitempty"`
	Field     string         `json:"field,omitempty"`
	FailedAt  Stage          `json:"failed_at,omitempty"`
	Scaling   *ScalingReport `json:"scaling,omitempty"`
	Defaulted []string       `json:"defaulted,omitempty"`

	// Features is the unscaled vector, kept for history.
	Features []float64 `json:"-"`

	trail []Stage
	err   error
}

// Err returns the typed failure, or nil on success.
func (r Result) Err() error { return r.err }

// Trail returns the stages the request passed through, terminal stage last.
func (r Result) Trail() []Stage {
	return append([]Stage(nil), r.trail...)
}

func (r *Result) advance(st Stage) {
	r.Stage = st
	r.trail = append(r.trail, st)
}

// Observer receives per-call signals. Implementations must be safe for
// concurrent use.
type Observer interface {
	PredictionCompleted(domain string, stage Stage, kind Kind, elapsed time.Duration)
	ScalingDegraded(domain string)
	UnknownLabel(domain string, classID int)
}

type nopObserver struct{}

func (nopObserver) PredictionCompleted(string, Stage, Kind, time.Duration) {}
func (nopObserver) ScalingDegraded(string)                                  {}
func (nopObserver) UnknownLabel(string, int)                                {}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. The service adds the component and
// domain fields itself.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithNumericDefault sets the value used for missing or unparseable numbers.
func WithNumericDefault(v float64) Option {
	return func(s *Service) { s.numericDefault = v }
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// Service runs build → scale → predict → decode for one domain.
// It holds only immutable state and is safe for concurrent use.
type Service struct {
	domain         Domain
	artifacts      Artifacts
	builder        *Builder
	numericDefault float64
	logger         zerolog.Logger
	observer       Observer
}

// NewService wires a domain to its loaded artifacts.
func NewService(domain Domain, artifacts Artifacts, opts ...Option) *Service {
	s := &Service{
		domain:    domain,
		artifacts: artifacts,
		logger:    zerolog.Nop(),
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.builder = NewBuilder(domain.Spec, s.numericDefault)
	s.logger = s.logger.With().Str("component", "predict").Str("domain", domain.Name).Logger()

	switch {
	case artifacts.Classifier == nil:
		s.logger.Warn().Msg("classifier not loaded, predictions will fail")
	case !artifacts.Scalers.Complete():
		s.logger.Warn().
			Bool("minmax_loaded", artifacts.Scalers.MinMax != nil).
			Bool("standard_loaded", artifacts.Scalers.Standard != nil).
			Msg("scalers missing, predictions will run in degraded mode")
	}
	return s
}

// Domain returns the domain this service predicts for.
func (s *Service) Domain() Domain { return s.domain }

// Ready reports whether the classifier is loaded.
func (s *Service) Ready() bool { return s.artifacts.Classifier != nil }

// ModelStatus is what the service knows about its artifacts.
type ModelStatus struct {
	ModelLoaded          bool `json:"model_loaded"`
	StandardScalerLoaded bool `json:"standard_scaler_loaded"`
	MinMaxScalerLoaded   bool `json:"minmax_scaler_loaded"`
}

// Status reports which artifacts are present.
func (s *Service) Status() ModelStatus {
	return ModelStatus{
		ModelLoaded:          s.artifacts.Classifier != nil,
		StandardScalerLoaded: s.artifacts.Scalers.Standard != nil,
		MinMaxScalerLoaded:   s.artifacts.Scalers.MinMax != nil,
	}
}

// Predict runs the pipeline on raw request fields. It always returns a
// renderable Result; failures are described by Kind, Error and Field.
func (s *Service) Predict(ctx context.Context, raw map[string]any) Result {
	start := time.Now()
	res := s.run(raw)
	s.observer.PredictionCompleted(s.domain.Name, res.Stage, res.Kind, time.Since(start))

	log := s.logger.With().Logger()
	if id := logging.RequestIDFromContext(ctx); id != "" {
		log = log.With().Str("request_id", id).Logger()
	}

	switch res.Stage {
	case StageResponded:
		var ev *zerolog.Event
		msg := "prediction served"
		if !res.Scaling.Degraded {
			ev = log.Debug()
		} else {
			ev = log.Warn().
				Bool("minmax_applied", res.Scaling.MinMaxApplied).
				Bool("standard_applied", res.Scaling.StandardApplied)
			msg = "prediction served with degraded scaling"
		}
		ev.Str("label", res.Label).
			Int("class_id", *res.ClassID).
			Strs("defaulted", res.Defaulted).
			Msg(msg)
	case StageRejected:
		log.Debug().Str("field", res.Field).Str("reason", res.Error).Msg("prediction rejected")
	default:
		log.Warn().
			Str("kind", res.Kind.String()).
			Str("failed_at", string(res.FailedAt)).
			Str("reason", res.Error).
			Msg("prediction failed")
	}
	return res
}

func (s *Service) run(raw map[string]any) Result {
	res := Result{Domain: s.domain.Name}
	res.advance(StageReceived)

	if s.artifacts.Classifier == nil {
		return s.fail(res, ModelUnavailableError(s.domain.UnavailableReason()))
	}

	features, err := s.builder.Build(raw)
	if err != nil {
		return s.fail(res, err)
	}
	res.advance(StageValidated)
	res.advance(StageFeaturesBuilt)
	res.Features = features.Vector
	res.Defaulted = features.Defaulted

	scaled, report, err := s.artifacts.Scalers.Apply(features.Vector)
	if err != nil {
		return s.fail(res, TransformError(err))
	}
	res.advance(StageScaled)
	res.Scaling = &report
	if report.Degraded {
		s.observer.ScalingDegraded(s.domain.Name)
	}

	id, err := s.classify(scaled)
	if err != nil {
		return s.fail(res, TransformError(err))
	}
	res.advance(StagePredicted)

	label, mapped := s.domain.Labels.Lookup(id)
	if !mapped {
		label = UnknownLabel(id)
		s.observer.UnknownLabel(s.domain.Name, id)
	}
	res.advance(StageDecoded)

	res.OK = true
	res.Label = label
	res.ClassID = &id
	res.advance(StageResponded)
	return res
}

// classify guards the classifier call; a panic from a model becomes a
// TransformError instead of taking the process down.
func (s *Service) classify(x []float64) (id int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()

	if n := s.artifacts.Classifier.NumFeatures(); n > 0 && n != len(x) {
		return 0, shapeError("classifier", len(x), n)
	}
	return s.artifacts.Classifier.Predict(x)
}

func (s *Service) fail(res Result, err error) Result {
	var pe *Error
	if !errors.As(err, &pe) {
		pe = TransformError(err)
	}

	res.OK = false
	res.err = pe
	res.Error = pe.Error()
	res.Kind = pe.Kind
	res.Field = pe.Field
	res.Features = nil
	res.FailedAt = res.Stage
	if pe.Kind == KindValidation {
		res.advance(StageRejected)
	} else {
		res.advance(StageFailed)
	}
	return res
}
