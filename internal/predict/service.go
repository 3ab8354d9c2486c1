package predict

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/f3rmion/aimpact/internal/model"
)

// PassMark is the lowest predicted score that counts as a pass.
const PassMark = 40.0

// ErrModelNotLoaded is returned while no regressor is available.
var ErrModelNotLoaded = errors.New("model not loaded")

// Regressor scores a row of raw inputs.
type Regressor interface {
	PredictRow(r model.Row) (float64, error)
	Categories() (tools, purposes []string)
}

// Service applies the scoring rules on top of a regressor.
type Service struct {
	reg Regressor
}

// NewService creates a service. A nil regressor makes every call fail with
// ErrModelNotLoaded.
func NewService(reg Regressor) *Service {
	return &Service{reg: reg}
}

// Ready reports whether a regressor is loaded.
func (s *Service) Ready() bool {
	return s != nil && s.reg != nil
}

// Options returns the categories the form may offer.
func (s *Service) Options() (Options, error) {
	if !s.Ready() {
		return Options{}, ErrModelNotLoaded
	}
	tools, purposes := s.reg.Categories()
	return Options{Tools: tools, Purposes: purposes}, nil
}

// Predict scores in. The score with AI is never below last exam score + 1,
// the impact is measured against the last exam, and all numbers are rounded
// to two decimals. The pass flag uses the unrounded score.
func (s *Service) Predict(ctx context.Context, in Input) (Predictions, error) {
	if err := ctx.Err(); err != nil {
		return Predictions{}, err
	}
	if !s.Ready() {
		return Predictions{}, ErrModelNotLoaded
	}

	raw, err := s.reg.PredictRow(in.Row())
	if err != nil {
		return Predictions{}, fmt.Errorf("predicting score: %w", err)
	}

	final := math.Max(raw, in.LastExamScore+1)
	impact := final - in.LastExamScore

	passed := PassedNo
	if final >= PassMark {
		passed = PassedYes
	}

	return Predictions{
		FinalScoreWithAI: ptr(round2(final)),
		LastExamScore:    ptr(round2(in.LastExamScore)),
		PassedWithAI:     passed,
		AIImpact:         ptr(round2(impact)),
	}, nil
}

// Row converts in to the regressor's input row.
func (in Input) Row() model.Row {
	return model.Row{
		Tool:              in.Tool,
		Purpose:           in.Purpose,
		Dependency:        in.Dependency,
		ContentPercentage: in.ContentPercentage,
		LastExamScore:     in.LastExamScore,
		UsageHours:        in.UsageHours,
		StudyConsistency:  in.StudyConsistency,
		SleepHours:        in.SleepHours,
	}
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
