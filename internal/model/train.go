package model

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Dataset column names.
const (
	ColTool              = "ai_tools_used"
	ColPurpose           = "ai_usage_purpose"
	ColDependency        = "ai_dependency_score"
	ColContentPercentage = "ai_generated_content_percentage"
	ColLastExamScore     = "last_exam_score"
	ColUsageMinutes      = "ai_usage_time_minutes"
	ColStudyConsistency  = "study_consistency_index"
	ColSleepHours        = "sleep_hours"
	ColFinalScore        = "final_score"
)

// ErrSingular is returned when the training rows do not determine the model.
var ErrSingular = errors.New("singular system")

// Sample is one labelled training row.
type Sample struct {
	Row
	FinalScore float64
}

// TrainOptions controls the split, the model kind and its fitting.
type TrainOptions struct {
	Kind         string
	TestFraction float64
	Seed         uint64

	// random forest
	Trees          int
	MaxDepth       int
	MinSamplesLeaf int

	// linear
	Ridge float64
}

// DefaultTrainOptions holds out 20% of rows with a fixed seed and grows 200
// trees of depth at most 15.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Kind:           KindForest,
		TestFraction:   0.2,
		Seed:           42,
		Trees:          200,
		MaxDepth:       15,
		MinSamplesLeaf: 1,
		Ridge:          1e-6,
	}
}

// ReadDatasetFile reads a CSV dataset from disk.
func ReadDatasetFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	return ReadDataset(f)
}

// ReadDataset parses CSV rows with a header line. Blank categories become
// "None"; usage minutes are converted to hours and default to 0 when the
// column is absent.
func ReadDataset(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	required := []string{
		ColTool, ColPurpose, ColDependency, ColContentPercentage, ColLastExamScore,
		ColStudyConsistency, ColSleepHours, ColFinalScore,
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("dataset is missing column %q", name)
		}
	}
	_, hasMinutes := cols[ColUsageMinutes]

	var samples []Sample
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		category := func(name string) string {
			v := strings.TrimSpace(rec[cols[name]])
			if v == "" || strings.EqualFold(v, "nan") {
				return "None"
			}
			return v
		}
		var parseErr error
		number := func(name string) float64 {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[cols[name]]), 64)
			if err != nil && parseErr == nil {
				parseErr = fmt.Errorf("line %d column %s: %w", line, name, err)
			}
			return v
		}

		s := Sample{
			Row: Row{
				Tool:              category(ColTool),
				Purpose:           category(ColPurpose),
				Dependency:        number(ColDependency),
				ContentPercentage: number(ColContentPercentage),
				LastExamScore:     number(ColLastExamScore),
				StudyConsistency:  number(ColStudyConsistency),
				SleepHours:        number(ColSleepHours),
			},
			FinalScore: number(ColFinalScore),
		}
		if hasMinutes {
			s.UsageHours = number(ColUsageMinutes) / 60.0
		}
		if parseErr != nil {
			return nil, parseErr
		}
		samples = append(samples, s)
	}

	if len(samples) == 0 {
		return nil, errors.New("dataset has no rows")
	}
	return samples, nil
}

// Train fits a model of opts.Kind on a seeded split of samples and reports
// R² and MAE on the held-out part.
func Train(ctx context.Context, samples []Sample, opts TrainOptions) (*Model, error) {
	if len(samples) == 0 {
		return nil, errors.New("no samples to train on")
	}

	tools := make([]string, len(samples))
	purposes := make([]string, len(samples))
	for i, s := range samples {
		tools[i] = s.Tool
		purposes[i] = s.Purpose
	}

	m := &Model{
		Kind:     opts.Kind,
		Features: FeatureNames,
		Tools:    NewEncoder(tools),
		Purposes: NewEncoder(purposes),
	}

	x := make([][]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = m.Vector(s.Row)
		y[i] = s.FinalScore
	}

	train, test := split(len(samples), opts)

	switch opts.Kind {
	case KindForest:
		forest, err := fitForest(ctx, x, y, train, ForestOptions{
			Trees:          opts.Trees,
			MaxDepth:       opts.MaxDepth,
			MinSamplesLeaf: opts.MinSamplesLeaf,
			Seed:           opts.Seed,
		})
		if err != nil {
			return nil, fmt.Errorf("growing forest: %w", err)
		}
		m.Forest = forest
	case KindLinear:
		intercept, weights, err := fitLinear(x, y, train, opts.Ridge)
		if err != nil {
			return nil, fmt.Errorf("fitting model: %w", err)
		}
		m.Intercept = intercept
		m.Weights = weights
	default:
		return nil, fmt.Errorf("unsupported model kind %q", opts.Kind)
	}

	eval := test
	if len(eval) == 0 {
		eval = train
	}
	want := make([]float64, len(eval))
	pred := make([]float64, len(eval))
	for i, idx := range eval {
		want[i] = y[idx]
		p, err := m.Predict(x[idx])
		if err != nil {
			return nil, err
		}
		pred[i] = p
	}

	m.Metrics = Metrics{
		R2:        R2(want, pred),
		MAE:       MAE(want, pred),
		TrainRows: len(train),
		TestRows:  len(test),
	}
	m.TrainedAt = time.Now().UTC()

	return m, nil
}

// split shuffles row indices with the seed and holds out TestFraction of them.
func split(n int, opts TrainOptions) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	frac := opts.TestFraction
	if frac < 0 || frac >= 1 {
		frac = 0
	}
	nTest := int(math.Ceil(float64(n) * frac))
	if nTest >= n {
		nTest = 0
	}
	return idx[nTest:], idx[:nTest]
}

// fitLinear solves the ridge normal equations (XᵀX + λI)β = Xᵀy by Cholesky
// factorisation, with an unpenalised intercept column.
func fitLinear(x [][]float64, y []float64, rows []int, ridge float64) (float64, []float64, error) {
	p := len(FeatureNames) + 1
	design := mat.NewDense(len(rows), p, nil)
	target := mat.NewVecDense(len(rows), nil)
	for i, idx := range rows {
		design.Set(i, 0, 1)
		for j, v := range x[idx] {
			design.Set(i, j+1, v)
		}
		target.SetVec(i, y[idx])
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, design.T())
	for i := 1; i < p; i++ {
		xtx.SetSym(i, i, xtx.At(i, i)+ridge)
	}

	var xty mat.VecDense
	xty.MulVec(design.T(), target)

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return 0, nil, ErrSingular
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	weights := make([]float64, p-1)
	for i := range weights {
		weights[i] = beta.AtVec(i + 1)
	}
	return beta.AtVec(0), weights, nil
}

// R2 is the coefficient of determination. Constant targets score 1 when
// predicted exactly and 0 otherwise.
func R2(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	if floats.Max(y) == floats.Min(y) {
		if floats.Equal(y, pred) {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(pred, y, nil)
}

// MAE is the mean absolute error.
func MAE(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	return floats.Distance(y, pred, 1) / float64(len(y))
}
