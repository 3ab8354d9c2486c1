// Package predict holds the prediction wire format and the service that
// turns a student's inputs into scores with and without AI assistance.
package predict

import (
	"math"
)

// Passed flag values on the wire.
const (
	PassedYes = "Yes"
	PassedNo  = "No"
)

// Request is the JSON body of POST /predict. Numeric fields accept numbers
// or numeric strings and fall back to defaults when absent.
type Request struct {
	Tool              string `json:"ai_tools_used,omitempty"`
	Purpose           string `json:"ai_usage_purpose,omitempty"`
	Dependency        *Float `json:"ai_dependency_score,omitempty"`
	ContentPercentage *Float `json:"ai_generated_content_percentage,omitempty"`
	LastExamScore     *Float `json:"last_exam_score,omitempty"`
	UsageHours        *Float `json:"ai_usage_hours,omitempty"`
	StudyConsistency  *Float `json:"study_consistency_index,omitempty"`
	SleepHours        *Float `json:"sleep_hours,omitempty"`
}

// Predictions is the payload of a successful response.
type Predictions struct {
	FinalScoreWithAI *float64 `json:"final_score_with_ai"`
	LastExamScore    *float64 `json:"last_exam_score"`
	PassedWithAI     string   `json:"passed_with_ai"`
	AIImpact         *float64 `json:"ai_impact"`
}

// Response is the JSON body returned by POST /predict.
type Response struct {
	Success     bool         `json:"success"`
	Predictions *Predictions `json:"predictions,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Options lists the categories the model was trained on.
type Options struct {
	Tools    []string `json:"tools"`
	Purposes []string `json:"purposes"`
}

// Result is a prediction as the results panel consumes it. Missing numbers
// are NaN.
type Result struct {
	ScoreWithAI    float64
	ReferenceScore float64
	Passed         bool
	Impact         float64
}

// Result converts the wire payload, mapping absent numbers to NaN.
func (p Predictions) Result() Result {
	return Result{
		ScoreWithAI:    orNaN(p.FinalScoreWithAI),
		ReferenceScore: orNaN(p.LastExamScore),
		Passed:         p.PassedWithAI == PassedYes,
		Impact:         orNaN(p.AIImpact),
	}
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func ptr(v float64) *float64 {
	return &v
}
