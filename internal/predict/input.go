package predict

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidInput is returned when a request field cannot be read as a number.
var ErrInvalidInput = errors.New("invalid input format")

// InputError reports a request field that cannot be read as a number. It
// matches ErrInvalidInput with errors.Is.
type InputError struct {
	Detail string
}

func (e *InputError) Error() string {
	return ErrInvalidInput.Error() + ": " + e.Detail
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// Float is a JSON number that may also be sent as a numeric string.
type Float float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return &InputError{Detail: err.Error()}
		}
	} else {
		raw = string(data)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return &InputError{Detail: fmt.Sprintf("could not convert %s to a number", data)}
	}
	*f = Float(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(f), 'f', -1, 64)), nil
}

// DefaultCategory is used for an absent tool or purpose. It is also a real
// class in the training data, where blanks are filled with it.
const DefaultCategory = "None"

// Input is a fully resolved set of model inputs.
type Input struct {
	Tool              string  `json:"ai_tools_used" yaml:"ai_tools_used"`
	Purpose           string  `json:"ai_usage_purpose" yaml:"ai_usage_purpose"`
	Dependency        float64 `json:"ai_dependency_score" yaml:"ai_dependency_score"`
	ContentPercentage float64 `json:"ai_generated_content_percentage" yaml:"ai_generated_content_percentage"`
	LastExamScore     float64 `json:"last_exam_score" yaml:"last_exam_score"`
	UsageHours        float64 `json:"ai_usage_hours" yaml:"ai_usage_hours"`
	StudyConsistency  float64 `json:"study_consistency_index" yaml:"study_consistency_index"`
	SleepHours        float64 `json:"sleep_hours" yaml:"sleep_hours"`
}

// DefaultInput returns the values used for fields a request leaves out.
func DefaultInput() Input {
	return Input{
		Tool:              DefaultCategory,
		Purpose:           DefaultCategory,
		Dependency:        5,
		ContentPercentage: 50,
		LastExamScore:     50,
		UsageHours:        1.0,
		StudyConsistency:  5,
		SleepHours:        7,
	}
}

// Input resolves the request against DefaultInput.
func (r Request) Input() Input {
	in := DefaultInput()
	if r.Tool != "" {
		in.Tool = r.Tool
	}
	if r.Purpose != "" {
		in.Purpose = r.Purpose
	}
	set := func(dst *float64, v *Float) {
		if v != nil {
			*dst = float64(*v)
		}
	}
	set(&in.Dependency, r.Dependency)
	set(&in.ContentPercentage, r.ContentPercentage)
	set(&in.LastExamScore, r.LastExamScore)
	set(&in.UsageHours, r.UsageHours)
	set(&in.StudyConsistency, r.StudyConsistency)
	set(&in.SleepHours, r.SleepHours)
	return in
}

// Request builds a request that carries every field of in.
func (in Input) Request() Request {
	f := func(v float64) *Float {
		x := Float(v)
		return &x
	}
	return Request{
		Tool:              in.Tool,
		Purpose:           in.Purpose,
		Dependency:        f(in.Dependency),
		ContentPercentage: f(in.ContentPercentage),
		LastExamScore:     f(in.LastExamScore),
		UsageHours:        f(in.UsageHours),
		StudyConsistency:  f(in.StudyConsistency),
		SleepHours:        f(in.SleepHours),
	}
}
