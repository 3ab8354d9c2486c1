package predict_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/f3rmion/aimpact/internal/model"
	"github.com/f3rmion/aimpact/internal/predict"
	. "github.com/smartystreets/goconvey/convey"
)

type fixedRegressor struct {
	score float64
	err   error
	last  model.Row
}

func (f *fixedRegressor) PredictRow(r model.Row) (float64, error) {
	f.last = r
	return f.score, f.err
}

func (f *fixedRegressor) Categories() ([]string, []string) {
	return []string{"ChatGPT", "None"}, []string{"Coding"}
}

func TestServicePredict(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service over a regressor", t, func() {
		reg := &fixedRegressor{}
		svc := predict.NewService(reg)

		Convey("When the raw score is well above the last exam", func() {
			reg.score = 82.3456
			in := predict.DefaultInput()
			in.LastExamScore = 70

			p, err := svc.Predict(ctx, in)

			Convey("Then the raw score is kept and the impact measured from the last exam", func() {
				So(err, ShouldBeNil)
				So(*p.FinalScoreWithAI, ShouldEqual, 82.35)
				So(*p.LastExamScore, ShouldEqual, 70.0)
				So(*p.AIImpact, ShouldEqual, 12.35)
				So(p.PassedWithAI, ShouldEqual, "Yes")
			})
		})

		Convey("When the raw score is below the last exam", func() {
			reg.score = 20
			in := predict.DefaultInput()
			in.LastExamScore = 30

			p, err := svc.Predict(ctx, in)

			Convey("Then the score with AI is lifted to last exam + 1", func() {
				So(err, ShouldBeNil)
				So(*p.FinalScoreWithAI, ShouldEqual, 31.0)
				So(*p.AIImpact, ShouldEqual, 1.0)
				So(p.PassedWithAI, ShouldEqual, "No")
			})
		})

		Convey("When the score lands exactly on the pass mark", func() {
			reg.score = 40
			in := predict.DefaultInput()
			in.LastExamScore = 10

			p, _ := svc.Predict(ctx, in)
			So(p.PassedWithAI, ShouldEqual, "Yes")
		})

		Convey("When the regressor fails", func() {
			reg.err = model.ErrFeatureMismatch
			_, err := svc.Predict(ctx, predict.DefaultInput())
			So(errors.Is(err, model.ErrFeatureMismatch), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Predict(cctx, predict.DefaultInput())
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})

		Convey("The inputs reach the regressor unchanged", func() {
			in := predict.DefaultInput()
			in.Tool = "ChatGPT"
			in.UsageHours = 2.5
			_, _ = svc.Predict(ctx, in)
			So(reg.last.Tool, ShouldEqual, "ChatGPT")
			So(reg.last.UsageHours, ShouldEqual, 2.5)
		})

		Convey("Options come from the regressor", func() {
			opts, err := svc.Options()
			So(err, ShouldBeNil)
			So(opts.Tools, ShouldResemble, []string{"ChatGPT", "None"})
		})
	})

	Convey("Given a service without a model", t, func() {
		svc := predict.NewService(nil)
		So(svc.Ready(), ShouldBeFalse)
		_, err := svc.Predict(ctx, predict.DefaultInput())
		So(errors.Is(err, predict.ErrModelNotLoaded), ShouldBeTrue)
		_, err = svc.Options()
		So(errors.Is(err, predict.ErrModelNotLoaded), ShouldBeTrue)
	})
}

func TestRequestDecoding(t *testing.T) {
	Convey("Given request bodies", t, func() {
		Convey("An empty body resolves to the defaults", func() {
			var req predict.Request
			So(json.Unmarshal([]byte(`{}`), &req), ShouldBeNil)
			So(req.Input(), ShouldResemble, predict.DefaultInput())
		})

		Convey("Numbers may arrive as strings", func() {
			var req predict.Request
			err := json.Unmarshal([]byte(`{"last_exam_score":"72.5","sleep_hours":6,"ai_tools_used":"Claude"}`), &req)
			So(err, ShouldBeNil)
			in := req.Input()
			So(in.LastExamScore, ShouldEqual, 72.5)
			So(in.SleepHours, ShouldEqual, 6.0)
			So(in.Tool, ShouldEqual, "Claude")
			So(in.Purpose, ShouldEqual, "None")
			So(in.UsageHours, ShouldEqual, 1.0)
		})

		Convey("Null fields fall back to defaults", func() {
			var req predict.Request
			So(json.Unmarshal([]byte(`{"ai_dependency_score":null}`), &req), ShouldBeNil)
			So(req.Input().Dependency, ShouldEqual, 5.0)
		})

		Convey("Non-numeric values are invalid input", func() {
			for _, body := range []string{
				`{"last_exam_score":"abc"}`,
				`{"sleep_hours":true}`,
				`{"ai_usage_hours":"NaN"}`,
			} {
				var req predict.Request
				err := json.Unmarshal([]byte(body), &req)
				So(errors.Is(err, predict.ErrInvalidInput), ShouldBeTrue)
			}
		})

		Convey("The input error carries the offending value once", func() {
			var req predict.Request
			err := json.Unmarshal([]byte(`{"last_exam_score":"abc"}`), &req)

			var inputErr *predict.InputError
			So(errors.As(err, &inputErr), ShouldBeTrue)
			So(inputErr.Detail, ShouldEqual, `could not convert "abc" to a number`)
			So(err.Error(), ShouldEqual, `invalid input format: could not convert "abc" to a number`)
		})

		Convey("A resolved input encodes every field", func() {
			in := predict.DefaultInput()
			in.UsageHours = 2.5
			data, err := json.Marshal(in.Request())
			So(err, ShouldBeNil)

			var back predict.Request
			So(json.Unmarshal(data, &back), ShouldBeNil)
			So(back.Input(), ShouldResemble, in)
		})
	})
}

func TestPredictionsResult(t *testing.T) {
	Convey("Given a response payload", t, func() {
		score, last, impact := 82.3, 70.0, 12.3

		Convey("A complete payload converts field by field", func() {
			r := predict.Predictions{
				FinalScoreWithAI: &score,
				LastExamScore:    &last,
				PassedWithAI:     "Yes",
				AIImpact:         &impact,
			}.Result()
			So(r.ScoreWithAI, ShouldEqual, 82.3)
			So(r.ReferenceScore, ShouldEqual, 70.0)
			So(r.Passed, ShouldBeTrue)
			So(r.Impact, ShouldEqual, 12.3)
		})

		Convey("Missing numbers become NaN", func() {
			var p predict.Predictions
			So(json.Unmarshal([]byte(`{"final_score_with_ai":55,"passed_with_ai":"No"}`), &p), ShouldBeNil)
			r := p.Result()
			So(r.ScoreWithAI, ShouldEqual, 55.0)
			So(math.IsNaN(r.ReferenceScore), ShouldBeTrue)
			So(math.IsNaN(r.Impact), ShouldBeTrue)
			So(r.Passed, ShouldBeFalse)
		})
	})
}
