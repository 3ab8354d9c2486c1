package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a fresh registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithRegistry(registry), WithLatencyBuckets([]float64{0.001, 0.01, 0.1}))

		Convey("When predictions are recorded", func() {
			m.RecordPrediction(true, 12.35, 2*time.Millisecond)
			m.RecordPrediction(true, 3, time.Millisecond)
			m.RecordPrediction(false, -8, time.Millisecond)
			m.RecordPredictionError(OutcomeInvalid)

			Convey("Then they are counted by outcome", func() {
				So(testutil.ToFloat64(m.predictions.WithLabelValues(OutcomePassed)), ShouldEqual, 2.0)
				So(testutil.ToFloat64(m.predictions.WithLabelValues(OutcomeFailed)), ShouldEqual, 1.0)
				So(testutil.ToFloat64(m.predictions.WithLabelValues(OutcomeInvalid)), ShouldEqual, 1.0)
				So(testutil.ToFloat64(m.predictions.WithLabelValues(OutcomeError)), ShouldEqual, 0.0)
			})

			Convey("Then the histograms have one sample per prediction", func() {
				So(testutil.CollectAndCount(m.impact), ShouldEqual, 1)
				count, err := testutil.GatherAndCount(registry, "aimpact_predict_ai_impact_points")
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)

				count, err = testutil.GatherAndCount(registry, "aimpact_predict_prediction_duration_seconds")
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When HTTP requests are recorded", func() {
			m.RecordHTTPRequest("/predict", http.MethodPost, http.StatusOK, time.Millisecond)
			m.RecordHTTPRequest("/predict", http.MethodPost, http.StatusBadRequest, time.Millisecond)
			m.RecordHTTPRequest("/predict", http.MethodPost, http.StatusOK, time.Millisecond)

			So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/predict", "POST", "200")), ShouldEqual, 2.0)
			So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/predict", "POST", "400")), ShouldEqual, 1.0)
		})

		Convey("When the model state changes", func() {
			m.SetModelLoaded(true)
			So(testutil.ToFloat64(m.modelLoaded), ShouldEqual, 1.0)
			m.SetModelLoaded(false)
			So(testutil.ToFloat64(m.modelLoaded), ShouldEqual, 0.0)
		})

		Convey("The handler exposes the registry", func() {
			m.SetModelLoaded(true)
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "aimpact_predict_model_loaded 1")
		})
	})

	Convey("Given a manager with defaults", t, func() {
		m := NewManager(WithNamespace("test"), WithSubsystem("unit"))

		Convey("It carries the runtime collectors on its own registry", func() {
			count, err := testutil.GatherAndCount(m.Registry(), "go_goroutines")
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 1)
		})
	})
}
