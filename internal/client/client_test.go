package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/f3rmion/aimpact/internal/model"
	"github.com/f3rmion/aimpact/internal/predict"
	"github.com/f3rmion/aimpact/internal/server"
	. "github.com/smartystreets/goconvey/convey"
)

func testService() *predict.Service {
	return predict.NewService(&model.Model{
		Kind:      model.KindLinear,
		Features:  model.FeatureNames,
		Intercept: 12.3,
		Weights:   []float64{0, 0, 0, 0, 1, 0, 0, 0},
		Tools:     model.NewEncoder([]string{"ChatGPT", "None"}),
		Purposes:  model.NewEncoder([]string{"Homework", "None"}),
	})
}

func TestClientAgainstServer(t *testing.T) {
	Convey("Given a prediction server", t, func() {
		ts := httptest.NewServer(server.New(testService()).Handler())
		Reset(ts.Close)

		c := New(ts.URL+"/", time.Second)
		ctx := context.Background()

		Convey("The endpoint is normalised", func() {
			So(c.Endpoint(), ShouldEqual, ts.URL)
		})

		Convey("When a prediction is requested", func() {
			in := predict.DefaultInput()
			in.LastExamScore = 70
			res, err := c.Predict(ctx, in)

			Convey("Then the result is ready for the panel", func() {
				So(err, ShouldBeNil)
				So(res.ScoreWithAI, ShouldEqual, 82.3)
				So(res.ReferenceScore, ShouldEqual, 70.0)
				So(res.Passed, ShouldBeTrue)
				So(res.Impact, ShouldEqual, 12.3)
			})
		})

		Convey("The options come from the model", func() {
			opts, err := c.Options(ctx)
			So(err, ShouldBeNil)
			So(opts.Tools, ShouldResemble, []string{"ChatGPT", "None"})
			So(opts.Purposes, ShouldResemble, []string{"Homework", "None"})
		})
	})

	Convey("Given a server without a model", t, func() {
		ts := httptest.NewServer(server.New(predict.NewService(nil)).Handler())
		Reset(ts.Close)
		c := New(ts.URL, time.Second)

		Convey("Predict fails with the server's message", func() {
			_, err := c.Predict(context.Background(), predict.DefaultInput())

			var perr *PredictionError
			So(errors.As(err, &perr), ShouldBeTrue)
			So(perr.Status, ShouldEqual, http.StatusInternalServerError)
			So(perr.Message, ShouldEqual, server.MsgModelNotLoaded)
		})

		Convey("Options fail with the server's message", func() {
			_, err := c.Options(context.Background())

			var perr *PredictionError
			So(errors.As(err, &perr), ShouldBeTrue)
			So(perr.Message, ShouldEqual, server.MsgModelNotLoaded)
		})
	})
}

func TestClientFailures(t *testing.T) {
	Convey("Given a server that fails without a message", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(predict.Response{Success: false})
		}))
		Reset(ts.Close)

		_, err := New(ts.URL, time.Second).Predict(context.Background(), predict.DefaultInput())

		var perr *PredictionError
		So(errors.As(err, &perr), ShouldBeTrue)
		So(perr.Error(), ShouldEqual, UnknownError)
	})

	Convey("Given a server that answers with HTML", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		}))
		Reset(ts.Close)

		_, err := New(ts.URL, time.Second).Predict(context.Background(), predict.DefaultInput())

		var terr *TransportError
		So(errors.As(err, &terr), ShouldBeTrue)
		So(terr.Error(), ShouldContainSubstring, "status 502")
	})

	Convey("Given a successful response without predictions", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success": true}`))
		}))
		Reset(ts.Close)

		_, err := New(ts.URL, time.Second).Predict(context.Background(), predict.DefaultInput())

		var terr *TransportError
		So(errors.As(err, &terr), ShouldBeTrue)
	})

	Convey("Given a server that is gone", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		_, err := New(url, time.Second).Predict(context.Background(), predict.DefaultInput())

		var terr *TransportError
		So(errors.As(err, &terr), ShouldBeTrue)
		So(terr.Op, ShouldEqual, "making request")
	})

	Convey("Given a cancelled context", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		Reset(ts.Close)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(ts.URL, time.Second).Predict(ctx, predict.DefaultInput())

		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}
