package predict_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentboard/internal/adapters/predict"
	"github.com/okian/talentboard/internal/domain/model"
	"github.com/okian/talentboard/internal/domain/scoring"
)

func TestClientPredict(t *testing.T) {
	Convey("Given a prediction endpoint", t, func() {
		var got predict.Request
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"accuracy": 93, "feedback": ["Great depth.", "Keep your back straight."]}`))
		})
		srv := httptest.NewServer(handler)
		defer srv.Close()

		client := predict.NewClient(srv.URL)
		in := scoring.Input{UserID: "U1", Metric: model.Situps{Reps: 35}, Score: 72, Accuracy: 80}

		Convey("When an assessment is scored", func() {
			res, err := client.Score(context.Background(), in)

			Convey("Then the request carries the type-specific result", func() {
				So(err, ShouldBeNil)
				So(got.AssessmentType, ShouldEqual, model.SitupsType)
				So(*got.Results.Reps, ShouldEqual, 35)
				So(got.Results.Height, ShouldBeNil)
				So(got.Results.Accuracy, ShouldEqual, 80)
			})

			Convey("Then the service answer overrides the local one", func() {
				So(res.Accuracy, ShouldEqual, 93)
				So(res.Feedback, ShouldEqual, "Great depth. Keep your back straight.")
				So(res.Tier, ShouldEqual, scoring.TierSteady)
			})
		})
	})

	Convey("Given an endpoint that omits fields", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		in := scoring.Input{Metric: model.VerticalJump{HeightCM: 42}, Score: 91, Accuracy: 88}
		res, err := predict.NewClient(srv.URL).Score(context.Background(), in)

		So(err, ShouldBeNil)
		So(res.Accuracy, ShouldEqual, 88)
		So(res.Feedback, ShouldEqual, scoring.Feedback(model.VerticalJumpType, scoring.TierElite))
	})

	Convey("Given an endpoint that fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := predict.NewClient(srv.URL).Predict(context.Background(), predict.Request{AssessmentType: model.ShuttleRunType})
		So(errors.Is(err, predict.ErrStatus), ShouldBeTrue)
	})

	Convey("Given an endpoint that answers garbage", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := predict.NewClient(srv.URL).Predict(context.Background(), predict.Request{})
		So(errors.Is(err, predict.ErrInvalidPayload), ShouldBeTrue)
	})

	Convey("Given a slow endpoint", t, func() {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		client := predict.NewClient(srv.URL, predict.WithTimeout(20*time.Millisecond))
		_, err := client.Predict(context.Background(), predict.Request{})
		So(errors.Is(err, predict.ErrRequest), ShouldBeTrue)
	})

	Convey("Given no URL", t, func() {
		client := predict.NewClient("  ")
		So(client.Enabled(), ShouldBeFalse)
		_, err := client.Predict(context.Background(), predict.Request{})
		So(errors.Is(err, predict.ErrDisabled), ShouldBeTrue)
	})
}
