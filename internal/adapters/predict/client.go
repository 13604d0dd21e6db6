// Package predict calls the external /predict endpoint that grades a
// captured assessment.
//
// The service may override the locally computed accuracy and feedback; any
// field it omits keeps the local value.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/talentboard/internal/domain/model"
	"github.com/okian/talentboard/internal/domain/scoring"
	"github.com/okian/talentboard/pkg/metrics"
)

const (
	defaultTimeout  = 3 * time.Second
	maxResponseBody = 1 << 20
)

// Results are the locally captured results sent with a prediction request.
type Results struct {
	Score    int      `json:"score"`
	Reps     *int     `json:"reps,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Time     *float64 `json:"time,omitempty"`
	Accuracy int      `json:"accuracy"`
	Feedback []string `json:"feedback"`
}

// Request is the body POSTed to the prediction endpoint.
type Request struct {
	AssessmentType model.AssessmentType `json:"assessmentType"`
	Results        Results              `json:"results"`
}

// Response is the prediction endpoint's answer. Both fields are optional.
type Response struct {
	Accuracy *int     `json:"accuracy,omitempty"`
	Feedback []string `json:"feedback,omitempty"`
}

// Client talks to the prediction endpoint.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
}

// NewClient returns a client for url. An empty url yields a client whose
// calls fail with ErrDisabled.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:     strings.TrimSpace(url),
		timeout: defaultTimeout,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether a URL is configured.
func (c *Client) Enabled() bool { return c.url != "" }

// Predict POSTs req and decodes the response.
func (c *Client) Predict(ctx context.Context, req Request) (Response, error) {
	if !c.Enabled() {
		return Response{}, ErrDisabled
	}
	start := time.Now()
	defer func() {
		metrics.RecordPredictLatency(float64(time.Since(start).Milliseconds()))
	}()

	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Response{}, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return out, nil
}

// Score implements scoring.Scorer on top of Predict. Fields the service
// leaves out are filled from the local scorer's answer.
func (c *Client) Score(ctx context.Context, in scoring.Input) (scoring.Result, error) {
	local, err := scoring.NewInMemoryScorer().Score(ctx, in)
	if err != nil {
		return scoring.Result{}, err
	}
	resp, err := c.Predict(ctx, NewRequest(in, local))
	if err != nil {
		return scoring.Result{}, err
	}

	out := local
	if resp.Accuracy != nil {
		out.Accuracy = max(model.MinPercent, min(model.MaxPercent, *resp.Accuracy))
	}
	if fb := strings.TrimSpace(strings.Join(resp.Feedback, " ")); fb != "" {
		out.Feedback = fb
	}
	return out, nil
}

// NewRequest builds the request body for in, carrying the local result.
func NewRequest(in scoring.Input, local scoring.Result) Request {
	r := Results{
		Score:    in.Score,
		Accuracy: in.Accuracy,
		Feedback: []string{local.Feedback},
	}
	switch m := in.Metric.(type) {
	case model.Situps:
		r.Reps = &m.Reps
	case model.VerticalJump:
		r.Height = &m.HeightCM
	case model.ShuttleRun:
		r.Time = &m.Seconds
	}
	return Request{AssessmentType: in.Metric.Type(), Results: r}
}
