package model

import "encoding/json"

// Submission is an athlete's freshly captured assessment before the store
// assigns an id, location and review status.
type Submission struct {
	// Key is an optional client-chosen id; resubmitting under the same key
	// returns the assessment the first upload created.
	Key           string
	UserID        string
	Metric        Metric
	Score         int
	Accuracy      int
	VideoVerified bool
}

type submissionJSON struct {
	Key            string         `json:"submissionKey,omitempty"`
	UserID         string         `json:"userId"`
	AssessmentType AssessmentType `json:"assessmentType"`
	Reps           *int           `json:"reps,omitempty"`
	Height         *float64       `json:"height,omitempty"`
	Time           *float64       `json:"time,omitempty"`
	Score          int            `json:"score"`
	Accuracy       int            `json:"accuracy"`
	VideoVerified  bool           `json:"videoVerified"`
}

// UnmarshalJSON implements json.Unmarshaler using the same flattened metric
// fields as Assessment.
func (s *Submission) UnmarshalJSON(data []byte) error {
	var in submissionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	metric, err := metricFromFields(in.AssessmentType, in.Reps, in.Height, in.Time)
	if err != nil {
		return err
	}
	*s = Submission{
		Key:           in.Key,
		UserID:        in.UserID,
		Metric:        metric,
		Score:         in.Score,
		Accuracy:      in.Accuracy,
		VideoVerified: in.VideoVerified,
	}
	return nil
}
