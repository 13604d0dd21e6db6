package repository

import (
	_ "embed"
	"fmt"
	"math"
	"time"

	"github.com/okian/talentboard/internal/domain/model"
	"gopkg.in/yaml.v3"
)

//go:embed demo_data.yaml
var demoYAML []byte

// demoFixture mirrors demo_data.yaml. Timestamps are offsets back from the
// seeding time so the dashboard always has recent activity.
type demoFixture struct {
	Users []struct {
		ID             string         `yaml:"id"`
		Name           string         `yaml:"name"`
		Email          string         `yaml:"email"`
		Location       string         `yaml:"location"`
		BioData        *model.BioData `yaml:"bioData"`
		JoinedDaysAgo  int            `yaml:"joinedDaysAgo"`
		ActiveHoursAgo int            `yaml:"activeHoursAgo"`
	} `yaml:"users"`
	Assessments []struct {
		ID            string  `yaml:"id"`
		UserID        string  `yaml:"userId"`
		Type          string  `yaml:"type"`
		Value         float64 `yaml:"value"`
		Score         int     `yaml:"score"`
		Accuracy      int     `yaml:"accuracy"`
		Status        string  `yaml:"status"`
		VideoVerified bool    `yaml:"videoVerified"`
		HoursAgo      int     `yaml:"hoursAgo"`
	} `yaml:"assessments"`
}

// DemoData decodes the embedded fixture relative to now.
func DemoData(now time.Time) ([]model.User, []model.Assessment, error) {
	return parseDemo(demoYAML, now)
}

func parseDemo(data []byte, now time.Time) ([]model.User, []model.Assessment, error) {
	var fx demoFixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, nil, fmt.Errorf("decode demo data: %w", err)
	}

	users := make([]model.User, 0, len(fx.Users))
	for _, u := range fx.Users {
		users = append(users, model.User{
			ID:         u.ID,
			Name:       u.Name,
			Email:      u.Email,
			Location:   u.Location,
			BioData:    u.BioData,
			CreatedAt:  now.AddDate(0, 0, -u.JoinedDaysAgo),
			LastActive: now.Add(-time.Duration(u.ActiveHoursAgo) * time.Hour),
		})
	}

	owners := make(map[string]int, len(users))
	for i, u := range users {
		owners[u.ID] = i
	}
	scoreSums := make(map[string]int, len(users))

	assessments := make([]model.Assessment, 0, len(fx.Assessments))
	for _, a := range fx.Assessments {
		oi, ok := owners[a.UserID]
		if !ok {
			return nil, nil, fmt.Errorf("demo assessment %s: unknown user %q", a.ID, a.UserID)
		}
		typ, err := model.ParseAssessmentType(a.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("demo assessment %s: %w", a.ID, err)
		}
		metric, err := model.NewMetric(typ, a.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("demo assessment %s: %w", a.ID, err)
		}
		status, err := model.ParseStatus(a.Status)
		if err != nil {
			return nil, nil, fmt.Errorf("demo assessment %s: %w", a.ID, err)
		}
		rec := model.Assessment{
			ID:            a.ID,
			UserID:        a.UserID,
			Metric:        metric,
			Score:         a.Score,
			Accuracy:      a.Accuracy,
			Location:      users[oi].Location,
			Status:        status,
			VideoVerified: a.VideoVerified,
			CreatedAt:     now.Add(-time.Duration(a.HoursAgo) * time.Hour),
		}
		if err := rec.Validate(); err != nil {
			return nil, nil, fmt.Errorf("demo assessment %s: %w", a.ID, err)
		}
		assessments = append(assessments, rec)

		// Cached totals are filled here too so the persisted copy matches memory.
		owner := &users[oi]
		scoreSums[owner.ID] += rec.Score
		owner.TotalAssessments++
		owner.AverageScore = int(math.Round(float64(scoreSums[owner.ID]) / float64(owner.TotalAssessments)))
	}
	return users, assessments, nil
}
