package model

import (
	"fmt"
	"strings"
	"time"
)

// BioData is collected during profile intake.
type BioData struct {
	Age           int    `json:"age" yaml:"age"`
	Gender        string `json:"gender" yaml:"gender"`
	ActivityLevel string `json:"activityLevel" yaml:"activityLevel"`
}

// User is an athlete whose assessments are reviewed by officials.
type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Location string   `json:"location"`
	BioData  *BioData `json:"bioData,omitempty"`

	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`

	// Cached from the user's assessments; recomputed by the store.
	TotalAssessments int `json:"totalAssessments"`
	AverageScore     int `json:"averageScore"`
}

// Validate checks the fields a caller must provide.
func (u *User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidRecord)
	}
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: missing user name", ErrInvalidRecord)
	}
	if u.BioData != nil && u.BioData.Age < 0 {
		return fmt.Errorf("%w: age must not be negative", ErrInvalidRecord)
	}
	return nil
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	if u.BioData != nil {
		bd := *u.BioData
		u.BioData = &bd
	}
	return u
}
