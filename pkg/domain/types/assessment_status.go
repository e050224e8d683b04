package types

import "fmt"

// AssessmentStatus represents how far a risk has progressed through assessment
type AssessmentStatus string

const (
	AssessmentStatusOpen       AssessmentStatus = "OPEN"
	AssessmentStatusInProgress AssessmentStatus = "IN_PROGRESS"
	AssessmentStatusAssessed   AssessmentStatus = "ASSESSED"
)

// AllAssessmentStatuses returns all valid assessment statuses
func AllAssessmentStatuses() []AssessmentStatus {
	return []AssessmentStatus{
		AssessmentStatusOpen,
		AssessmentStatusInProgress,
		AssessmentStatusAssessed,
	}
}

// IsValid checks if the assessment status is valid
func (s AssessmentStatus) IsValid() bool {
	switch s {
	case AssessmentStatusOpen,
		AssessmentStatusInProgress,
		AssessmentStatusAssessed:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as AssessmentStatusOpen.
func (s AssessmentStatus) Normalize() AssessmentStatus {
	if s == "" {
		return AssessmentStatusOpen
	}
	return s
}

func (s AssessmentStatus) String() string {
	return string(s)
}

// ParseAssessmentStatus parses a string into an AssessmentStatus
func ParseAssessmentStatus(s string) (AssessmentStatus, error) {
	status := AssessmentStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid assessment status: %s", s)
	}
	return status, nil
}
