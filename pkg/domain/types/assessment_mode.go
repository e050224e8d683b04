package types

import (
	"fmt"
	"strings"
)

// AssessmentMode controls whether Next requires full capture of the current step
type AssessmentMode string

const (
	// AssessmentModeStrict blocks Next until every linked entity has a value
	AssessmentModeStrict AssessmentMode = "STRICT"
	// AssessmentModeLenient allows Next with missing values; they fall back to the catalog floor
	AssessmentModeLenient AssessmentMode = "LENIENT"
)

func (m AssessmentMode) IsValid() bool {
	return m == AssessmentModeStrict || m == AssessmentModeLenient
}

func (m AssessmentMode) String() string {
	return string(m)
}

// ParseAssessmentMode parses a string into an AssessmentMode, ignoring case
func ParseAssessmentMode(s string) (AssessmentMode, error) {
	mode := AssessmentMode(strings.ToUpper(strings.TrimSpace(s)))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid assessment mode: %s", s)
	}
	return mode, nil
}
