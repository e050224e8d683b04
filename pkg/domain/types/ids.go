package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

var riskCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*-[0-9]+$`)

// RiskID is the human-readable risk code, e.g. RSK-001
type RiskID string

// Validate checks if the RiskID is a well-formed risk code
func (r RiskID) Validate() error {
	if r == "" {
		return goerr.New("risk ID cannot be empty")
	}
	if !riskCodePattern.MatchString(string(r)) {
		return goerr.New("risk ID must look like PREFIX-123", goerr.V("id", r))
	}
	return nil
}

func (r RiskID) String() string {
	return string(r)
}

// ThreatID identifies a threat linked to a risk
type ThreatID string

func (t ThreatID) String() string {
	return string(t)
}

// VulnerabilityID identifies a vulnerability linked to a risk
type VulnerabilityID string

func (v VulnerabilityID) String() string {
	return string(v)
}

// ControlID identifies a control linked to a risk
type ControlID string

func (c ControlID) String() string {
	return string(c)
}
