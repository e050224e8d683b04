package model

import (
	"time"

	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// Risk is a registered risk together with its links and scoring outputs
type Risk struct {
	ID           types.RiskID `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	CategoryID   string       `json:"categoryId,omitempty"`
	DepartmentID string       `json:"departmentId,omitempty"`
	OwnerID      string       `json:"ownerId,omitempty"`

	ThreatLinks        []ThreatLink        `json:"threatLinks"`
	ImpactEntries      []ImpactEntry       `json:"impactEntries"`
	VulnerabilityLinks []VulnerabilityLink `json:"vulnerabilityLinks"`
	ControlLinks       []ControlLink       `json:"controlLinks"`

	LikelihoodScore    float64 `json:"likelihoodScore"`
	ImpactScore        float64 `json:"impactScore"`
	VulnerabilityScore float64 `json:"vulnerabilityScore"`
	InherentRiskRating float64 `json:"inherentRiskRating"`
	RiskRating         string  `json:"riskRating,omitempty"`
	ResidualRiskRating float64 `json:"residualRiskRating"`
	ResidualRating     string  `json:"residualRating,omitempty"`
	ControlRating      float64 `json:"controlRating"`

	Status           types.RiskStatus       `json:"status"`
	AssessmentStatus types.AssessmentStatus `json:"assessmentStatus"`
	AssessmentDate   *time.Time             `json:"assessmentDate,omitempty"`
	Progress         AssessmentProgress     `json:"progress"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAssessed reports whether the risk has a committed assessment to resume from
func (r *Risk) IsAssessed() bool {
	return r.AssessmentStatus.Normalize() == types.AssessmentStatusAssessed ||
		r.Status.Normalize() == types.RiskStatusCompleted
}

// HasCommittedScore reports whether the risk carries an inherent score from a
// completed assessment. It stays true while a reopened assessment is saved in
// progress, so stored ratings keep following the active ranges.
func (r *Risk) HasCommittedScore() bool {
	return r.IsAssessed() || r.AssessmentDate != nil || r.RiskRating != ""
}

// ThreatLink associates a threat with a risk and carries its captured likelihood
type ThreatLink struct {
	ThreatID   types.ThreatID `json:"threatId"`
	Name       string         `json:"name,omitempty"`
	Likelihood *float64       `json:"likelihood,omitempty"`
}

// ImpactEntry is the impact rating selected for one threat in one impact category
type ImpactEntry struct {
	ThreatID types.ThreatID       `json:"threatId"`
	Category types.ImpactCategory `json:"category"`
	Impact   float64              `json:"impact"`
}

// VulnerabilityLink associates a vulnerability with a risk and carries its strength rating
type VulnerabilityLink struct {
	VulnerabilityID types.VulnerabilityID `json:"vulnerabilityId"`
	Name            string                `json:"name,omitempty"`
	Rating          *float64              `json:"rating,omitempty"`
}

// ControlLink associates a control with a risk. Planned controls belong to
// treatment and do not mitigate the risk yet.
type ControlLink struct {
	ControlID     types.ControlID `json:"controlId"`
	Name          string          `json:"name,omitempty"`
	IsPlanned     bool            `json:"isPlanned"`
	Effectiveness *float64        `json:"effectiveness,omitempty"` // percentage 0-100
}

// AssessmentProgress is the persisted wizard position of an unfinished assessment
type AssessmentProgress struct {
	LastStep       types.StepID   `json:"lastStep,omitempty"`
	CompletedSteps []types.StepID `json:"completedSteps,omitempty"`
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}
