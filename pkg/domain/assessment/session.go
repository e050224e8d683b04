package assessment

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// SessionID identifies an open assessment session
type SessionID string

// NewSessionID generates a new random session ID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func (id SessionID) String() string {
	return string(id)
}

// Session binds a working state to the risk being assessed. It lives only
// until the assessment is completed, saved or discarded. Subject and Floors
// are fixed when the session is opened.
type Session struct {
	ID        SessionID    `json:"id"`
	RiskID    types.RiskID `json:"riskId"`
	Subject   Subject      `json:"subject"`
	Floors    Floors       `json:"floors"`
	State     State        `json:"state"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Clone deep-copies the session
func (s *Session) Clone() *Session {
	cloned := *s
	cloned.Subject = Subject{
		Threats:         append([]types.ThreatID(nil), s.Subject.Threats...),
		Vulnerabilities: append([]types.VulnerabilityID(nil), s.Subject.Vulnerabilities...),
		Categories:      append([]types.ImpactCategory(nil), s.Subject.Categories...),
	}
	cloned.State = s.State.Clone()
	return &cloned
}
