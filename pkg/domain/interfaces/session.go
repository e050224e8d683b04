package interfaces

import (
	"context"

	"github.com/secmon-lab/riskassess/pkg/domain/assessment"
)

// SessionStore holds the working state of open assessments
type SessionStore interface {
	// Get returns model.ErrSessionNotFound if the session does not exist or has expired
	Get(ctx context.Context, id assessment.SessionID) (*assessment.Session, error)
	Put(ctx context.Context, session *assessment.Session) error
	Delete(ctx context.Context, id assessment.SessionID) error
}
