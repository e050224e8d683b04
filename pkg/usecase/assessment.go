package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/assessment"
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/scoring"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"github.com/secmon-lab/riskassess/pkg/utils/logging"
)

type AssessmentUseCase struct {
	repo     interfaces.Repository
	sessions interfaces.SessionStore
	catalog  *CatalogUseCase
	scoring  *ScoringUseCase
	mode     types.AssessmentMode
	now      func() time.Time
}

func NewAssessmentUseCase(
	repo interfaces.Repository,
	sessions interfaces.SessionStore,
	catalog *CatalogUseCase,
	scoring *ScoringUseCase,
	mode types.AssessmentMode,
	now func() time.Time,
) *AssessmentUseCase {
	return &AssessmentUseCase{
		repo:     repo,
		sessions: sessions,
		catalog:  catalog,
		scoring:  scoring,
		mode:     mode,
		now:      now,
	}
}

// AssessmentView is an open session with a live preview of the score
type AssessmentView struct {
	Session *assessment.Session `json:"session"`
	Preview *assessment.Result  `json:"preview,omitempty"`
	// PreviewError explains why the preview has no rating, e.g. incomplete ranges
	PreviewError string `json:"previewError,omitempty"`
}

// CompletionResult is returned by Complete
type CompletionResult struct {
	Risk   *model.Risk        `json:"risk"`
	Result *assessment.Result `json:"result"`
}

// Open starts or resumes the assessment of a risk. A nil mode uses the
// configured default.
func (uc *AssessmentUseCase) Open(ctx context.Context, riskID types.RiskID, mode *types.AssessmentMode) (*assessment.Session, error) {
	m := uc.mode
	if mode != nil {
		m = *mode
	}
	if m != types.AssessmentModeStrict && m != types.AssessmentModeLenient {
		return nil, goerr.Wrap(ErrInvalidInput, "unknown assessment mode", goerr.V("mode", m))
	}

	risk, err := uc.repo.Risk().Get(ctx, riskID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(model.RiskIDKey, riskID))
	}

	catalog, err := uc.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	subj := assessment.SubjectOf(risk, catalog)
	floors := assessment.FloorsOf(catalog)
	now := uc.now().UTC()

	s := &assessment.Session{
		ID:        assessment.NewSessionID(),
		RiskID:    risk.ID,
		Subject:   subj,
		Floors:    floors,
		State:     assessment.Resume(risk, subj, floors, m),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.sessions.Put(ctx, s); err != nil {
		return nil, goerr.Wrap(err, "failed to store assessment session", goerr.V(model.RiskIDKey, riskID))
	}

	logging.From(ctx).Info("assessment opened",
		"session_id", s.ID,
		"risk_id", risk.ID,
		"mode", m,
		"step", s.State.Step.String(),
		"resumed", risk.IsAssessed(),
	)
	return s, nil
}

func (uc *AssessmentUseCase) load(ctx context.Context, id assessment.SessionID) (*assessment.Session, error) {
	s, err := uc.sessions.Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get assessment session", goerr.V(model.SessionIDKey, id))
	}
	return s, nil
}

// Get returns the session with a preview of the score computed from the current captures
func (uc *AssessmentUseCase) Get(ctx context.Context, id assessment.SessionID) (*AssessmentView, error) {
	s, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &AssessmentView{Session: s}

	cfg, err := uc.scoring.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	preview, err := assessment.Compute(s.State, s.Subject, s.Floors, cfg)
	if err != nil {
		view.PreviewError = err.Error()
		return view, nil
	}
	view.Preview = preview

	ranges, err := uc.scoring.RangesFor(ctx, cfg.RiskRatingCalcType)
	if err != nil {
		if !errors.Is(err, model.ErrConfiguration) {
			return nil, err
		}
		view.PreviewError = err.Error()
		return view, nil
	}
	rating, err := scoring.Classify(preview.InherentScore, ranges)
	if err != nil {
		view.PreviewError = err.Error()
		return view, nil
	}
	preview.Rating = rating

	return view, nil
}

// update applies a pure transition and stores the resulting state
func (uc *AssessmentUseCase) update(ctx context.Context, id assessment.SessionID, fn func(s *assessment.Session) (assessment.State, error)) (*assessment.Session, error) {
	s, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := fn(s)
	if err != nil {
		return nil, err
	}

	s.State = next
	s.UpdatedAt = uc.now().UTC()
	if err := uc.sessions.Put(ctx, s); err != nil {
		return nil, goerr.Wrap(err, "failed to store assessment session", goerr.V(model.SessionIDKey, id))
	}
	return s, nil
}

// Next completes the current step and advances
func (uc *AssessmentUseCase) Next(ctx context.Context, id assessment.SessionID) (*assessment.Session, error) {
	return uc.update(ctx, id, func(s *assessment.Session) (assessment.State, error) {
		return assessment.Next(s.State, s.Subject)
	})
}

// Previous moves back one step
func (uc *AssessmentUseCase) Previous(ctx context.Context, id assessment.SessionID) (*assessment.Session, error) {
	return uc.update(ctx, id, func(s *assessment.Session) (assessment.State, error) {
		return assessment.Previous(s.State)
	})
}

// GoTo jumps to step
func (uc *AssessmentUseCase) GoTo(ctx context.Context, id assessment.SessionID, step types.StepID) (*assessment.Session, error) {
	return uc.update(ctx, id, func(s *assessment.Session) (assessment.State, error) {
		return assessment.GoTo(s.State, step)
	})
}

// CaptureLikelihood records the catalog likelihood level chosen for a threat
func (uc *AssessmentUseCase) CaptureLikelihood(ctx context.Context, id assessment.SessionID, threat types.ThreatID, level types.LikelihoodID) (*assessment.Session, error) {
	catalog, err := uc.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	weight, ok := 0.0, false
	for _, l := range catalog.Likelihoods {
		if l.ID == level {
			weight, ok = l.Weight, true
			break
		}
	}
	if !ok {
		return nil, goerr.Wrap(ErrInvalidInput, "unknown likelihood level", goerr.V(LevelIDKey, level))
	}

	return uc.update(ctx, id, func(s *assessment.Session) (assessment.State, error) {
		return assessment.SetLikelihood(s.State, s.Subject, threat, weight)
	})
}

// CaptureImpact records the catalog impact level chosen for a threat in one category
func (uc *AssessmentUseCase) CaptureImpact(ctx context.Context, id assessment.SessionID, threat types.ThreatID, category types.ImpactCategory, level types.ImpactID) (*assessment.Session, error) {
	catalog, err := uc.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	weight, ok := 0.0, false
	for _, i := range catalog.ImpactsFor(category) {
		if i.ID == level {
			weight, ok = i.Weight, true
			break
		}
	}
	if !ok {
		return nil, goerr.Wrap(ErrInvalidInput, "unknown impact level for category",
			goerr.V(LevelIDKey, level), goerr.V("category", category))
	}

	return uc.update(ctx, id, func(s *assessment.Session) (assessment.State, error) {
		return assessment.SetImpact(s.State, s.Subject, threat, category, weight)
	})
}

// CaptureVulnerability records the catalog strength level chosen for a vulnerability
func (uc *AssessmentUseCase) CaptureVulnerability(ctx context.Context, id assessment.SessionID, vuln types.VulnerabilityID, level types.VulnerabilityRatingID) (*assessment.Session, error) {
	catalog, err := uc.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	weight, ok := 0.0, false
	for _, v := range catalog.VulnerabilityRatings {
		if v.ID == level {
			weight, ok = v.Weight, true
			break
		}
	}
	if !ok {
		return nil, goerr.Wrap(ErrInvalidInput, "unknown vulnerability rating", goerr.V(LevelIDKey, level))
	}

	return uc.update(ctx, id, func(s *assessment.Session) (assessment.State, error) {
		return assessment.SetVulnerability(s.State, s.Subject, vuln, weight)
	})
}

// SaveAndExit persists captures and wizard position without committing a
// score, then closes the session. If the write fails the session is kept so
// the caller can retry.
func (uc *AssessmentUseCase) SaveAndExit(ctx context.Context, id assessment.SessionID) (*model.Risk, error) {
	s, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}

	risk, err := uc.repo.Risk().Get(ctx, s.RiskID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(model.RiskIDKey, s.RiskID))
	}

	assessment.ApplyCaptures(risk, s.State)
	risk.Status = types.RiskStatusInProgress
	risk.AssessmentStatus = types.AssessmentStatusInProgress

	saved, err := uc.repo.Risk().Put(ctx, risk)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save assessment progress",
			goerr.V(model.RiskIDKey, s.RiskID), goerr.V(model.SessionIDKey, id))
	}

	uc.closeSession(ctx, id)
	logging.From(ctx).Info("assessment saved", "session_id", id, "risk_id", s.RiskID, "step", s.State.Step.String())
	return saved, nil
}

// Complete computes and commits the inherent score and rating, then
// re-derives the residual figures. Configuration errors block completion.
// If the write fails the session is kept unchanged so the caller can retry.
func (uc *AssessmentUseCase) Complete(ctx context.Context, id assessment.SessionID) (*CompletionResult, error) {
	s, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}

	cfg, ranges, err := uc.scoring.ActiveRanges(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "cannot complete assessment", goerr.V(model.SessionIDKey, id))
	}

	done, result, err := assessment.Complete(s.State, s.Subject, s.Floors, cfg, ranges)
	if err != nil {
		return nil, err
	}

	risk, err := uc.repo.Risk().Get(ctx, s.RiskID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(model.RiskIDKey, s.RiskID))
	}

	now := uc.now().UTC()
	assessment.ApplyCaptures(risk, done)
	risk.LikelihoodScore = result.Likelihood
	risk.ImpactScore = result.Impact
	risk.VulnerabilityScore = result.Vulnerability
	risk.InherentRiskRating = result.InherentScore
	risk.RiskRating = result.Rating
	risk.Status = types.RiskStatusCompleted
	risk.AssessmentStatus = types.AssessmentStatusAssessed
	risk.AssessmentDate = &now

	if err := applyResidual(risk, ranges); err != nil {
		return nil, err
	}

	saved, err := uc.repo.Risk().Put(ctx, risk)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to commit assessment",
			goerr.V(model.RiskIDKey, s.RiskID), goerr.V(model.SessionIDKey, id))
	}

	uc.closeSession(ctx, id)
	logging.From(ctx).Info("assessment completed",
		"session_id", id,
		"risk_id", s.RiskID,
		"inherent_score", result.InherentScore,
		"rating", result.Rating,
		"residual_score", saved.ResidualRiskRating,
	)

	return &CompletionResult{Risk: saved, Result: result}, nil
}

// Discard drops the working state. Stored data is left untouched.
func (uc *AssessmentUseCase) Discard(ctx context.Context, id assessment.SessionID) error {
	if _, err := uc.load(ctx, id); err != nil {
		return err
	}
	if err := uc.sessions.Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete assessment session", goerr.V(model.SessionIDKey, id))
	}
	return nil
}

// closeSession drops a session whose outcome has already been persisted
func (uc *AssessmentUseCase) closeSession(ctx context.Context, id assessment.SessionID) {
	if err := uc.sessions.Delete(ctx, id); err != nil {
		logging.From(ctx).Warn("failed to delete assessment session",
			"session_id", id,
			"error", err.Error(),
		)
	}
}
