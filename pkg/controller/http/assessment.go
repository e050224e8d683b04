package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/riskassess/pkg/domain/assessment"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

func sessionIDParam(r *http.Request) assessment.SessionID {
	return assessment.SessionID(chi.URLParam(r, "sessionID"))
}

type openAssessmentRequest struct {
	Mode *types.AssessmentMode `json:"mode,omitempty"`
}

func (s *Server) openAssessment(w http.ResponseWriter, r *http.Request) {
	var req openAssessmentRequest
	if err := readJSON(r, &req, true); err != nil {
		handleError(w, r, err)
		return
	}

	sess, err := s.uc.Assessment.Open(r.Context(), riskIDParam(r), req.Mode)
	if err != nil {
		handleError(w, r, err)
		return
	}

	// Respond with the same view GET returns so clients get the preview at once
	view, err := s.uc.Assessment.Get(r.Context(), sess.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, view)
}

func (s *Server) getAssessment(w http.ResponseWriter, r *http.Request) {
	view, err := s.uc.Assessment.Get(r.Context(), sessionIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) discardAssessment(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Assessment.Discard(r.Context(), sessionIDParam(r)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondSession writes the refreshed view after a successful session update
func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, sess *assessment.Session, err error) {
	if err != nil {
		handleError(w, r, err)
		return
	}
	view, err := s.uc.Assessment.Get(r.Context(), sess.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) nextStep(w http.ResponseWriter, r *http.Request) {
	sess, err := s.uc.Assessment.Next(r.Context(), sessionIDParam(r))
	s.respondSession(w, r, sess, err)
}

func (s *Server) previousStep(w http.ResponseWriter, r *http.Request) {
	sess, err := s.uc.Assessment.Previous(r.Context(), sessionIDParam(r))
	s.respondSession(w, r, sess, err)
}

type goToRequest struct {
	Step types.StepID `json:"step"`
}

func (s *Server) goToStep(w http.ResponseWriter, r *http.Request) {
	var req goToRequest
	if err := readJSON(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}
	sess, err := s.uc.Assessment.GoTo(r.Context(), sessionIDParam(r), req.Step)
	s.respondSession(w, r, sess, err)
}

type likelihoodRequest struct {
	ThreatID types.ThreatID     `json:"threatId"`
	LevelID  types.LikelihoodID `json:"levelId"`
}

func (s *Server) captureLikelihood(w http.ResponseWriter, r *http.Request) {
	var req likelihoodRequest
	if err := readJSON(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}
	sess, err := s.uc.Assessment.CaptureLikelihood(r.Context(), sessionIDParam(r), req.ThreatID, req.LevelID)
	s.respondSession(w, r, sess, err)
}

type impactRequest struct {
	ThreatID types.ThreatID       `json:"threatId"`
	Category types.ImpactCategory `json:"category"`
	LevelID  types.ImpactID       `json:"levelId"`
}

func (s *Server) captureImpact(w http.ResponseWriter, r *http.Request) {
	var req impactRequest
	if err := readJSON(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}
	sess, err := s.uc.Assessment.CaptureImpact(r.Context(), sessionIDParam(r), req.ThreatID, req.Category, req.LevelID)
	s.respondSession(w, r, sess, err)
}

type vulnerabilityRequest struct {
	VulnerabilityID types.VulnerabilityID       `json:"vulnerabilityId"`
	LevelID         types.VulnerabilityRatingID `json:"levelId"`
}

func (s *Server) captureVulnerability(w http.ResponseWriter, r *http.Request) {
	var req vulnerabilityRequest
	if err := readJSON(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}
	sess, err := s.uc.Assessment.CaptureVulnerability(r.Context(), sessionIDParam(r), req.VulnerabilityID, req.LevelID)
	s.respondSession(w, r, sess, err)
}

func (s *Server) saveAssessment(w http.ResponseWriter, r *http.Request) {
	risk, err := s.uc.Assessment.SaveAndExit(r.Context(), sessionIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, risk)
}

func (s *Server) completeAssessment(w http.ResponseWriter, r *http.Request) {
	result, err := s.uc.Assessment.Complete(r.Context(), sessionIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}
