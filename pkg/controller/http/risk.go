package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

func riskIDParam(r *http.Request) types.RiskID {
	return types.RiskID(chi.URLParam(r, "riskID"))
}

type risksResponse struct {
	Risks []*model.Risk `json:"risks"`
}

func (s *Server) listRisks(w http.ResponseWriter, r *http.Request) {
	risks, err := s.uc.Risks.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if risks == nil {
		risks = []*model.Risk{}
	}
	writeJSON(w, r, http.StatusOK, risksResponse{Risks: risks})
}

func (s *Server) getRisk(w http.ResponseWriter, r *http.Request) {
	risk, err := s.uc.Risks.Get(r.Context(), riskIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, risk)
}

type controlsRequest struct {
	Controls []model.ControlLink `json:"controls"`
}

func (s *Server) putControls(w http.ResponseWriter, r *http.Request) {
	var req controlsRequest
	if err := readJSON(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	risk, err := s.uc.Residual.UpdateControls(r.Context(), riskIDParam(r), req.Controls)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, risk)
}

func (s *Server) recalculateResidual(w http.ResponseWriter, r *http.Request) {
	risk, err := s.uc.Residual.Recalculate(r.Context(), riskIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, risk)
}
