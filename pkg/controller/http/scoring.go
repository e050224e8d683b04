package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"github.com/secmon-lab/riskassess/pkg/usecase"
)

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.uc.Catalog.Load(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, catalog)
}

func (s *Server) getScoringConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.uc.Scoring.GetConfig(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cfg)
}

type scoringConfigRequest struct {
	ProbabilityImpactCalcType types.CalcType `json:"probabilityImpactCalcType"`
	RiskRatingCalcType        types.CalcType `json:"riskRatingCalcType"`
}

func (s *Server) putScoringConfig(w http.ResponseWriter, r *http.Request) {
	var req scoringConfigRequest
	if err := readJSON(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	cfg, err := s.uc.Scoring.UpdateConfig(r.Context(), &model.ScoringConfig{
		ProbabilityImpactCalcType: req.ProbabilityImpactCalcType,
		RiskRatingCalcType:        req.RiskRatingCalcType,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cfg)
}

type classifyResponse struct {
	Score           float64        `json:"score"`
	CalculationType types.CalcType `json:"calculationType,omitempty"`
	Rating          string         `json:"rating"`
}

func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	score, err := strconv.ParseFloat(r.URL.Query().Get("score"), 64)
	if err != nil {
		handleError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "score must be a number",
			goerr.V("score", r.URL.Query().Get("score"))))
		return
	}
	calcType := types.CalcType(r.URL.Query().Get("calculationType"))

	rating, err := s.uc.Scoring.Classify(r.Context(), score, calcType)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, classifyResponse{
		Score:           score,
		CalculationType: calcType,
		Rating:          rating,
	})
}

type rangesResponse struct {
	Ranges []model.ScoringRange `json:"ranges"`
}

func (s *Server) listRanges(w http.ResponseWriter, r *http.Request) {
	calcType := types.CalcType(r.URL.Query().Get("calculationType"))
	ranges, err := s.uc.Scoring.ListRanges(r.Context(), calcType)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if ranges == nil {
		ranges = []model.ScoringRange{}
	}
	writeJSON(w, r, http.StatusOK, rangesResponse{Ranges: ranges})
}

type rangeRequest struct {
	Label           string         `json:"label"`
	LowValue        float64        `json:"lowValue"`
	HighValue       *float64       `json:"highValue,omitempty"`
	CalculationType types.CalcType `json:"calculationType"`
}

func (req *rangeRequest) toModel(id model.ScoringRangeID) *model.ScoringRange {
	return &model.ScoringRange{
		ID:              id,
		Label:           req.Label,
		LowValue:        req.LowValue,
		HighValue:       req.HighValue,
		CalculationType: req.CalculationType,
	}
}

func (s *Server) createRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := readJSON(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	created, err := s.uc.Scoring.CreateRange(r.Context(), req.toModel(""))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) updateRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := readJSON(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	id := model.ScoringRangeID(chi.URLParam(r, "rangeID"))
	updated, err := s.uc.Scoring.UpdateRange(r.Context(), req.toModel(id))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) deleteRange(w http.ResponseWriter, r *http.Request) {
	id := model.ScoringRangeID(chi.URLParam(r, "rangeID"))
	if err := s.uc.Scoring.DeleteRange(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
