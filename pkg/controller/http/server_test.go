package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/secmon-lab/riskassess/pkg/controller/http"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"github.com/secmon-lab/riskassess/pkg/repository/memory"
	"github.com/secmon-lab/riskassess/pkg/usecase"
)

func setupServer(t *testing.T) http.Handler {
	t.Helper()
	repo := memory.New()
	_, err := repo.Risk().Put(context.Background(), &model.Risk{
		ID:    "RSK-001",
		Title: "Customer data exfiltration",
		ThreatLinks: []model.ThreatLink{
			{ThreatID: "THR-1", Name: "Phishing"},
		},
		VulnerabilityLinks: []model.VulnerabilityLink{
			{VulnerabilityID: "VUL-1", Name: "Weak MFA"},
		},
		Status:           types.RiskStatusOpen,
		AssessmentStatus: types.AssessmentStatusOpen,
	})
	gt.NoError(t, err).Required()
	return httpctrl.New(usecase.New(repo))
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		gt.NoError(t, json.NewEncoder(&buf).Encode(body)).Required()
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v)).Required()
	return v
}

type sessionView struct {
	Session struct {
		ID    string `json:"id"`
		State struct {
			Step int `json:"step"`
		} `json:"state"`
	} `json:"session"`
	Preview *struct {
		InherentScore float64 `json:"inherentScore"`
		Rating        string  `json:"rating"`
	} `json:"preview"`
	PreviewError string `json:"previewError"`
}

type errorBody struct {
	Error string `json:"error"`
}

func TestHealth(t *testing.T) {
	rec := do(t, setupServer(t), http.MethodGet, "/health", nil)
	gt.V(t, rec.Code).Equal(http.StatusOK)
}

func TestCatalogAndScoring(t *testing.T) {
	h := setupServer(t)

	t.Run("catalog falls back to defaults", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/catalog", nil)
		gt.V(t, rec.Code).Equal(http.StatusOK)
		catalog := decode[model.Catalog](t, rec)
		gt.A(t, catalog.Likelihoods).Length(4)
	})

	t.Run("classify with default ranges", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/scoring/classify?score=75", nil)
		gt.V(t, rec.Code).Equal(http.StatusOK)
		resp := decode[struct {
			Rating string `json:"rating"`
		}](t, rec)
		gt.V(t, resp.Rating).Equal("Very High")
	})

	t.Run("classify with unconfigured scheme is a conflict", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/scoring/classify?score=5&calculationType=HIGH_OF_ALL", nil)
		gt.V(t, rec.Code).Equal(http.StatusConflict)
		gt.S(t, decode[errorBody](t, rec).Error).Contains("ranges")
	})

	t.Run("classify rejects non-numeric score", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/scoring/classify?score=abc", nil)
		gt.V(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("range lifecycle", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/scoring/ranges", map[string]any{
			"label":           "Low",
			"lowValue":        0,
			"highValue":       4,
			"calculationType": "HIGH_OF_ALL",
		})
		gt.V(t, rec.Code).Equal(http.StatusCreated)
		created := decode[model.ScoringRange](t, rec)
		gt.V(t, created.ID).NotEqual(model.ScoringRangeID(""))

		rec = do(t, h, http.MethodPost, "/api/scoring/ranges", map[string]any{
			"label":           "Overlap",
			"lowValue":        2,
			"calculationType": "HIGH_OF_ALL",
		})
		gt.V(t, rec.Code).Equal(http.StatusConflict)

		rec = do(t, h, http.MethodPut, "/api/scoring/ranges/"+created.ID.String(), map[string]any{
			"label":           "Minimal",
			"lowValue":        0,
			"highValue":       4,
			"calculationType": "HIGH_OF_ALL",
		})
		gt.V(t, rec.Code).Equal(http.StatusOK)
		gt.V(t, decode[model.ScoringRange](t, rec).Label).Equal("Minimal")

		rec = do(t, h, http.MethodGet, "/api/scoring/ranges?calculationType=HIGH_OF_ALL", nil)
		gt.V(t, rec.Code).Equal(http.StatusOK)
		gt.A(t, decode[struct {
			Ranges []model.ScoringRange `json:"ranges"`
		}](t, rec).Ranges).Length(1)

		rec = do(t, h, http.MethodDelete, "/api/scoring/ranges/"+created.ID.String(), nil)
		gt.V(t, rec.Code).Equal(http.StatusNoContent)

		rec = do(t, h, http.MethodDelete, "/api/scoring/ranges/"+created.ID.String(), nil)
		gt.V(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("config update", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/api/scoring/config", map[string]any{
			"probabilityImpactCalcType": "ADDITION_OF_ALL",
			"riskRatingCalcType":        "PRODUCT_OF_ALL",
		})
		gt.V(t, rec.Code).Equal(http.StatusOK)

		rec = do(t, h, http.MethodGet, "/api/scoring/config", nil)
		gt.V(t, rec.Code).Equal(http.StatusOK)
		gt.V(t, decode[model.ScoringConfig](t, rec).ProbabilityImpactCalcType).Equal(types.CalcTypeAdditionOfAll)

		rec = do(t, h, http.MethodPut, "/api/scoring/config", map[string]any{
			"probabilityImpactCalcType": "MEDIAN",
			"riskRatingCalcType":        "PRODUCT_OF_ALL",
		})
		gt.V(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown body fields are rejected", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/api/scoring/config", map[string]any{"formula": "x"})
		gt.V(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestAssessmentFlow(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, http.MethodPost, "/api/risks/RSK-001/assessment", nil)
	gt.V(t, rec.Code).Equal(http.StatusCreated)
	view := decode[sessionView](t, rec)
	gt.V(t, view.Session.State.Step).Equal(1)
	base := "/api/assessments/" + view.Session.ID

	rec = do(t, h, http.MethodPost, base+"/next", nil)
	gt.V(t, rec.Code).Equal(http.StatusOK)

	rec = do(t, h, http.MethodPost, base+"/next", nil)
	gt.V(t, rec.Code).Equal(http.StatusUnprocessableEntity)

	rec = do(t, h, http.MethodPost, base+"/likelihood", map[string]any{"threatId": "THR-1", "levelId": "likely"})
	gt.V(t, rec.Code).Equal(http.StatusOK)
	rec = do(t, h, http.MethodPost, base+"/likelihood", map[string]any{"threatId": "THR-1", "levelId": "never"})
	gt.V(t, rec.Code).Equal(http.StatusBadRequest)
	rec = do(t, h, http.MethodPost, base+"/next", nil)
	gt.V(t, rec.Code).Equal(http.StatusOK)

	rec = do(t, h, http.MethodPost, base+"/impact", map[string]any{"threatId": "THR-1", "category": "financial", "levelId": "major"})
	gt.V(t, rec.Code).Equal(http.StatusOK)
	rec = do(t, h, http.MethodPost, base+"/next", nil)
	gt.V(t, rec.Code).Equal(http.StatusOK)

	rec = do(t, h, http.MethodPost, base+"/vulnerability", map[string]any{"vulnerabilityId": "VUL-1", "levelId": "strong"})
	gt.V(t, rec.Code).Equal(http.StatusOK)

	rec = do(t, h, http.MethodPost, base+"/goto", map[string]any{"step": 6})
	gt.V(t, rec.Code).Equal(http.StatusOK)
	view = decode[sessionView](t, rec)
	gt.V(t, view.Preview.InherentScore).Equal(400.0)
	gt.V(t, view.Preview.Rating).Equal("Catastrophic")

	// Vulnerability and rating steps were skipped by the jump
	rec = do(t, h, http.MethodPost, base+"/complete", nil)
	gt.V(t, rec.Code).Equal(http.StatusUnprocessableEntity)

	rec = do(t, h, http.MethodPost, base+"/goto", map[string]any{"step": 4})
	gt.V(t, rec.Code).Equal(http.StatusOK)
	for range 2 {
		rec = do(t, h, http.MethodPost, base+"/next", nil)
		gt.V(t, rec.Code).Equal(http.StatusOK)
	}

	rec = do(t, h, http.MethodPost, base+"/complete", nil)
	gt.V(t, rec.Code).Equal(http.StatusOK)
	result := decode[struct {
		Risk model.Risk `json:"risk"`
	}](t, rec)
	gt.V(t, result.Risk.InherentRiskRating).Equal(400.0)
	gt.V(t, result.Risk.AssessmentStatus).Equal(types.AssessmentStatusAssessed)

	rec = do(t, h, http.MethodGet, base, nil)
	gt.V(t, rec.Code).Equal(http.StatusNotFound)

	rec = do(t, h, http.MethodGet, "/api/risks/RSK-001", nil)
	gt.V(t, rec.Code).Equal(http.StatusOK)
	gt.V(t, decode[model.Risk](t, rec).RiskRating).Equal("Catastrophic")

	t.Run("controls update re-derives residual", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/api/risks/RSK-001/controls", map[string]any{
			"controls": []map[string]any{
				{"controlId": "CTL-1", "effectiveness": 50},
			},
		})
		gt.V(t, rec.Code).Equal(http.StatusOK)
		risk := decode[model.Risk](t, rec)
		gt.V(t, risk.ResidualRiskRating).Equal(200.0)
		gt.V(t, risk.ResidualRating).Equal("Catastrophic")
	})
}

func TestSaveAndDiscard(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, http.MethodPost, "/api/risks/RSK-001/assessment", map[string]any{"mode": "LENIENT"})
	gt.V(t, rec.Code).Equal(http.StatusCreated)
	id := decode[sessionView](t, rec).Session.ID

	rec = do(t, h, http.MethodPost, "/api/assessments/"+id+"/next", nil)
	gt.V(t, rec.Code).Equal(http.StatusOK)
	rec = do(t, h, http.MethodPost, "/api/assessments/"+id+"/save", nil)
	gt.V(t, rec.Code).Equal(http.StatusOK)
	gt.V(t, decode[model.Risk](t, rec).AssessmentStatus).Equal(types.AssessmentStatusInProgress)

	rec = do(t, h, http.MethodPost, "/api/risks/RSK-001/assessment", nil)
	gt.V(t, rec.Code).Equal(http.StatusCreated)
	view := decode[sessionView](t, rec)
	gt.V(t, view.Session.State.Step).Equal(2)

	rec = do(t, h, http.MethodDelete, "/api/assessments/"+view.Session.ID, nil)
	gt.V(t, rec.Code).Equal(http.StatusNoContent)
	rec = do(t, h, http.MethodDelete, "/api/assessments/"+view.Session.ID, nil)
	gt.V(t, rec.Code).Equal(http.StatusNotFound)

	rec = do(t, h, http.MethodPost, "/api/risks/RSK-404/assessment", nil)
	gt.V(t, rec.Code).Equal(http.StatusNotFound)
}
