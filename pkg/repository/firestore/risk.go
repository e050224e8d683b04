package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type threatLinkDocument struct {
	ThreatID   string   `firestore:"threat_id"`
	Name       string   `firestore:"name"`
	Likelihood *float64 `firestore:"likelihood"`
}

type impactEntryDocument struct {
	ThreatID string  `firestore:"threat_id"`
	Category string  `firestore:"category"`
	Impact   float64 `firestore:"impact"`
}

type vulnerabilityLinkDocument struct {
	VulnerabilityID string   `firestore:"vulnerability_id"`
	Name            string   `firestore:"name"`
	Rating          *float64 `firestore:"rating"`
}

type controlLinkDocument struct {
	ControlID     string   `firestore:"control_id"`
	Name          string   `firestore:"name"`
	IsPlanned     bool     `firestore:"is_planned"`
	Effectiveness *float64 `firestore:"effectiveness"`
}

type riskDocument struct {
	ID           string `firestore:"id"`
	Title        string `firestore:"title"`
	Description  string `firestore:"description"`
	CategoryID   string `firestore:"category_id"`
	DepartmentID string `firestore:"department_id"`
	OwnerID      string `firestore:"owner_id"`

	ThreatLinks        []threatLinkDocument        `firestore:"threat_links"`
	ImpactEntries      []impactEntryDocument       `firestore:"impact_entries"`
	VulnerabilityLinks []vulnerabilityLinkDocument `firestore:"vulnerability_links"`
	ControlLinks       []controlLinkDocument       `firestore:"control_links"`

	LikelihoodScore    float64 `firestore:"likelihood_score"`
	ImpactScore        float64 `firestore:"impact_score"`
	VulnerabilityScore float64 `firestore:"vulnerability_score"`
	InherentRiskRating float64 `firestore:"inherent_risk_rating"`
	RiskRating         string  `firestore:"risk_rating"`
	ResidualRiskRating float64 `firestore:"residual_risk_rating"`
	ResidualRating     string  `firestore:"residual_rating"`
	ControlRating      float64 `firestore:"control_rating"`

	Status           string     `firestore:"status"`
	AssessmentStatus string     `firestore:"assessment_status"`
	AssessmentDate   *time.Time `firestore:"assessment_date"`
	LastStep         int        `firestore:"last_step"`
	CompletedSteps   []int      `firestore:"completed_steps"`

	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func toRiskDocument(r *model.Risk) *riskDocument {
	doc := &riskDocument{
		ID:                 string(r.ID),
		Title:              r.Title,
		Description:        r.Description,
		CategoryID:         r.CategoryID,
		DepartmentID:       r.DepartmentID,
		OwnerID:            r.OwnerID,
		LikelihoodScore:    r.LikelihoodScore,
		ImpactScore:        r.ImpactScore,
		VulnerabilityScore: r.VulnerabilityScore,
		InherentRiskRating: r.InherentRiskRating,
		RiskRating:         r.RiskRating,
		ResidualRiskRating: r.ResidualRiskRating,
		ResidualRating:     r.ResidualRating,
		ControlRating:      r.ControlRating,
		Status:             string(r.Status),
		AssessmentStatus:   string(r.AssessmentStatus),
		AssessmentDate:     r.AssessmentDate,
		LastStep:           int(r.Progress.LastStep),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	for _, l := range r.ThreatLinks {
		doc.ThreatLinks = append(doc.ThreatLinks, threatLinkDocument{
			ThreatID: string(l.ThreatID), Name: l.Name, Likelihood: l.Likelihood,
		})
	}
	for _, e := range r.ImpactEntries {
		doc.ImpactEntries = append(doc.ImpactEntries, impactEntryDocument{
			ThreatID: string(e.ThreatID), Category: string(e.Category), Impact: e.Impact,
		})
	}
	for _, l := range r.VulnerabilityLinks {
		doc.VulnerabilityLinks = append(doc.VulnerabilityLinks, vulnerabilityLinkDocument{
			VulnerabilityID: string(l.VulnerabilityID), Name: l.Name, Rating: l.Rating,
		})
	}
	for _, l := range r.ControlLinks {
		doc.ControlLinks = append(doc.ControlLinks, controlLinkDocument{
			ControlID: string(l.ControlID), Name: l.Name, IsPlanned: l.IsPlanned, Effectiveness: l.Effectiveness,
		})
	}
	for _, s := range r.Progress.CompletedSteps {
		doc.CompletedSteps = append(doc.CompletedSteps, int(s))
	}

	return doc
}

func (d *riskDocument) toModel() *model.Risk {
	r := &model.Risk{
		ID:                 types.RiskID(d.ID),
		Title:              d.Title,
		Description:        d.Description,
		CategoryID:         d.CategoryID,
		DepartmentID:       d.DepartmentID,
		OwnerID:            d.OwnerID,
		LikelihoodScore:    d.LikelihoodScore,
		ImpactScore:        d.ImpactScore,
		VulnerabilityScore: d.VulnerabilityScore,
		InherentRiskRating: d.InherentRiskRating,
		RiskRating:         d.RiskRating,
		ResidualRiskRating: d.ResidualRiskRating,
		ResidualRating:     d.ResidualRating,
		ControlRating:      d.ControlRating,
		Status:             types.RiskStatus(d.Status),
		AssessmentStatus:   types.AssessmentStatus(d.AssessmentStatus),
		AssessmentDate:     d.AssessmentDate,
		Progress:           model.AssessmentProgress{LastStep: types.StepID(d.LastStep)},
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}

	for _, l := range d.ThreatLinks {
		r.ThreatLinks = append(r.ThreatLinks, model.ThreatLink{
			ThreatID: types.ThreatID(l.ThreatID), Name: l.Name, Likelihood: l.Likelihood,
		})
	}
	for _, e := range d.ImpactEntries {
		r.ImpactEntries = append(r.ImpactEntries, model.ImpactEntry{
			ThreatID: types.ThreatID(e.ThreatID), Category: types.ImpactCategory(e.Category), Impact: e.Impact,
		})
	}
	for _, l := range d.VulnerabilityLinks {
		r.VulnerabilityLinks = append(r.VulnerabilityLinks, model.VulnerabilityLink{
			VulnerabilityID: types.VulnerabilityID(l.VulnerabilityID), Name: l.Name, Rating: l.Rating,
		})
	}
	for _, l := range d.ControlLinks {
		r.ControlLinks = append(r.ControlLinks, model.ControlLink{
			ControlID: types.ControlID(l.ControlID), Name: l.Name, IsPlanned: l.IsPlanned, Effectiveness: l.Effectiveness,
		})
	}
	for _, s := range d.CompletedSteps {
		r.Progress.CompletedSteps = append(r.Progress.CompletedSteps, types.StepID(s))
	}

	return r
}

type riskRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRiskRepository(client *firestore.Client) *riskRepository {
	return &riskRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *riskRepository) risksCollection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, "risks"))
}

func (r *riskRepository) Get(ctx context.Context, id types.RiskID) (*model.Risk, error) {
	doc, err := r.risksCollection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "risk not found", goerr.V(model.RiskIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(model.RiskIDKey, id))
	}

	var riskDoc riskDocument
	if err := doc.DataTo(&riskDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal risk", goerr.V(model.RiskIDKey, id))
	}

	return riskDoc.toModel(), nil
}

func (r *riskRepository) List(ctx context.Context) ([]*model.Risk, error) {
	iter := r.risksCollection().OrderBy("id", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var risks []*model.Risk
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate risks")
		}

		var riskDoc riskDocument
		if err := doc.DataTo(&riskDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal risk", goerr.V("doc_id", doc.Ref.ID))
		}

		risks = append(risks, riskDoc.toModel())
	}

	return risks, nil
}

func (r *riskRepository) Put(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	if err := risk.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid risk ID")
	}

	docRef := r.risksCollection().Doc(string(risk.ID))
	now := time.Now().UTC().Truncate(time.Microsecond)

	var stored *riskDocument
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc := toRiskDocument(risk)
		doc.CreatedAt = now
		doc.UpdatedAt = now

		snap, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get risk")
		}
		if err == nil {
			var existing riskDocument
			if err := snap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to unmarshal risk")
			}
			doc.CreatedAt = existing.CreatedAt
		}

		stored = doc
		return tx.Set(docRef, doc)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put risk", goerr.V(model.RiskIDKey, risk.ID))
	}

	return stored.toModel(), nil
}

func (r *riskRepository) Delete(ctx context.Context, id types.RiskID) error {
	docRef := r.risksCollection().Doc(string(id))

	_, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrNotFound, "risk not found", goerr.V(model.RiskIDKey, id))
		}
		return goerr.Wrap(err, "failed to get risk", goerr.V(model.RiskIDKey, id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete risk", goerr.V(model.RiskIDKey, id))
	}

	return nil
}
