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

type scoringConfigDocument struct {
	ProbabilityImpactCalcType string    `firestore:"probability_impact_calc_type"`
	RiskRatingCalcType        string    `firestore:"risk_rating_calc_type"`
	UpdatedAt                 time.Time `firestore:"updated_at"`
}

type scoringRangeDocument struct {
	ID              string    `firestore:"id"`
	Label           string    `firestore:"label"`
	LowValue        float64   `firestore:"low_value"`
	HighValue       *float64  `firestore:"high_value"`
	CalculationType string    `firestore:"calculation_type"`
	CreatedAt       time.Time `firestore:"created_at"`
	UpdatedAt       time.Time `firestore:"updated_at"`
}

func (d *scoringRangeDocument) toModel() model.ScoringRange {
	return model.ScoringRange{
		ID:              model.ScoringRangeID(d.ID),
		Label:           d.Label,
		LowValue:        d.LowValue,
		HighValue:       d.HighValue,
		CalculationType: types.CalcType(d.CalculationType),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

const (
	// ScoringRangesCollection is the collection name of scoring ranges; the
	// migrate command creates its composite index
	ScoringRangesCollection = "scoring_ranges"
	scoringConfigCollection = "scoring_config"
	scoringConfigDoc        = "current"
)

type scoringRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newScoringRepository(client *firestore.Client) *scoringRepository {
	return &scoringRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *scoringRepository) configRef() *firestore.DocumentRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, scoringConfigCollection)).Doc(scoringConfigDoc)
}

func (r *scoringRepository) rangesCollection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, ScoringRangesCollection))
}

func (r *scoringRepository) GetConfig(ctx context.Context) (*model.ScoringConfig, error) {
	doc, err := r.configRef().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get scoring config")
	}

	var cfg scoringConfigDocument
	if err := doc.DataTo(&cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal scoring config")
	}

	return &model.ScoringConfig{
		ProbabilityImpactCalcType: types.CalcType(cfg.ProbabilityImpactCalcType),
		RiskRatingCalcType:        types.CalcType(cfg.RiskRatingCalcType),
		UpdatedAt:                 cfg.UpdatedAt,
	}, nil
}

func (r *scoringRepository) PutConfig(ctx context.Context, cfg *model.ScoringConfig) error {
	doc := &scoringConfigDocument{
		ProbabilityImpactCalcType: string(cfg.ProbabilityImpactCalcType),
		RiskRatingCalcType:        string(cfg.RiskRatingCalcType),
		UpdatedAt:                 time.Now().UTC(),
	}
	if _, err := r.configRef().Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put scoring config")
	}
	return nil
}

func (r *scoringRepository) ListRanges(ctx context.Context, calcType types.CalcType) ([]model.ScoringRange, error) {
	query := r.rangesCollection().Query
	if calcType != "" {
		query = query.Where("calculation_type", "==", string(calcType))
	}

	iter := query.OrderBy("low_value", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var ranges []model.ScoringRange
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate scoring ranges", goerr.V(model.CalcTypeKey, calcType))
		}

		var rd scoringRangeDocument
		if err := doc.DataTo(&rd); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal scoring range", goerr.V("doc_id", doc.Ref.ID))
		}
		ranges = append(ranges, rd.toModel())
	}

	return ranges, nil
}

func (r *scoringRepository) GetRange(ctx context.Context, id model.ScoringRangeID) (*model.ScoringRange, error) {
	doc, err := r.rangesCollection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "scoring range not found", goerr.V("range_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get scoring range", goerr.V("range_id", id))
	}

	var rd scoringRangeDocument
	if err := doc.DataTo(&rd); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal scoring range", goerr.V("range_id", id))
	}
	sr := rd.toModel()
	return &sr, nil
}

func (r *scoringRepository) PutRange(ctx context.Context, sr *model.ScoringRange) error {
	if sr.ID == "" {
		return goerr.New("scoring range ID is required")
	}

	docRef := r.rangesCollection().Doc(sr.ID.String())
	now := time.Now().UTC().Truncate(time.Microsecond)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc := &scoringRangeDocument{
			ID:              sr.ID.String(),
			Label:           sr.Label,
			LowValue:        sr.LowValue,
			HighValue:       sr.HighValue,
			CalculationType: string(sr.CalculationType),
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		snap, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get scoring range")
		}
		if err == nil {
			var existing scoringRangeDocument
			if err := snap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to unmarshal scoring range")
			}
			doc.CreatedAt = existing.CreatedAt
		}

		return tx.Set(docRef, doc)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put scoring range", goerr.V("range_id", sr.ID))
	}
	return nil
}

func (r *scoringRepository) DeleteRange(ctx context.Context, id model.ScoringRangeID) error {
	docRef := r.rangesCollection().Doc(id.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrNotFound, "scoring range not found", goerr.V("range_id", id))
		}
		return goerr.Wrap(err, "failed to get scoring range", goerr.V("range_id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete scoring range", goerr.V("range_id", id))
	}
	return nil
}

func (r *scoringRepository) ReplaceRanges(ctx context.Context, calcType types.CalcType, ranges []model.ScoringRange) error {
	for i := range ranges {
		if ranges[i].ID == "" {
			return goerr.New("scoring range ID is required", goerr.V("label", ranges[i].Label))
		}
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	query := r.rangesCollection().Where("calculation_type", "==", string(calcType))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current, err := tx.Documents(query).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to list scoring ranges")
		}

		for _, doc := range current {
			if err := tx.Delete(doc.Ref); err != nil {
				return goerr.Wrap(err, "failed to delete scoring range", goerr.V("doc_id", doc.Ref.ID))
			}
		}
		for _, sr := range ranges {
			doc := &scoringRangeDocument{
				ID:              sr.ID.String(),
				Label:           sr.Label,
				LowValue:        sr.LowValue,
				HighValue:       sr.HighValue,
				CalculationType: string(calcType),
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := tx.Set(r.rangesCollection().Doc(doc.ID), doc); err != nil {
				return goerr.Wrap(err, "failed to set scoring range", goerr.V("range_id", doc.ID))
			}
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to replace scoring ranges", goerr.V(model.CalcTypeKey, calcType))
	}
	return nil
}
