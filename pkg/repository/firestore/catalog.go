package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type catalogEntryDocument struct {
	ID       string  `firestore:"id"`
	Label    string  `firestore:"label"`
	Weight   float64 `firestore:"weight"`
	Category string  `firestore:"category,omitempty"`
}

type categoryDocument struct {
	ID    string `firestore:"id"`
	Order int    `firestore:"order"`
}

const (
	likelihoodsCollection          = "catalog_likelihoods"
	impactsCollection              = "catalog_impacts"
	vulnerabilityRatingsCollection = "catalog_vulnerability_ratings"
	categoriesCollection           = "catalog_categories"
)

type catalogRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCatalogRepository(client *firestore.Client) *catalogRepository {
	return &catalogRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *catalogRepository) collection(name string) *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, name))
}

func (r *catalogRepository) listEntries(ctx context.Context, name string) ([]catalogEntryDocument, error) {
	iter := r.collection(name).OrderBy("weight", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var entries []catalogEntryDocument
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate catalog entries", goerr.V("collection", name))
		}

		var entry catalogEntryDocument
		if err := doc.DataTo(&entry); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal catalog entry",
				goerr.V("collection", name), goerr.V("doc_id", doc.Ref.ID))
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *catalogRepository) ListLikelihoods(ctx context.Context) ([]model.Likelihood, error) {
	entries, err := r.listEntries(ctx, likelihoodsCollection)
	if err != nil {
		return nil, err
	}

	items := make([]model.Likelihood, 0, len(entries))
	for _, e := range entries {
		items = append(items, model.Likelihood{ID: types.LikelihoodID(e.ID), Label: e.Label, Weight: e.Weight})
	}
	return items, nil
}

func (r *catalogRepository) ListImpacts(ctx context.Context) ([]model.Impact, error) {
	entries, err := r.listEntries(ctx, impactsCollection)
	if err != nil {
		return nil, err
	}

	items := make([]model.Impact, 0, len(entries))
	for _, e := range entries {
		items = append(items, model.Impact{
			ID:       types.ImpactID(e.ID),
			Label:    e.Label,
			Weight:   e.Weight,
			Category: types.ImpactCategory(e.Category),
		})
	}
	return items, nil
}

func (r *catalogRepository) ListVulnerabilityRatings(ctx context.Context) ([]model.VulnerabilityRating, error) {
	entries, err := r.listEntries(ctx, vulnerabilityRatingsCollection)
	if err != nil {
		return nil, err
	}

	items := make([]model.VulnerabilityRating, 0, len(entries))
	for _, e := range entries {
		items = append(items, model.VulnerabilityRating{ID: types.VulnerabilityRatingID(e.ID), Label: e.Label, Weight: e.Weight})
	}
	return items, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]types.ImpactCategory, error) {
	iter := r.collection(categoriesCollection).OrderBy("order", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var categories []types.ImpactCategory
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate impact categories")
		}

		var c categoryDocument
		if err := doc.DataTo(&c); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal impact category", goerr.V("doc_id", doc.Ref.ID))
		}
		categories = append(categories, types.ImpactCategory(c.ID))
	}

	return categories, nil
}

// Replace swaps every catalog collection in a single transaction
func (r *catalogRepository) Replace(ctx context.Context, catalog *model.Catalog) error {
	if err := catalog.Validate(); err != nil {
		return goerr.Wrap(err, "invalid catalog")
	}

	names := []string{likelihoodsCollection, impactsCollection, vulnerabilityRatingsCollection, categoriesCollection}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// all reads must happen before any write
		var stale []*firestore.DocumentRef
		for _, name := range names {
			docs, err := tx.Documents(r.collection(name)).GetAll()
			if err != nil {
				return goerr.Wrap(err, "failed to read catalog collection", goerr.V("collection", name))
			}
			for _, d := range docs {
				stale = append(stale, d.Ref)
			}
		}

		for _, ref := range stale {
			if err := tx.Delete(ref); err != nil {
				return goerr.Wrap(err, "failed to delete catalog entry", goerr.V("doc_id", ref.ID))
			}
		}

		for _, l := range catalog.Likelihoods {
			doc := catalogEntryDocument{ID: string(l.ID), Label: l.Label, Weight: l.Weight}
			if err := tx.Set(r.collection(likelihoodsCollection).Doc(doc.ID), doc); err != nil {
				return goerr.Wrap(err, "failed to set likelihood", goerr.V("id", doc.ID))
			}
		}
		for _, i := range catalog.Impacts {
			doc := catalogEntryDocument{ID: string(i.ID), Label: i.Label, Weight: i.Weight, Category: string(i.Category)}
			if err := tx.Set(r.collection(impactsCollection).Doc(doc.ID), doc); err != nil {
				return goerr.Wrap(err, "failed to set impact", goerr.V("id", doc.ID))
			}
		}
		for _, v := range catalog.VulnerabilityRatings {
			doc := catalogEntryDocument{ID: string(v.ID), Label: v.Label, Weight: v.Weight}
			if err := tx.Set(r.collection(vulnerabilityRatingsCollection).Doc(doc.ID), doc); err != nil {
				return goerr.Wrap(err, "failed to set vulnerability rating", goerr.V("id", doc.ID))
			}
		}
		for idx, c := range catalog.Categories {
			doc := categoryDocument{ID: string(c), Order: idx}
			if err := tx.Set(r.collection(categoriesCollection).Doc(doc.ID), doc); err != nil {
				return goerr.Wrap(err, "failed to set impact category", goerr.V("id", doc.ID))
			}
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to replace catalog")
	}

	return nil
}
