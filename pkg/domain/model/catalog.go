package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// DefaultFloor is used as the seed value when a catalog collection is empty.
// One is neutral for the multiplicative inherent score.
const DefaultFloor = 1.0

// Likelihood is a catalog likelihood level
type Likelihood struct {
	ID     types.LikelihoodID `json:"id"`
	Label  string             `json:"label"`
	Weight float64            `json:"weight"`
}

// Impact is a catalog impact level. An empty Category applies to every category.
type Impact struct {
	ID       types.ImpactID       `json:"id"`
	Label    string               `json:"label"`
	Weight   float64              `json:"weight"`
	Category types.ImpactCategory `json:"category,omitempty"`
}

// VulnerabilityRating is a catalog vulnerability-strength level
type VulnerabilityRating struct {
	ID     types.VulnerabilityRatingID `json:"id"`
	Label  string                      `json:"label"`
	Weight float64                     `json:"weight"`
}

// Catalog is the read-only factor reference data used by assessments
type Catalog struct {
	Likelihoods          []Likelihood           `json:"likelihoods"`
	Impacts              []Impact               `json:"impacts"`
	VulnerabilityRatings []VulnerabilityRating  `json:"vulnerabilityRatings"`
	Categories           []types.ImpactCategory `json:"categories"`
}

// DefaultCatalog returns the reference scale: likelihood 1-5, impact 2-10 and
// vulnerability strength 5-10, so the inherent score spans 10-500.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Likelihoods: []Likelihood{
			{ID: "rare", Label: "Rare", Weight: 1},
			{ID: "unlikely", Label: "Unlikely", Weight: 2},
			{ID: "possible", Label: "Possible", Weight: 3},
			{ID: "likely", Label: "Likely", Weight: 5},
		},
		Impacts: []Impact{
			{ID: "insignificant", Label: "Insignificant", Weight: 2},
			{ID: "minor", Label: "Minor", Weight: 4},
			{ID: "moderate", Label: "Moderate", Weight: 6},
			{ID: "major", Label: "Major", Weight: 8},
			{ID: "high", Label: "High impact", Weight: 10},
		},
		VulnerabilityRatings: []VulnerabilityRating{
			{ID: "weak", Label: "Weak", Weight: 5},
			{ID: "medium", Label: "Medium", Weight: 7},
			{ID: "strong", Label: "Strong", Weight: 10},
		},
		Categories: types.DefaultImpactCategories(),
	}
}

// ImpactCategories returns the configured categories, or the default set when none are configured
func (c *Catalog) ImpactCategories() []types.ImpactCategory {
	if len(c.Categories) == 0 {
		return types.DefaultImpactCategories()
	}
	return c.Categories
}

// ImpactsFor returns impact levels applicable to the category
func (c *Catalog) ImpactsFor(category types.ImpactCategory) []Impact {
	var result []Impact
	for _, imp := range c.Impacts {
		if imp.Category == "" || imp.Category == category {
			result = append(result, imp)
		}
	}
	return result
}

// MinLikelihoodWeight returns the smallest likelihood weight, or DefaultFloor
func (c *Catalog) MinLikelihoodWeight() float64 {
	weights := make([]float64, len(c.Likelihoods))
	for i, l := range c.Likelihoods {
		weights[i] = l.Weight
	}
	return minWeight(weights)
}

// MinImpactWeight returns the smallest impact weight, or DefaultFloor
func (c *Catalog) MinImpactWeight() float64 {
	weights := make([]float64, len(c.Impacts))
	for i, imp := range c.Impacts {
		weights[i] = imp.Weight
	}
	return minWeight(weights)
}

// MinVulnerabilityWeight returns the smallest vulnerability weight, or DefaultFloor
func (c *Catalog) MinVulnerabilityWeight() float64 {
	weights := make([]float64, len(c.VulnerabilityRatings))
	for i, v := range c.VulnerabilityRatings {
		weights[i] = v.Weight
	}
	return minWeight(weights)
}

func minWeight(weights []float64) float64 {
	if len(weights) == 0 {
		return DefaultFloor
	}
	m := weights[0]
	for _, w := range weights[1:] {
		if w < m {
			m = w
		}
	}
	return m
}

// Validate checks IDs, labels, weights and duplicates
func (c *Catalog) Validate() error {
	seenL := make(map[types.LikelihoodID]bool)
	for _, l := range c.Likelihoods {
		if err := l.ID.Validate(); err != nil {
			return goerr.Wrap(err, "invalid likelihood level")
		}
		if l.Label == "" {
			return goerr.New("likelihood label is required", goerr.V("id", l.ID))
		}
		if l.Weight <= 0 {
			return goerr.New("likelihood weight must be positive", goerr.V("id", l.ID), goerr.V("weight", l.Weight))
		}
		if seenL[l.ID] {
			return goerr.New("duplicate likelihood ID", goerr.V("id", l.ID))
		}
		seenL[l.ID] = true
	}

	seenC := make(map[types.ImpactCategory]bool)
	for _, cat := range c.Categories {
		if err := cat.Validate(); err != nil {
			return goerr.Wrap(err, "invalid impact category")
		}
		if seenC[cat] {
			return goerr.New("duplicate impact category", goerr.V("category", cat))
		}
		seenC[cat] = true
	}

	type impactKey struct {
		id       types.ImpactID
		category types.ImpactCategory
	}
	seenI := make(map[impactKey]bool)
	for _, imp := range c.Impacts {
		if err := imp.ID.Validate(); err != nil {
			return goerr.Wrap(err, "invalid impact level")
		}
		if imp.Label == "" {
			return goerr.New("impact label is required", goerr.V("id", imp.ID))
		}
		if imp.Weight <= 0 {
			return goerr.New("impact weight must be positive", goerr.V("id", imp.ID), goerr.V("weight", imp.Weight))
		}
		if imp.Category != "" && len(c.Categories) > 0 && !seenC[imp.Category] {
			return goerr.New("impact level refers to unknown category", goerr.V("id", imp.ID), goerr.V("category", imp.Category))
		}
		key := impactKey{id: imp.ID, category: imp.Category}
		if seenI[key] {
			return goerr.New("duplicate impact ID", goerr.V("id", imp.ID), goerr.V("category", imp.Category))
		}
		seenI[key] = true
	}

	seenV := make(map[types.VulnerabilityRatingID]bool)
	for _, v := range c.VulnerabilityRatings {
		if err := v.ID.Validate(); err != nil {
			return goerr.Wrap(err, "invalid vulnerability rating")
		}
		if v.Label == "" {
			return goerr.New("vulnerability rating label is required", goerr.V("id", v.ID))
		}
		if v.Weight <= 0 {
			return goerr.New("vulnerability weight must be positive", goerr.V("id", v.ID), goerr.V("weight", v.Weight))
		}
		if seenV[v.ID] {
			return goerr.New("duplicate vulnerability rating ID", goerr.V("id", v.ID))
		}
		seenV[v.ID] = true
	}

	return nil
}
