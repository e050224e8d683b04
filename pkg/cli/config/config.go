package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/scoring"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// SeedFile is the TOML bootstrap file: factor catalog, scoring setup and
// optionally the risks to register
type SeedFile struct {
	Scoring       *ScoringSection `toml:"scoring"`
	Categories    []Category      `toml:"category"`
	Likelihood    []Level         `toml:"likelihood"`
	Impact        []ImpactLevel   `toml:"impact"`
	Vulnerability []Level         `toml:"vulnerability"`
	Ranges        []Range         `toml:"range"`
	Risks         []Risk          `toml:"risk"`
}

// ScoringSection selects the calculation types
type ScoringSection struct {
	ProbabilityImpactCalcType string `toml:"probability_impact_calc_type"`
	RiskRatingCalcType        string `toml:"risk_rating_calc_type"`
}

// Category is an impact category
type Category struct {
	ID string `toml:"id"`
}

// Level is a weighted catalog level
type Level struct {
	ID     string  `toml:"id"`
	Name   string  `toml:"name"`
	Weight float64 `toml:"weight"`
}

func (l *Level) validate() error {
	if l.Name == "" {
		return goerr.Wrap(ErrMissingName, "level name is required", goerr.V(IDKey, l.ID))
	}
	if l.Weight <= 0 {
		return goerr.Wrap(ErrInvalidWeight, "level weight must be positive", goerr.V(IDKey, l.ID), goerr.V("weight", l.Weight))
	}
	return nil
}

// ImpactLevel is an impact level, optionally bound to one category
type ImpactLevel struct {
	Level
	Category string `toml:"category"`
}

// Range is a scoring band. A missing high bound makes it open ended.
type Range struct {
	Label           string   `toml:"label"`
	Low             float64  `toml:"low"`
	High            *float64 `toml:"high"`
	CalculationType string   `toml:"calculation_type"`
}

// Risk is a risk definition with its links
type Risk struct {
	ID              string    `toml:"id"`
	Title           string    `toml:"title"`
	Description     string    `toml:"description"`
	Threats         []Link    `toml:"threat"`
	Vulnerabilities []Link    `toml:"vulnerability"`
	Controls        []Control `toml:"control"`
}

// Link refers to a threat or vulnerability
type Link struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// Control is a control link with its effectiveness percentage
type Control struct {
	ID            string   `toml:"id"`
	Name          string   `toml:"name"`
	Planned       bool     `toml:"planned"`
	Effectiveness *float64 `toml:"effectiveness"`
}

// Validate checks IDs, weights, duplicates and range overlap
func (s *SeedFile) Validate() error {
	for _, l := range s.Likelihood {
		if err := l.validate(); err != nil {
			return goerr.Wrap(err, "invalid likelihood level")
		}
	}
	for _, i := range s.Impact {
		if err := i.validate(); err != nil {
			return goerr.Wrap(err, "invalid impact level")
		}
	}
	for _, v := range s.Vulnerability {
		if err := v.validate(); err != nil {
			return goerr.Wrap(err, "invalid vulnerability level")
		}
	}
	if err := s.Catalog().Validate(); err != nil {
		return goerr.Wrap(ErrInvalidConfig, "invalid catalog", goerr.V("cause", err.Error()))
	}

	if s.Scoring != nil {
		if err := s.ScoringConfig().Validate(); err != nil {
			return goerr.Wrap(ErrInvalidConfig, "invalid scoring section", goerr.V("cause", err.Error()))
		}
	}

	ranges := s.ScoringRanges()
	byType := make(map[types.CalcType][]model.ScoringRange)
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return goerr.Wrap(ErrInvalidConfig, "invalid range", goerr.V("label", r.Label), goerr.V("cause", err.Error()))
		}
		byType[r.CalculationType] = append(byType[r.CalculationType], r)
	}
	for ct, rs := range byType {
		if err := scoring.CheckOverlap(rs); err != nil {
			return goerr.Wrap(err, "ranges overlap", goerr.V("calc_type", ct))
		}
	}

	riskIDs := make(map[string]bool)
	for _, r := range s.Risks {
		if err := types.RiskID(r.ID).Validate(); err != nil {
			return goerr.Wrap(ErrInvalidConfig, "invalid risk ID", goerr.V(IDKey, r.ID), goerr.V("cause", err.Error()))
		}
		if r.Title == "" {
			return goerr.Wrap(ErrMissingName, "risk title is required", goerr.V(IDKey, r.ID))
		}
		if riskIDs[r.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate risk ID", goerr.V(IDKey, r.ID))
		}
		riskIDs[r.ID] = true
	}

	return nil
}

// HasCatalog reports whether the file defines catalog levels
func (s *SeedFile) HasCatalog() bool {
	return len(s.Likelihood)+len(s.Impact)+len(s.Vulnerability)+len(s.Categories) > 0
}

// Catalog converts the catalog tables
func (s *SeedFile) Catalog() *model.Catalog {
	catalog := &model.Catalog{
		Likelihoods:          make([]model.Likelihood, len(s.Likelihood)),
		Impacts:              make([]model.Impact, len(s.Impact)),
		VulnerabilityRatings: make([]model.VulnerabilityRating, len(s.Vulnerability)),
	}
	for i, l := range s.Likelihood {
		catalog.Likelihoods[i] = model.Likelihood{ID: types.LikelihoodID(l.ID), Label: l.Name, Weight: l.Weight}
	}
	for i, imp := range s.Impact {
		catalog.Impacts[i] = model.Impact{
			ID:       types.ImpactID(imp.ID),
			Label:    imp.Name,
			Weight:   imp.Weight,
			Category: types.ImpactCategory(imp.Category),
		}
	}
	for i, v := range s.Vulnerability {
		catalog.VulnerabilityRatings[i] = model.VulnerabilityRating{
			ID:     types.VulnerabilityRatingID(v.ID),
			Label:  v.Name,
			Weight: v.Weight,
		}
	}
	for _, c := range s.Categories {
		catalog.Categories = append(catalog.Categories, types.ImpactCategory(c.ID))
	}
	return catalog
}

// ScoringConfig converts the scoring section, or returns nil when absent
func (s *SeedFile) ScoringConfig() *model.ScoringConfig {
	if s.Scoring == nil {
		return nil
	}
	return &model.ScoringConfig{
		ProbabilityImpactCalcType: types.CalcType(s.Scoring.ProbabilityImpactCalcType),
		RiskRatingCalcType:        types.CalcType(s.Scoring.RiskRatingCalcType),
	}
}

// ScoringRanges converts the range tables
func (s *SeedFile) ScoringRanges() []model.ScoringRange {
	ranges := make([]model.ScoringRange, len(s.Ranges))
	for i, r := range s.Ranges {
		ranges[i] = model.ScoringRange{
			Label:           r.Label,
			LowValue:        r.Low,
			HighValue:       r.High,
			CalculationType: types.CalcType(r.CalculationType),
		}
	}
	return ranges
}

// RiskDefinitions converts the risk tables
func (s *SeedFile) RiskDefinitions() []*model.Risk {
	risks := make([]*model.Risk, len(s.Risks))
	for i, r := range s.Risks {
		risk := &model.Risk{
			ID:          types.RiskID(r.ID),
			Title:       r.Title,
			Description: r.Description,
		}
		for _, t := range r.Threats {
			risk.ThreatLinks = append(risk.ThreatLinks, model.ThreatLink{ThreatID: types.ThreatID(t.ID), Name: t.Name})
		}
		for _, v := range r.Vulnerabilities {
			risk.VulnerabilityLinks = append(risk.VulnerabilityLinks, model.VulnerabilityLink{
				VulnerabilityID: types.VulnerabilityID(v.ID),
				Name:            v.Name,
			})
		}
		for _, c := range r.Controls {
			risk.ControlLinks = append(risk.ControlLinks, model.ControlLink{
				ControlID:     types.ControlID(c.ID),
				Name:          c.Name,
				IsPlanned:     c.Planned,
				Effectiveness: c.Effectiveness,
			})
		}
		risks[i] = risk
	}
	return risks
}

// LoadSeedFile loads and validates a seed file
func LoadSeedFile(path string) (*SeedFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read seed file", goerr.V(ConfigPathKey, path))
	}

	var seed SeedFile
	if err := toml.Unmarshal(data, &seed); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML seed file", goerr.V(ConfigPathKey, path))
	}

	if err := seed.Validate(); err != nil {
		return nil, goerr.Wrap(err, "seed file validation failed", goerr.V(ConfigPathKey, path))
	}

	return &seed, nil
}
