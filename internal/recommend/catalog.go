// Package recommend assigns patients to recommendation experiment arms and
// shapes outcome records for offline A/B analysis.
package recommend

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/cardio-intel/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Variant labels of the two experiment arms.
const (
	VariantA = "A"
	VariantB = "B"
)

// Catalog holds the recommendation variants of each risk tier.
type Catalog struct {
	Tiers map[models.RiskLevel]map[string]models.Recommendation `yaml:"tiers"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return parseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog from path. An empty path or a missing file yields
// the built-in catalog.
func LoadCatalog(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("recommendation catalog not found; using built-in catalog", slog.String("path", path))
			return DefaultCatalog()
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	catalog, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog, nil
}

func parseCatalog(data []byte) (*Catalog, error) {
	var raw struct {
		Tiers map[string]map[string]models.Recommendation `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	catalog := &Catalog{Tiers: make(map[models.RiskLevel]map[string]models.Recommendation, len(raw.Tiers))}
	for tier, variants := range raw.Tiers {
		normalized := make(map[string]models.Recommendation, len(variants))
		for name, rec := range variants {
			normalized[strings.ToUpper(strings.TrimSpace(name))] = rec
		}
		catalog.Tiers[models.RiskLevel(strings.ToLower(tier))] = normalized
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Validate checks that every tier has both experiment arms.
func (c *Catalog) Validate() error {
	for _, tier := range []models.RiskLevel{models.RiskHigh, models.RiskModerate, models.RiskLow} {
		variants, ok := c.Tiers[tier]
		if !ok {
			return fmt.Errorf("tier %q missing", tier)
		}
		for _, v := range []string{VariantA, VariantB} {
			rec, ok := variants[v]
			if !ok {
				return fmt.Errorf("tier %q missing variant %s", tier, v)
			}
			if rec.Title == "" {
				return fmt.Errorf("tier %q variant %s has no title", tier, v)
			}
		}
	}
	return nil
}

// Variants lists the variant names of a tier in sorted order.
func (c *Catalog) Variants(tier models.RiskLevel) []string {
	names := make([]string, 0, len(c.Tiers[tier]))
	for name := range c.Tiers[tier] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
