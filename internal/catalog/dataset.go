package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianbeese/estates/internal/domain"
	"gopkg.in/yaml.v3"
)

// dataset is the on-disk layout of a listings file
type dataset struct {
	Listings []domain.Listing `json:"listings" yaml:"listings"`
}

// LoadDataset reads listings from a YAML or JSON file. The format is chosen
// by extension; anything other than .json is parsed as YAML.
func LoadDataset(path string) ([]domain.Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return ParseDataset(data, strings.EqualFold(filepath.Ext(path), ".json"))
}

// ParseDataset decodes and validates a dataset document
func ParseDataset(data []byte, isJSON bool) ([]domain.Listing, error) {
	var ds dataset
	if isJSON {
		if err := json.Unmarshal(data, &ds); err != nil {
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &ds); err != nil {
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
	}

	if err := validateDataset(ds.Listings); err != nil {
		return nil, err
	}
	return ds.Listings, nil
}

func validateDataset(listings []domain.Listing) error {
	seen := make(map[string]bool, len(listings))
	for i, l := range listings {
		if l.ID == "" {
			return fmt.Errorf("listing %d: missing id", i)
		}
		if seen[l.ID] {
			return fmt.Errorf("listing %s: duplicate id", l.ID)
		}
		seen[l.ID] = true

		if !l.Type.Valid() {
			return fmt.Errorf("listing %s: unknown type %q", l.ID, l.Type)
		}
		if !l.Status.Valid() {
			return fmt.Errorf("listing %s: unknown status %q", l.ID, l.Status)
		}
	}
	return nil
}
