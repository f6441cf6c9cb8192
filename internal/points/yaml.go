package points

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/tasker/internal/model"
)

// ErrNoTiers is returned when a tier file contains no tiers.
var ErrNoTiers = errors.New("tier list is empty")

type tierFile struct {
	Tiers []model.Tier `yaml:"tiers"`
}

// ExportYAML serialises tiers in list order.
func ExportYAML(tiers []model.Tier) ([]byte, error) {
	data, err := yaml.Marshal(tierFile{Tiers: tiers})
	if err != nil {
		return nil, fmt.Errorf("marshal tiers yaml: %w", err)
	}
	return data, nil
}

// ImportYAML parses a tier file written by ExportYAML.
func ImportYAML(data []byte) ([]model.Tier, error) {
	var f tierFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tiers yaml: %w", err)
	}
	if len(f.Tiers) == 0 {
		return nil, ErrNoTiers
	}
	return f.Tiers, nil
}
