package backlog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/damione1/backlog-poker/internal/models"
)

// seedFile is the on-disk shape of a feature seed file:
//
//	features:
//	  - name: Login page
//	  - name: Export to CSV
type seedFile struct {
	Features []models.Feature `yaml:"features"`
}

// LoadFeatures reads the YAML seed file used for rooms that are joined
// before being created explicitly.
func LoadFeatures(path string) ([]models.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read features file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse features file: %w", err)
	}

	features := make([]models.Feature, 0, len(seed.Features))
	for _, f := range seed.Features {
		if f.Name == "" {
			continue
		}
		// Seed files never carry priorities; those are decided in the room.
		features = append(features, models.Feature{Name: f.Name})
	}
	return features, nil
}

// Loader produces the seed backlog for implicitly created rooms.
type Loader func() []models.Feature

// FileLoader returns a Loader backed by path. A missing or unreadable file
// yields an empty backlog, so such rooms start out completed.
func FileLoader(path string) Loader {
	return func() []models.Feature {
		if path == "" {
			return nil
		}
		features, err := LoadFeatures(path)
		if err != nil {
			return nil
		}
		return features
	}
}
