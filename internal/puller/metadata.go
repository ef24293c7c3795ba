// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package puller

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/sourcepull/pkg/types"
)

// Sidecar describes one pulled artifact. It is written next to the
// artifact so a reviewer can tell what a file is without opening the
// worklist.
type Sidecar struct {
	Seq       string    `yaml:"seq"`
	LongCite  string    `yaml:"long_cite"`
	ShortCite string    `yaml:"short_cite,omitempty"`
	Category  string    `yaml:"category"`
	PulledAt  time.Time `yaml:"pulled_at"`
}

// writeSidecar records pull metadata for a successful attempt.
func writeSidecar(c types.Citation, path string) error {
	sc := Sidecar{
		Seq:       c.Seq.String(),
		LongCite:  c.LongCite,
		ShortCite: c.ShortCite,
		Category:  string(c.Category),
		PulledAt:  time.Now().UTC(),
	}
	data, err := yaml.Marshal(&sc)
	if err != nil {
		return fmt.Errorf("encoding sidecar: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing sidecar: %w", err)
	}
	return nil
}

// ReadSidecar loads pull metadata written next to an artifact.
func ReadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sidecar: %w", err)
	}
	var sc Sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decoding sidecar %s: %w", path, err)
	}
	return &sc, nil
}
