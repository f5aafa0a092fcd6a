package pipeline

import (
	"fmt"

	"github.com/arloliu/fuda"
)

// LoadFromFile loads and validates a pipeline from a YAML file.
func LoadFromFile(path string) (*Pipeline, error) {
	var p Pipeline
	if err := fuda.LoadFile(path, &p); err != nil {
		return nil, fmt.Errorf("failed to load pipeline file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}
