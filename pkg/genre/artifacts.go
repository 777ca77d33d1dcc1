package genre

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadPoints reads a points artifact written by the pipeline.
func LoadPoints(path string) ([]ColoredPoint, error) {
	var points []ColoredPoint
	if err := loadArtifact(path, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// LoadEdges reads an edges artifact written by the pipeline.
func LoadEdges(path string) ([]Edge, error) {
	var edges []Edge
	if err := loadArtifact(path, &edges); err != nil {
		return nil, err
	}
	return edges, nil
}

func loadArtifact(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataLoad, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDataLoad, path, err)
	}
	return nil
}
