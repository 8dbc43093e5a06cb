package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spigell/salary-predictor/internal/record"
)

// FormatV1 identifies the only artifact layout this package understands.
const FormatV1 = "salary-pipeline/v1"

// Artifact is the serialized form of a fitted pipeline.
type Artifact struct {
	Format    string         `json:"format"`
	Target    string         `json:"target,omitempty"`
	Features  []Feature      `json:"features"`
	Encoder   EncoderSpec    `json:"encoder"`
	Regressor map[string]any `json:"regressor"`
}

// Feature is one named input column of the trained schema.
type Feature struct {
	Name string      `json:"name"`
	Kind record.Kind `json:"kind"`
}

// EncoderSpec describes the one-hot encoding applied to categorical features.
type EncoderSpec struct {
	// HandleUnknown is either "error" (default) or "ignore".
	HandleUnknown string              `json:"handle_unknown,omitempty"`
	Categories    map[string][]string `json:"categories"`
}

// Load reads the artifact at path and builds the pipeline it describes.
func Load(path string) (*Pipeline, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: artifact path is not configured", ErrResourceNotFound)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %w", ErrResourceCorrupt, path, err)
	}

	return Parse(data)
}

// Parse decodes an artifact document and builds the pipeline it describes.
func Parse(data []byte) (*Pipeline, error) {
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("%w: decoding artifact: %w", ErrResourceCorrupt, err)
	}

	return New(artifact)
}

// New validates artifact and builds a ready to use pipeline from it.
func New(artifact Artifact) (*Pipeline, error) {
	if artifact.Format != FormatV1 {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrResourceCorrupt, artifact.Format)
	}

	enc, err := newEncoder(artifact.Features, artifact.Encoder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceCorrupt, err)
	}

	reg, err := newRegressor(artifact.Regressor, enc.width)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceCorrupt, err)
	}

	return &Pipeline{
		target:    artifact.Target,
		encoder:   enc,
		regressor: reg,
	}, nil
}
