package model

import (
	"fmt"
	"math"

	"github.com/spigell/salary-predictor/internal/record"
)

// Pipeline is a fitted feature encoder followed by a regressor.
// It is immutable once built and safe for concurrent use.
type Pipeline struct {
	target    string
	encoder   *encoder
	regressor regressor
}

// Predict returns the salary estimate, in thousands, for one normalized record.
func (p *Pipeline) Predict(rec record.Attributes) (float64, error) {
	return p.PredictRow(rec.Row())
}

// PredictRow returns the estimate for an arbitrary named row.
// Rows whose fields differ from the trained schema fail with ErrSchemaMismatch.
func (p *Pipeline) PredictRow(row record.Row) (float64, error) {
	vector, err := p.encoder.encode(row)
	if err != nil {
		return 0, err
	}

	y := p.regressor.Predict(vector)
	if !finite(y) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrediction, y)
	}

	return math.Max(0, y), nil
}

// Features returns a copy of the trained schema in order.
func (p *Pipeline) Features() []Feature {
	return append([]Feature(nil), p.encoder.features...)
}

// Knows reports whether value is a category the pipeline was fitted on for feature.
func (p *Pipeline) Knows(feature, value string) bool {
	return p.encoder.known(feature, value)
}

// Description summarizes a loaded pipeline for logs and health output.
type Description struct {
	Target    string `json:"target,omitempty"`
	Regressor string `json:"regressor"`
	Features  int    `json:"features"`
	Columns   int    `json:"columns"`
}

func (p *Pipeline) Describe() Description {
	return Description{
		Target:    p.target,
		Regressor: p.regressor.Name(),
		Features:  len(p.encoder.features),
		Columns:   p.encoder.width,
	}
}
