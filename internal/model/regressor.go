package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	regressorLinear = "linear"
	regressorForest = "forest"
)

// regressor maps an encoded feature vector to a raw estimate.
type regressor interface {
	Predict(features []float64) float64
	Name() string
}

func newRegressor(params map[string]any, width int) (regressor, error) {
	if len(params) == 0 {
		return nil, errors.New("artifact declares no regressor")
	}

	kind, _ := params["type"].(string)
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case regressorLinear:
		var lr linearRegressor
		if err := decodeParams(params, &lr); err != nil {
			return nil, fmt.Errorf("decoding linear regressor: %w", err)
		}
		if err := lr.validate(width); err != nil {
			return nil, err
		}
		return &lr, nil
	case regressorForest:
		var fr forestRegressor
		if err := decodeParams(params, &fr); err != nil {
			return nil, fmt.Errorf("decoding forest regressor: %w", err)
		}
		if err := fr.validate(width); err != nil {
			return nil, err
		}
		return &fr, nil
	default:
		return nil, fmt.Errorf("unsupported regressor type %q", kind)
	}
}

func decodeParams(params map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(params)
}

type linearRegressor struct {
	Type         string    `mapstructure:"type"`
	Intercept    float64   `mapstructure:"intercept"`
	Coefficients []float64 `mapstructure:"coefficients"`
}

func (lr *linearRegressor) validate(width int) error {
	if len(lr.Coefficients) != width {
		return fmt.Errorf("linear regressor has %d coefficients, encoder produces %d columns", len(lr.Coefficients), width)
	}
	if !finite(lr.Intercept) {
		return errors.New("linear regressor intercept is not finite")
	}
	for i, c := range lr.Coefficients {
		if !finite(c) {
			return fmt.Errorf("linear regressor coefficient %d is not finite", i)
		}
	}
	return nil
}

func (lr *linearRegressor) Predict(features []float64) float64 {
	y := lr.Intercept
	for i, x := range features {
		y += lr.Coefficients[i] * x
	}
	return y
}

func (lr *linearRegressor) Name() string { return regressorLinear }

// forestRegressor averages the outputs of independent regression trees.
type forestRegressor struct {
	Type  string           `mapstructure:"type"`
	Trees []regressionTree `mapstructure:"trees"`
}

func (fr *forestRegressor) validate(width int) error {
	if len(fr.Trees) == 0 {
		return errors.New("forest regressor has no trees")
	}
	for i := range fr.Trees {
		if err := fr.Trees[i].validate(width); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (fr *forestRegressor) Predict(features []float64) float64 {
	sum := 0.0
	for i := range fr.Trees {
		sum += fr.Trees[i].Predict(features)
	}
	return sum / float64(len(fr.Trees))
}

func (fr *forestRegressor) Name() string { return regressorForest }

// regressionTree is a flattened binary tree. The root is node 0 and children
// always come after their parent, so traversal terminates.
type regressionTree struct {
	Nodes []TreeNode `mapstructure:"nodes"`
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx" mapstructure:"feature_idx"`
	Threshold  float64 `json:"threshold" mapstructure:"threshold"`
	LeftChild  int     `json:"left_child" mapstructure:"left_child"`
	RightChild int     `json:"right_child" mapstructure:"right_child"`
	Value      float64 `json:"value" mapstructure:"value"`
	IsLeaf     bool    `json:"is_leaf" mapstructure:"is_leaf"`
}

func (t *regressionTree) validate(width int) error {
	if len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range t.Nodes {
		if node.IsLeaf {
			if !finite(node.Value) {
				return fmt.Errorf("leaf %d value is not finite", i)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= width {
			return fmt.Errorf("node %d: feature index %d out of range [0,%d)", i, node.FeatureIdx, width)
		}
		if !finite(node.Threshold) {
			return fmt.Errorf("node %d: threshold is not finite", i)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("node %d: invalid child index %d", i, child)
			}
		}
	}
	return nil
}

func (t *regressionTree) Predict(features []float64) float64 {
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Value
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
