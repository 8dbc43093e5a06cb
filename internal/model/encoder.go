package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spigell/salary-predictor/internal/record"
)

const (
	handleUnknownError  = "error"
	handleUnknownIgnore = "ignore"
)

// encoder turns a named row into the dense vector the regressor was fitted on.
// Numeric features take one column; categorical features take a one-hot block.
type encoder struct {
	features      []Feature
	offsets       []int
	categories    map[string]map[string]int
	ignoreUnknown bool
	width         int
}

func newEncoder(features []Feature, spec EncoderSpec) (*encoder, error) {
	if len(features) == 0 {
		return nil, errors.New("artifact declares no features")
	}

	enc := &encoder{
		features:   append([]Feature(nil), features...),
		offsets:    make([]int, len(features)),
		categories: make(map[string]map[string]int),
	}

	switch strings.ToLower(strings.TrimSpace(spec.HandleUnknown)) {
	case "", handleUnknownError:
	case handleUnknownIgnore:
		enc.ignoreUnknown = true
	default:
		return nil, fmt.Errorf("unsupported handle_unknown %q", spec.HandleUnknown)
	}

	seen := make(map[string]struct{}, len(features))
	for i, f := range features {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("feature %d has no name", i)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("feature %q declared twice", f.Name)
		}
		seen[f.Name] = struct{}{}

		enc.offsets[i] = enc.width

		switch f.Kind {
		case record.KindNumeric:
			enc.width++
		case record.KindCategorical:
			values := spec.Categories[f.Name]
			if len(values) == 0 {
				return nil, fmt.Errorf("categorical feature %q has no categories", f.Name)
			}
			index := make(map[string]int, len(values))
			for j, v := range values {
				if _, dup := index[v]; dup {
					return nil, fmt.Errorf("categorical feature %q lists %q twice", f.Name, v)
				}
				index[v] = j
			}
			enc.categories[f.Name] = index
			enc.width += len(values)
		default:
			return nil, fmt.Errorf("feature %q has unsupported kind %q", f.Name, f.Kind)
		}
	}

	for name := range spec.Categories {
		if _, ok := enc.categories[name]; !ok {
			return nil, fmt.Errorf("categories given for unknown or numeric feature %q", name)
		}
	}

	return enc, nil
}

// encode validates row against the trained schema and returns the feature vector.
func (e *encoder) encode(row record.Row) ([]float64, error) {
	byName := make(map[string]record.Value, len(row))
	var problems []string

	for _, v := range row {
		if _, dup := byName[v.Name]; dup {
			problems = append(problems, fmt.Sprintf("field %q given twice", v.Name))
			continue
		}
		byName[v.Name] = v
	}

	vector := make([]float64, e.width)
	for i, f := range e.features {
		v, ok := byName[f.Name]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing field %q", f.Name))
			continue
		}
		delete(byName, f.Name)

		if v.Kind != f.Kind {
			problems = append(problems, fmt.Sprintf("field %q: expected %s, got %s", f.Name, f.Kind, v.Kind))
			continue
		}

		switch f.Kind {
		case record.KindNumeric:
			if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
				problems = append(problems, fmt.Sprintf("field %q: non-finite value", f.Name))
				continue
			}
			vector[e.offsets[i]] = v.Number
		case record.KindCategorical:
			j, known := e.categories[f.Name][v.Text]
			if !known {
				if !e.ignoreUnknown {
					problems = append(problems, fmt.Sprintf("field %q: unknown category %q", f.Name, v.Text))
				}
				continue
			}
			vector[e.offsets[i]+j] = 1
		}
	}

	if len(byName) > 0 {
		extra := make([]string, 0, len(byName))
		for name := range byName {
			extra = append(extra, name)
		}
		sort.Strings(extra)
		for _, name := range extra {
			problems = append(problems, fmt.Sprintf("unexpected field %q", name))
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(problems, "; "))
	}

	return vector, nil
}

// known reports whether value is a trained category of the named feature.
func (e *encoder) known(feature, value string) bool {
	_, ok := e.categories[feature][value]
	return ok
}
