package record

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Column names of the trained schema. They match the headers of the
// reference dataset and the feature names stored in the model artifact.
const (
	ColumnRating           = "Rating"
	ColumnAge              = "age"
	ColumnMinSalary        = "min_salary"
	ColumnMaxSalary        = "max_salary"
	ColumnHourly           = "hourly"
	ColumnEmployerProvided = "employer_provided"
	ColumnSameState        = "same_state"
	ColumnPython           = "python_yn"
	ColumnR                = "R_yn"
	ColumnSpark            = "spark"
	ColumnAWS              = "aws"
	ColumnExcel            = "excel"
	ColumnJobTitle         = "Job Title"
	ColumnLocation         = "Location"
	ColumnOwnership        = "Type of ownership"
	ColumnIndustry         = "Industry"
	ColumnSector           = "Sector"
	ColumnJobState         = "job_state"
)

// ErrInvalidAttributes is returned when raw attributes fail boundary validation.
var ErrInvalidAttributes = errors.New("invalid attributes")

// Attributes is one job-attribute tuple used to produce exactly one prediction.
type Attributes struct {
	Rating    float64 `json:"Rating" mapstructure:"Rating" validate:"gte=1,lte=5"`
	Age       int     `json:"age" mapstructure:"age" validate:"gte=18,lte=70"`
	MinSalary int     `json:"min_salary" mapstructure:"min_salary" validate:"gte=0"`
	MaxSalary int     `json:"max_salary" mapstructure:"max_salary" validate:"gte=0"`

	Hourly           bool `json:"hourly" mapstructure:"hourly"`
	EmployerProvided bool `json:"employer_provided" mapstructure:"employer_provided"`
	SameState        bool `json:"same_state" mapstructure:"same_state"`

	Python bool `json:"python_yn" mapstructure:"python_yn"`
	R      bool `json:"R_yn" mapstructure:"R_yn"`
	Spark  bool `json:"spark" mapstructure:"spark"`
	AWS    bool `json:"aws" mapstructure:"aws"`
	Excel  bool `json:"excel" mapstructure:"excel"`

	JobTitle  string `json:"Job Title" mapstructure:"Job Title" validate:"notblank"`
	Location  string `json:"Location" mapstructure:"Location" validate:"notblank"`
	Ownership string `json:"Type of ownership" mapstructure:"Type of ownership" validate:"notblank"`
	Industry  string `json:"Industry" mapstructure:"Industry" validate:"notblank"`
	Sector    string `json:"Sector" mapstructure:"Sector" validate:"notblank"`
	JobState  string `json:"job_state" mapstructure:"job_state" validate:"notblank"`
}

// CategoricalColumns lists the categorical columns in schema order.
func CategoricalColumns() []string {
	return []string{
		ColumnJobTitle,
		ColumnLocation,
		ColumnOwnership,
		ColumnIndustry,
		ColumnSector,
		ColumnJobState,
	}
}

// Columns lists every column of the record in schema order.
func Columns() []string {
	return []string{
		ColumnRating,
		ColumnAge,
		ColumnMinSalary,
		ColumnMaxSalary,
		ColumnHourly,
		ColumnEmployerProvided,
		ColumnSameState,
		ColumnPython,
		ColumnR,
		ColumnSpark,
		ColumnAWS,
		ColumnExcel,
		ColumnJobTitle,
		ColumnLocation,
		ColumnOwnership,
		ColumnIndustry,
		ColumnSector,
		ColumnJobState,
	}
}

// FromMap decodes a column-keyed map into Attributes.
// Every column must be present and non-null. Flags accept booleans as well as
// 0/1 and "true"/"false" strings. Integer columns reject fractional numbers.
func FromMap(raw map[string]any) (Attributes, error) {
	var attrs Attributes

	if missing := missingColumns(raw); len(missing) > 0 {
		return attrs, fmt.Errorf("%w: missing columns: %s", ErrInvalidAttributes, strings.Join(missing, ", "))
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &attrs,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ErrorUnset:       true,
		DecodeHook:       integralHook,
	})
	if err != nil {
		return attrs, fmt.Errorf("building decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return Attributes{}, fmt.Errorf("%w: %s", ErrInvalidAttributes, err)
	}

	return attrs, nil
}

// missingColumns lists absent or null columns in schema order.
func missingColumns(raw map[string]any) []string {
	var missing []string
	for _, column := range Columns() {
		if v, ok := raw[column]; !ok || v == nil {
			missing = append(missing, column)
		}
	}
	return missing
}

// integralHook stops float inputs from being truncated into integer fields.
func integralHook(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return data, nil
	}

	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
	default:
		return data, nil
	}

	v := reflect.ValueOf(data).Float()
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return nil, fmt.Errorf("expected an integer, got %v", v)
	}
	return data, nil
}

// Categorical returns the categorical fields keyed by column name.
func (a Attributes) Categorical() map[string]string {
	return map[string]string{
		ColumnJobTitle:  a.JobTitle,
		ColumnLocation:  a.Location,
		ColumnOwnership: a.Ownership,
		ColumnIndustry:  a.Industry,
		ColumnSector:    a.Sector,
		ColumnJobState:  a.JobState,
	}
}

// WithCategorical returns a copy of the record with the given categorical column replaced.
// Unknown columns leave the record unchanged.
func (a Attributes) WithCategorical(column, value string) Attributes {
	switch column {
	case ColumnJobTitle:
		a.JobTitle = value
	case ColumnLocation:
		a.Location = value
	case ColumnOwnership:
		a.Ownership = value
	case ColumnIndustry:
		a.Industry = value
	case ColumnSector:
		a.Sector = value
	case ColumnJobState:
		a.JobState = value
	}
	return a
}

// Trimmed returns a copy with surrounding whitespace removed from categorical values.
func (a Attributes) Trimmed() Attributes {
	for column, value := range a.Categorical() {
		a = a.WithCategorical(column, strings.TrimSpace(value))
	}
	return a
}

// Row returns the ordered named-feature row the fitted pipeline consumes.
func (a Attributes) Row() Row {
	return Row{
		Numeric(ColumnRating, a.Rating),
		Numeric(ColumnAge, float64(a.Age)),
		Numeric(ColumnMinSalary, float64(a.MinSalary)),
		Numeric(ColumnMaxSalary, float64(a.MaxSalary)),
		Flag(ColumnHourly, a.Hourly),
		Flag(ColumnEmployerProvided, a.EmployerProvided),
		Flag(ColumnSameState, a.SameState),
		Flag(ColumnPython, a.Python),
		Flag(ColumnR, a.R),
		Flag(ColumnSpark, a.Spark),
		Flag(ColumnAWS, a.AWS),
		Flag(ColumnExcel, a.Excel),
		Categorical(ColumnJobTitle, a.JobTitle),
		Categorical(ColumnLocation, a.Location),
		Categorical(ColumnOwnership, a.Ownership),
		Categorical(ColumnIndustry, a.Industry),
		Categorical(ColumnSector, a.Sector),
		Categorical(ColumnJobState, a.JobState),
	}
}

// Skills returns the skill flags keyed by their short display name.
func (a Attributes) Skills() map[string]bool {
	return map[string]bool{
		"Python": a.Python,
		"R":      a.R,
		"Spark":  a.Spark,
		"AWS":    a.AWS,
		"Excel":  a.Excel,
	}
}
