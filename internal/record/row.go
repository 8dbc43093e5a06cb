package record

import "fmt"

// Kind is the semantic type of a feature column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Value is a single named cell of a Row.
type Value struct {
	Name   string
	Kind   Kind
	Number float64
	Text   string
}

// Row is an ordered set of named feature values.
type Row []Value

func Numeric(name string, v float64) Value {
	return Value{Name: name, Kind: KindNumeric, Number: v}
}

// Flag encodes a boolean as the 0/1 numeric the model was fitted on.
func Flag(name string, v bool) Value {
	if v {
		return Numeric(name, 1)
	}
	return Numeric(name, 0)
}

func Categorical(name, v string) Value {
	return Value{Name: name, Kind: KindCategorical, Text: v}
}

// Lookup returns the value stored under name.
func (r Row) Lookup(name string) (Value, bool) {
	for _, v := range r {
		if v.Name == name {
			return v, true
		}
	}
	return Value{}, false
}

// Names returns the column names in row order.
func (r Row) Names() []string {
	names := make([]string, 0, len(r))
	for _, v := range r {
		names = append(names, v.Name)
	}
	return names
}

func (v Value) String() string {
	if v.Kind == KindCategorical {
		return fmt.Sprintf("%s=%q", v.Name, v.Text)
	}
	return fmt.Sprintf("%s=%g", v.Name, v.Number)
}
