package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/spigell/salary-predictor/internal/catalog"
	"github.com/spigell/salary-predictor/internal/insight"
	"github.com/spigell/salary-predictor/internal/record"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

// fillForm asks for every attribute, offering current values as defaults.
// Categorical fields are chosen from the catalog when it has options.
func fillForm(a record.Attributes, cat *catalog.Catalog) (record.Attributes, error) {
	var err error

	if a.Rating, err = askFloat("Company Rating (Glassdoor)", a.Rating, 1, 5); err != nil {
		return a, err
	}
	if a.Age, err = askInt("Employee Age (Years)", a.Age, 18, 70); err != nil {
		return a, err
	}
	if a.MinSalary, err = askInt("Minimum Expected Salary (K USD)", a.MinSalary, 0, -1); err != nil {
		return a, err
	}
	if a.MaxSalary, err = askInt("Maximum Expected Salary (K USD)", a.MaxSalary, 0, -1); err != nil {
		return a, err
	}

	flags := []struct {
		label string
		value *bool
	}{
		{"Hourly Wage Job?", &a.Hourly},
		{"Employer Provided Salary?", &a.EmployerProvided},
		{"Job in Same State as Headquarters?", &a.SameState},
		{"Requires Python?", &a.Python},
		{"Requires R?", &a.R},
		{"Requires Spark?", &a.Spark},
		{"Requires AWS?", &a.AWS},
		{"Requires Excel?", &a.Excel},
	}
	for _, f := range flags {
		if *f.value, err = askBool(f.label, *f.value); err != nil {
			return a, err
		}
	}

	values := a.Categorical()
	for _, column := range record.CategoricalColumns() {
		chosen, err := askCategory(insight.Label(column), values[column], cat.Options(column))
		if err != nil {
			return a, err
		}
		a = a.WithCategorical(column, chosen)
	}

	return a, nil
}

func askFloat(label string, def, lo, hi float64) (float64, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: strconv.FormatFloat(def, 'f', -1, 64),
		Validate: func(s string) error {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return errors.New("enter a number")
			}
			if v < lo || v > hi {
				return fmt.Errorf("must be between %g and %g", lo, hi)
			}
			return nil
		},
	}

	out, err := prompt.Run()
	if err != nil {
		return def, err
	}
	return strconv.ParseFloat(strings.TrimSpace(out), 64)
}

// askInt asks for an integer in [lo, hi]; a negative hi means unbounded.
func askInt(label string, def, lo, hi int) (int, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: strconv.Itoa(def),
		Validate: func(s string) error {
			v, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return errors.New("enter a whole number")
			}
			if v < lo || (hi >= 0 && v > hi) {
				return errors.New("out of range")
			}
			return nil
		},
	}

	out, err := prompt.Run()
	if err != nil {
		return def, err
	}
	return strconv.Atoi(strings.TrimSpace(out))
}

func askBool(label string, def bool) (bool, error) {
	cursor := 1
	if def {
		cursor = 0
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     []string{PromptYes, PromptNo},
		CursorPos: cursor,
	}

	_, choice, err := prompt.Run()
	if err != nil {
		return def, err
	}
	return choice == PromptYes, nil
}

// askCategory selects from options, or falls back to free text when the catalog has none.
func askCategory(label, def string, options []string) (string, error) {
	if len(options) == 0 {
		prompt := promptui.Prompt{Label: label, Default: def}
		return prompt.Run()
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     options,
		CursorPos: max(slices.Index(options, def), 0),
		Size:      10,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(options[index]), strings.ToLower(input))
		},
	}

	_, choice, err := prompt.Run()
	if err != nil {
		return def, err
	}
	return choice, nil
}
