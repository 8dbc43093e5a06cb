package insight

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/spigell/salary-predictor/internal/record"
)

//go:embed prompt.md
var promptTemplate string

var printer = message.NewPrinter(language.English)

// skillOrder fixes the order of the skills line.
var skillOrder = []struct {
	label  string
	column string
}{
	{"Python", record.ColumnPython},
	{"R", record.ColumnR},
	{"Spark", record.ColumnSpark},
	{"AWS", record.ColumnAWS},
	{"Excel", record.ColumnExcel},
}

// BuildPrompt renders the advisory prompt for the raw attributes and the prediction.
func BuildPrompt(rec record.Attributes, salary float64) string {
	row := rec.Row()

	details := make([]string, 0, len(row))
	for _, v := range row {
		if v.Name == record.ColumnMinSalary || v.Name == record.ColumnMaxSalary {
			continue
		}
		details = append(details, fmt.Sprintf("- %s: %s", Label(v.Name), formatValue(v)))
	}

	skills := make([]string, 0, len(skillOrder))
	for _, s := range skillOrder {
		v, _ := row.Lookup(s.column)
		skills = append(skills, s.label+"="+formatValue(v))
	}

	prompt := strings.NewReplacer(
		"{{JOB_DETAILS}}", strings.Join(details, "\n"),
		"{{MIN_SALARY}}", strconv.Itoa(rec.MinSalary),
		"{{MAX_SALARY}}", strconv.Itoa(rec.MaxSalary),
		"{{SKILLS}}", strings.Join(skills, ", "),
		"{{PREDICTED_SALARY}}", FormatSalary(salary),
	).Replace(promptTemplate)

	return strings.TrimSpace(prompt)
}

// Label turns a column name into a human label: "job_state" becomes "Job State".
func Label(column string) string {
	// Casers keep state between calls, so each call gets its own.
	return cases.Title(language.English).String(strings.ReplaceAll(column, "_", " "))
}

// FormatSalary renders a salary in thousands, e.g. 1234.5 becomes "$1,234.50K".
func FormatSalary(salary float64) string {
	return printer.Sprintf("$%.2fK", salary)
}

func formatValue(v record.Value) string {
	if v.Kind == record.KindCategorical {
		return v.Text
	}
	return strconv.FormatFloat(v.Number, 'f', -1, 64)
}
