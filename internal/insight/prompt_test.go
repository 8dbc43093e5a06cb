package insight

import (
	"strings"
	"testing"

	"github.com/spigell/salary-predictor/internal/record"
)

func sampleAttributes() record.Attributes {
	return record.Attributes{
		Rating:    3.5,
		Age:       30,
		MinSalary: 50,
		MaxSalary: 90,
		Python:    true,
		Excel:     true,
		JobTitle:  "Data Scientist",
		Location:  "New York, NY",
		Ownership: "Company - Private",
		Industry:  "IT Services",
		Sector:    "Information Technology",
		JobState:  "CA",
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt(sampleAttributes(), 147.5)

	for _, want := range []string{
		"- Rating: 3.5",
		"- Age: 30",
		"- Python Yn: 1",
		"- R Yn: 0",
		"- Job Title: Data Scientist",
		"- Type Of Ownership: Company - Private",
		"- Job State: CA",
		"- Min Expected Salary: $50K",
		"- Max Expected Salary: $90K",
		"- Skills: Python=1, R=0, Spark=0, AWS=0, Excel=1",
		"Predicted Average Salary: $147.50K",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, prompt)
		}
	}

	for _, unwanted := range []string{"- Min Salary:", "- Max Salary:", "{{"} {
		if strings.Contains(prompt, unwanted) {
			t.Fatalf("unexpected %q in prompt:\n%s", unwanted, prompt)
		}
	}
}

func TestFormatSalary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "$0.00K"},
		{in: 147.5, want: "$147.50K"},
		{in: 1234.567, want: "$1,234.57K"},
	}

	for _, tt := range tests {
		if got := FormatSalary(tt.in); got != tt.want {
			t.Fatalf("FormatSalary(%v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestLabel(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"employer_provided": "Employer Provided",
		"Type of ownership": "Type Of Ownership",
		"R_yn":              "R Yn",
	}

	for in, want := range tests {
		if got := Label(in); got != want {
			t.Fatalf("Label(%q): expected %q, got %q", in, want, got)
		}
	}
}
