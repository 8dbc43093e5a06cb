package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/record"
)

// Other is the sentinel every unrecognised or rare category collapses into.
const Other = "Other"

// DefaultJobTitleMinCount is the rare-category threshold used when the model was fitted.
const DefaultJobTitleMinCount = 10

// ErrCatalogUnavailable is returned when the reference dataset cannot be read.
// The catalog returned alongside it is empty but usable.
var ErrCatalogUnavailable = errors.New("option catalog unavailable")

// RarityRule collapses values of Field seen fewer than MinCount times into Other.
type RarityRule struct {
	Field    string `mapstructure:"field"`
	MinCount int    `mapstructure:"min-count"`
}

// DefaultRules returns the rarity rules matching the fitted artifact.
// Only the job title is collapsed.
func DefaultRules() []RarityRule {
	return []RarityRule{{Field: record.ColumnJobTitle, MinCount: DefaultJobTitleMinCount}}
}

// Catalog holds per categorical column the vocabulary the pipeline was trained on.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	fields map[string]*entry
	rules  map[string]int
}

type entry struct {
	options []string
	members map[string]struct{}
	counts  map[string]int
}

// Empty returns a catalog without vocabularies. Normalize passes every value through.
func Empty(rules []RarityRule) *Catalog {
	c := &Catalog{
		fields: make(map[string]*entry),
		rules:  indexRules(rules),
	}
	for _, column := range record.CategoricalColumns() {
		c.fields[column] = &entry{members: map[string]struct{}{}, counts: map[string]int{}}
	}
	return c
}

// Load reads the reference dataset at path. A missing or malformed file
// degrades to an empty catalog together with an error wrapping ErrCatalogUnavailable.
func Load(path string, rules []RarityRule, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return Empty(rules), fmt.Errorf("%w: reference dataset path is not configured", ErrCatalogUnavailable)
	}

	file, err := os.Open(path)
	if err != nil {
		return Empty(rules), fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	defer file.Close()

	c, err := Build(file, rules)
	if err != nil {
		return Empty(rules), fmt.Errorf("%w: %s: %w", ErrCatalogUnavailable, path, err)
	}

	for _, column := range record.CategoricalColumns() {
		logger.Debug("catalog field loaded",
			zap.String("field", column),
			zap.Int("options", len(c.Options(column))),
		)
	}

	return c, nil
}

// Build enumerates categorical vocabularies from a CSV reference dataset with a header row.
// Columns absent from the header get an empty vocabulary.
func Build(r io.Reader, rules []RarityRule) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if _, seen := index[col]; !seen {
			index[col] = i
		}
	}

	counts := make(map[string]map[string]int)
	for _, column := range record.CategoricalColumns() {
		counts[column] = make(map[string]int)
	}

	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		for column, values := range counts {
			idx, ok := index[column]
			if !ok || idx >= len(rec) {
				continue
			}
			// Counted verbatim, as the encoder was fitted on untrimmed values.
			value := rec[idx]
			if strings.TrimSpace(value) == "" {
				continue
			}
			values[value]++
		}
	}

	c := Empty(rules)
	for column, values := range counts {
		if _, ok := index[column]; !ok {
			continue
		}
		c.fields[column] = c.newEntry(column, values)
	}

	return c, nil
}

func (c *Catalog) newEntry(column string, counts map[string]int) *entry {
	e := &entry{
		members: make(map[string]struct{}, len(counts)),
		counts:  counts,
	}

	minCount, collapse := c.rules[column]
	for value, n := range counts {
		if collapse && n < minCount {
			continue
		}
		e.members[value] = struct{}{}
	}

	if len(counts) > 0 && collapse {
		e.members[Other] = struct{}{}
	}

	for value := range e.members {
		if collapse && value == Other {
			continue
		}
		e.options = append(e.options, value)
	}
	sort.Strings(e.options)

	if len(counts) > 0 && collapse {
		e.options = append([]string{Other}, e.options...)
	}

	return e
}

// Normalize maps value onto the trained vocabulary of field.
// Members are returned unchanged and everything else becomes Other.
// Without a vocabulary for field the value passes through untouched.
func (c *Catalog) Normalize(field, value string) string {
	if c == nil {
		return value
	}

	e, ok := c.fields[field]
	if !ok || len(e.members) == 0 {
		return value
	}

	if _, ok := e.members[value]; ok {
		return value
	}

	return Other
}

// NormalizeRecord normalizes every categorical field of rec.
func (c *Catalog) NormalizeRecord(rec record.Attributes) record.Attributes {
	for column, value := range rec.Categorical() {
		rec = rec.WithCategorical(column, c.Normalize(column, value))
	}
	return rec
}

// Options returns the selectable values for field in presentation order.
func (c *Catalog) Options(field string) []string {
	if c == nil {
		return nil
	}
	e, ok := c.fields[field]
	if !ok {
		return nil
	}
	return append([]string(nil), e.options...)
}

// Count returns how many times value occurred for field in the reference dataset.
func (c *Catalog) Count(field, value string) int {
	if c == nil {
		return 0
	}
	e, ok := c.fields[field]
	if !ok {
		return 0
	}
	return e.counts[value]
}

// Fields returns the categorical columns known to the catalog.
func (c *Catalog) Fields() []string {
	return record.CategoricalColumns()
}

// IsEmpty reports whether no field has a vocabulary.
func (c *Catalog) IsEmpty() bool {
	if c == nil {
		return true
	}
	for _, e := range c.fields {
		if len(e.members) > 0 {
			return false
		}
	}
	return true
}

// Rule returns the rarity threshold applied to field, if any.
func (c *Catalog) Rule(field string) (int, bool) {
	if c == nil {
		return 0, false
	}
	n, ok := c.rules[field]
	return n, ok
}

func indexRules(rules []RarityRule) map[string]int {
	index := make(map[string]int, len(rules))
	for _, rule := range rules {
		field := strings.TrimSpace(rule.Field)
		if field == "" || rule.MinCount <= 0 {
			continue
		}
		index[field] = rule.MinCount
	}
	return index
}
