package estimator

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/salary-predictor/internal/catalog"
	"github.com/spigell/salary-predictor/internal/insight"
	"github.com/spigell/salary-predictor/internal/model"
	"github.com/spigell/salary-predictor/internal/record"
)

const (
	modelFixture   = "../../testdata/salary_predictor_model.json"
	datasetFixture = "../../testdata/salary_data_cleaned.csv"
)

type stubInsight struct {
	text  string
	err   error
	calls atomic.Int32
	raw   record.Attributes
}

func (s *stubInsight) Generate(_ context.Context, rec record.Attributes, _ float64) (string, error) {
	s.calls.Add(1)
	s.raw = rec
	return s.text, s.err
}

func scenarioA() record.Attributes {
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

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load(datasetFixture, catalog.DefaultRules(), zap.NewNop())
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	return cat
}

func TestEstimateScenarioA(t *testing.T) {
	est := New(model.NewResource(modelFixture), loadCatalog(t))

	got, err := est.Estimate(context.Background(), scenarioA(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Salary != 147.5 {
		t.Fatalf("expected 147.5, got %v", got.Salary)
	}
	if got.Normalized != scenarioA() {
		t.Fatalf("known values must not change: %+v", got.Normalized)
	}
	if got.Insight != "" || got.InsightErr != nil {
		t.Fatalf("insight was not requested: %+v", got)
	}

	again, err := est.Estimate(context.Background(), scenarioA(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Salary != got.Salary {
		t.Fatalf("expected identical results, got %v and %v", got.Salary, again.Salary)
	}
}

func TestEstimateScenarioBUnknownTitleBecomesOther(t *testing.T) {
	est := New(model.NewResource(modelFixture), loadCatalog(t))

	for _, title := range []string{"Underwater Basket Weaver", "Senior Data Analyst", "  Director of Data "} {
		raw := scenarioA()
		raw.JobTitle = title

		got, err := est.Estimate(context.Background(), raw, false)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", title, err)
		}
		if got.Normalized.JobTitle != catalog.Other {
			t.Fatalf("%q: expected Other, got %q", title, got.Normalized.JobTitle)
		}
		// Data Scientist adds 15 over Other in the fixture.
		if got.Salary != 132.5 {
			t.Fatalf("%q: expected 132.5, got %v", title, got.Salary)
		}
	}
}

func TestEstimateScenarioCMissingArtifact(t *testing.T) {
	est := New(model.NewResource(filepath.Join(t.TempDir(), "absent.json")), loadCatalog(t))

	if err := est.Warmup(context.Background()); !errors.Is(err, model.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound on warmup, got %v", err)
	}

	got, err := est.Estimate(context.Background(), scenarioA(), false)
	if !errors.Is(err, model.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
	if got != nil {
		t.Fatalf("a failed prediction must not return a result: %+v", got)
	}
}

func TestEstimateScenarioDMissingDataset(t *testing.T) {
	cat, err := catalog.Load(filepath.Join(t.TempDir(), "absent.csv"), catalog.DefaultRules(), zap.NewNop())
	if !errors.Is(err, catalog.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}

	est := New(model.NewResource(modelFixture), cat)

	got, err := est.Estimate(context.Background(), scenarioA(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Salary != 147.5 {
		t.Fatalf("expected 147.5, got %v", got.Salary)
	}

	raw := scenarioA()
	raw.JobTitle = "Underwater Basket Weaver"
	_, err = est.Estimate(context.Background(), raw, false)
	if !errors.Is(err, model.ErrSchemaMismatch) {
		t.Fatalf("expected unnormalized raw value to reach the model, got %v", err)
	}
}

func TestEstimateNilCatalogPassesThrough(t *testing.T) {
	est := New(model.NewResource(modelFixture), nil)

	if !est.Catalog().IsEmpty() {
		t.Fatalf("expected empty catalog")
	}
	if _, err := est.Estimate(context.Background(), scenarioA(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEstimateRejectsInvalidAttributes(t *testing.T) {
	var loads atomic.Int32
	res := model.NewResource(modelFixture, model.WithLoader(func(path string) (*model.Pipeline, error) {
		loads.Add(1)
		return model.Load(path)
	}))
	est := New(res, loadCatalog(t))

	raw := scenarioA()
	raw.Rating = 7
	raw.Location = "   "

	_, err := est.Estimate(context.Background(), raw, false)
	if !errors.Is(err, record.ErrInvalidAttributes) {
		t.Fatalf("expected ErrInvalidAttributes, got %v", err)
	}
	if loads.Load() != 0 {
		t.Fatalf("invalid input must be rejected before the model loads")
	}
}

func TestEstimateWithInsight(t *testing.T) {
	stub := &stubInsight{text: "Python pays."}
	est := New(model.NewResource(modelFixture), loadCatalog(t), WithInsight(stub))

	raw := scenarioA()
	raw.JobTitle = "Underwater Basket Weaver"

	got, err := est.Estimate(context.Background(), raw, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Insight != "Python pays." || got.InsightErr != nil {
		t.Fatalf("unexpected insight: %+v", got)
	}
	if stub.raw.JobTitle != "Underwater Basket Weaver" {
		t.Fatalf("insight must see the raw attributes, got %q", stub.raw.JobTitle)
	}

	if _, err := est.Estimate(context.Background(), raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.calls.Load() != 1 {
		t.Fatalf("insight must only run when requested, ran %d times", stub.calls.Load())
	}
}

func TestEstimateInsightFailureKeepsSalary(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	stub := &stubInsight{err: errors.New("backend down")}
	est := New(model.NewResource(modelFixture), loadCatalog(t), WithInsight(stub), WithLogger(zap.New(core)))

	got, err := est.Estimate(context.Background(), scenarioA(), true)
	if err != nil {
		t.Fatalf("insight failure must not fail the estimate: %v", err)
	}
	if got.Salary != 147.5 {
		t.Fatalf("expected 147.5, got %v", got.Salary)
	}
	if !errors.Is(got.InsightErr, insight.ErrInsightGenerationFailed) {
		t.Fatalf("expected ErrInsightGenerationFailed, got %v", got.InsightErr)
	}
	if !strings.HasPrefix(got.Insight, "Could not generate insights: ") || !strings.Contains(got.Insight, "backend down") {
		t.Fatalf("unexpected fallback text: %q", got.Insight)
	}
	if logs.FilterMessage("generating insight").Len() != 1 {
		t.Fatalf("expected insight failure to be logged")
	}
}
