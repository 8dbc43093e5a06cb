package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/insight"
	"github.com/spigell/salary-predictor/internal/logger"
	"github.com/spigell/salary-predictor/internal/record"
)

// flagAttributes holds the attributes given on the command line.
var flagAttributes record.Attributes

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Estimate the average salary for one set of job attributes",
	Run: func(cmd *cobra.Command, _ []string) {
		predict(cmd)
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	flags := predictCmd.Flags()
	flags.BoolP("interactive", "i", false, "fill the attributes in an interactive form")
	flags.String("input", "", "read the attributes from a JSON file keyed by column name")
	flags.Bool("insight", false, "ask the insight generator to explain the estimate")

	flags.Float64Var(&flagAttributes.Rating, "rating", 3.5, "company rating, 1 to 5")
	flags.IntVar(&flagAttributes.Age, "age", 30, "employee age, 18 to 70")
	flags.IntVar(&flagAttributes.MinSalary, "min-salary", 50, "minimum expected salary, thousands")
	flags.IntVar(&flagAttributes.MaxSalary, "max-salary", 90, "maximum expected salary, thousands")
	flags.BoolVar(&flagAttributes.Hourly, "hourly", false, "hourly wage job")
	flags.BoolVar(&flagAttributes.EmployerProvided, "employer-provided", false, "salary provided by the employer")
	flags.BoolVar(&flagAttributes.SameState, "same-state", false, "job in the same state as headquarters")
	flags.BoolVar(&flagAttributes.Python, "python", true, "requires Python")
	flags.BoolVar(&flagAttributes.R, "r", false, "requires R")
	flags.BoolVar(&flagAttributes.Spark, "spark", false, "requires Spark")
	flags.BoolVar(&flagAttributes.AWS, "aws", false, "requires AWS")
	flags.BoolVar(&flagAttributes.Excel, "excel", true, "requires Excel")
	flags.StringVar(&flagAttributes.JobTitle, "job-title", "Data Scientist", "job title")
	flags.StringVar(&flagAttributes.Location, "location", "New York, NY", "job location")
	flags.StringVar(&flagAttributes.Ownership, "ownership", "Company - Private", "type of ownership")
	flags.StringVar(&flagAttributes.Industry, "industry", "IT Services", "industry")
	flags.StringVar(&flagAttributes.Sector, "sector", "Information Technology", "sector")
	flags.StringVar(&flagAttributes.JobState, "job-state", "CA", "job-location state")
}

func predict(cmd *cobra.Command) {
	ctx := context.Background()
	flags := cmd.Flags()

	withInsight, _ := flags.GetBool("insight")

	svc, err := bootstrap(ctx, withInsight)
	if err != nil {
		l := newLogger(nil)
		if svc != nil {
			l = svc.logger
		}
		l.Fatal("loading the model", zap.Error(err))
	}
	defer logger.Sync(svc.logger)

	attrs := flagAttributes

	if path, _ := flags.GetString("input"); path != "" {
		attrs, err = attributesFromFile(path)
		if err != nil {
			svc.logger.Fatal("reading attributes", zap.String("input", path), zap.Error(err))
		}
	}

	if interactive, _ := flags.GetBool("interactive"); interactive {
		attrs, err = fillForm(attrs, svc.estimator.Catalog())
		if err != nil {
			svc.logger.Fatal("exiting", zap.Error(err))
		}
	}

	result, err := svc.estimator.Estimate(ctx, attrs, withInsight)
	if err != nil {
		svc.logger.Fatal("estimating salary", zap.Error(err))
	}

	if result.Normalized.JobTitle != attrs.Trimmed().JobTitle {
		svc.logger.Info("job title is rare or unknown, estimating as Other",
			zap.String("job_title", attrs.JobTitle),
		)
	}

	fmt.Printf("Estimated Average Salary: %s\n", insight.FormatSalary(result.Salary))

	if withInsight && result.Insight != "" {
		fmt.Printf("\nAI-Powered Insights\n%s\n", result.Insight)
	}
}

func attributesFromFile(path string) (record.Attributes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record.Attributes{}, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return record.Attributes{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	return record.FromMap(raw)
}
