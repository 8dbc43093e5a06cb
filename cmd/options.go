package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/catalog"
	"github.com/spigell/salary-predictor/internal/logger"
	"github.com/spigell/salary-predictor/internal/record"
)

var optionsCmd = &cobra.Command{
	Use:   "options [field]",
	Short: "Print the selectable values of the categorical fields",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		options(args)
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}

func options(args []string) {
	config, err := getConfig()
	if err != nil {
		newLogger(nil).Fatal("getting a config", zap.Error(err))
	}

	l := newLogger(config)
	defer logger.Sync(l)

	cat, err := catalog.Load(config.Catalog.Path, config.Catalog.Rarity, l)
	if err != nil {
		l.Warn("option catalog unavailable", zap.String("path", config.Catalog.Path), zap.Error(err))
	}

	fields := record.CategoricalColumns()
	if len(args) == 1 {
		if !slices.Contains(fields, args[0]) {
			l.Fatal("unknown categorical field",
				zap.String("field", args[0]),
				zap.Strings("fields", fields),
			)
		}
		fields = args[:1]
	}

	fmt.Print(renderOptions(cat, fields))
}

func renderOptions(cat *catalog.Catalog, fields []string) string {
	var b strings.Builder
	for _, field := range fields {
		b.WriteString(field)
		if minCount, ok := cat.Rule(field); ok {
			fmt.Fprintf(&b, " (values seen fewer than %d times are listed as %s)", minCount, catalog.Other)
		}
		b.WriteString(":\n")

		opts := cat.Options(field)
		if len(opts) == 0 {
			b.WriteString("  (no options, values pass through unchanged)\n")
			continue
		}
		for _, o := range opts {
			fmt.Fprintf(&b, "  - %s\n", o)
		}
	}
	return b.String()
}
