package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/salary-predictor/internal/catalog"
	"github.com/spigell/salary-predictor/internal/insight"
	"github.com/spigell/salary-predictor/internal/insight/gemini"
	"github.com/spigell/salary-predictor/internal/logger"
	"github.com/spigell/salary-predictor/internal/server"
)

const (
	app = "salary-predictor"
)

type Config struct {
	Model   ModelConfig    `mapstructure:"model"`
	Catalog CatalogConfig  `mapstructure:"catalog"`
	Insight InsightConfig  `mapstructure:"insight"`
	Server  server.Config  `mapstructure:"server"`
	Log     logger.Options `mapstructure:"log"`
}

type ModelConfig struct {
	Path string `mapstructure:"path"`
}

type CatalogConfig struct {
	Path   string               `mapstructure:"path"`
	Rarity []catalog.RarityRule `mapstructure:"rarity"`
}

type InsightConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	insight.Options `mapstructure:",squash"`
	Gemini          gemini.Config `mapstructure:"gemini"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "salary-predictor estimates an average salary from job attributes with a fitted model",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"model.path":                  "SALARY_MODEL_PATH",
		"catalog.path":                "SALARY_DATA_PATH",
		"insight.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("model.path", "salary_predictor_model.json")
	viper.SetDefault("catalog.path", "salary_data_cleaned.csv")
	viper.SetDefault("insight.enabled", false)
	viper.SetDefault("insight.timeout", insight.DefaultTimeout)
	viper.SetDefault("insight.rate-limit-rps", 1.0)
	viper.SetDefault("insight.cache-size", insight.DefaultCacheSize)
	viper.SetDefault("insight.gemini.model", gemini.DefaultModel)
	viper.SetDefault("insight.gemini.max-retries", 2)
	viper.SetDefault("server.listen", ":8080")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is salary-predictor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("model", "", "path to the fitted model artifact")
	rootCmd.PersistentFlags().String("data", "", "path to the reference dataset used for options")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("model.path", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("catalog.path", rootCmd.PersistentFlags().Lookup("data"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless given explicitly, but it must parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Log.JSON = viper.GetBool("json")
	config.Log.Debug = viper.GetBool("debug")

	if len(config.Catalog.Rarity) == 0 {
		config.Catalog.Rarity = catalog.DefaultRules()
	}

	return config, nil
}
