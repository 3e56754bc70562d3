package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/cv-screener/internal/api"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/screening"
)

const (
	app       = "cv-screener"
	envPrefix = "CV_SCREENER"
)

type Config struct {
	Provider  *ProviderConfig  `mapstructure:"provider"`
	Screening *ScreeningConfig `mapstructure:"screening"`
	Store     *StoreConfig     `mapstructure:"store"`
	Serve     *ServeConfig     `mapstructure:"serve"`
}

type ProviderConfig struct {
	Name            string        `mapstructure:"name"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxOutputTokens int           `mapstructure:"max-output-tokens"`
	Temperature     float64       `mapstructure:"temperature"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
	HTTP            *HTTPConfig   `mapstructure:"http"`
}

type GeminiConfig struct {
	Model      string `mapstructure:"model"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type HTTPConfig struct {
	URL        string `mapstructure:"url"`
	Model      string `mapstructure:"model"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type ScreeningConfig struct {
	Workers        int `mapstructure:"workers"`
	MaxInputLength int `mapstructure:"max-input-length"`
	MaxLogLength   int `mapstructure:"max-log-length"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type ServeConfig struct {
	Listen          string `mapstructure:"listen"`
	RateLimitPerMin int    `mapstructure:"rate-limit-per-min"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-screener screens resumes against job descriptions with a generative AI provider",
		// Failures after setup are returned so deferred cleanup still runs.
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.name", "gemini")
	v.SetDefault("provider.timeout", screening.DefaultTimeout)
	v.SetDefault("provider.max-output-tokens", screening.DefaultMaxOutputTokens)
	v.SetDefault("provider.temperature", screening.DefaultTemperature)
	v.SetDefault("provider.gemini.model", "gemini-2.5-flash")
	v.SetDefault("provider.gemini.api-key-file", "")
	v.SetDefault("provider.http.url", "")
	v.SetDefault("provider.http.model", "")
	v.SetDefault("provider.http.api-key-file", "")
	v.SetDefault("screening.workers", pipeline.DefaultWorkers)
	v.SetDefault("screening.max-input-length", screening.DefaultMaxInputRunes)
	v.SetDefault("screening.max-log-length", 200)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", app+".db")
	v.SetDefault("serve.listen", ":8080")
	v.SetDefault("serve.rate-limit-per-min", api.DefaultRateLimitPerMin)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config file is fine: defaults and env cover everything.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
