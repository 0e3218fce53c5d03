// Package config holds the settings for fetching, storing and exporting
// results, loaded through viper from defaults, a config file, a .env file and
// UAFRESULT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendHTTP    = "http"
	BackendBrowser = "browser"

	envPrefix = "UAFRESULT"
	name      = "uafresult"
)

type Fetch struct {
	// URL is the result page the registration number is submitted to.
	URL string `mapstructure:"url" yaml:"url"`

	// Field is the form field holding the registration number.
	Field string `mapstructure:"field" yaml:"field"`

	// Backend selects plain HTTP form posting or a headless browser.
	Backend string `mapstructure:"backend" yaml:"backend"`

	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
	Headless  bool          `mapstructure:"headless" yaml:"headless"`

	// Rate caps requests per second against the result site.
	Rate float64 `mapstructure:"rate" yaml:"rate"`

	// Parallel is how many registration numbers are fetched at once.
	Parallel int `mapstructure:"parallel" yaml:"parallel"`
}

type Database struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type BigQuery struct {
	Project string `mapstructure:"project" yaml:"project"`
	Dataset string `mapstructure:"dataset" yaml:"dataset"`
	Topic   string `mapstructure:"topic" yaml:"topic"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type Config struct {
	Fetch    Fetch    `mapstructure:"fetch" yaml:"fetch"`
	Database Database `mapstructure:"database" yaml:"database"`
	BigQuery BigQuery `mapstructure:"bigquery" yaml:"bigquery"`
	Log      Log      `mapstructure:"log" yaml:"log"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("fetch.url", "http://lms.uaf.edu.pk/course/uaf_student_result.php")
	v.SetDefault("fetch.field", "regnum")
	v.SetDefault("fetch.backend", BackendHTTP)
	v.SetDefault("fetch.timeout", 60*time.Second)
	v.SetDefault("fetch.user_agent", "uafresult/1.0")
	v.SetDefault("fetch.headless", true)
	v.SetDefault("fetch.rate", 1.0)
	v.SetDefault("fetch.parallel", 2)

	dbPath := filepath.Join(".", name+".db")
	if userCacheDir, err := os.UserCacheDir(); err == nil {
		dbPath = filepath.Join(userCacheDir, name, name+".db")
	}
	v.SetDefault("database.path", dbPath)

	v.SetDefault("bigquery.project", "")
	v.SetDefault("bigquery.dataset", "uafresult")
	v.SetDefault("bigquery.topic", "result-computed")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Init wires defaults, the environment and the config file into v. A missing
// config file is not an error unless cfgFile names it explicitly.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if err := LoadDotEnv(".env"); err != nil {
		return err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		return nil
	}

	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", name))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// LoadDotEnv exports the variables in files that exist, without overriding
// anything already set in the environment.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("loading %s: %w", file, err)
		}
	}
	return nil
}

func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Fetch.Backend {
	case BackendHTTP, BackendBrowser:
	default:
		return fmt.Errorf("unknown fetch backend %q (want %s or %s)", c.Fetch.Backend, BackendHTTP, BackendBrowser)
	}
	if c.Fetch.URL == "" {
		return errors.New("fetch.url must be set")
	}
	if c.Fetch.Rate < 0 {
		return errors.New("fetch.rate must not be negative")
	}
	if c.Fetch.Parallel < 1 {
		return errors.New("fetch.parallel must be at least 1")
	}
	return nil
}
