package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"retention-dgp/internal/dgp"
)

type Config struct {
	Generation Generation `yaml:"generation" envPrefix:"DGP_"`
	Params     dgp.Params `yaml:"params" envPrefix:"DGP_PARAM_"`
	Databases  Databases  `yaml:"databases" envPrefix:"DGP_"`
	Output     Output     `yaml:"output" envPrefix:"DGP_"`
}

type Generation struct {
	Seed          int64 `yaml:"seed" env:"SEED"`
	NUsers        int   `yaml:"n_users" env:"N_USERS"`
	NWeeks        int   `yaml:"n_weeks" env:"N_WEEKS"`
	T0Week        int   `yaml:"t0_week" env:"T0_WEEK"`
	RetentionWeek int   `yaml:"retention_week" env:"RETENTION_WEEK"`
}

type Databases struct {
	Postgres string `yaml:"postgres" env:"POSTGRES_DSN"`
	MySQL    string `yaml:"mysql" env:"MYSQL_DSN"`
	Mongo    string `yaml:"mongo" env:"MONGO_DSN"`
	SQLite   string `yaml:"sqlite" env:"SQLITE_DSN"`
}

// Output controls where a generated dataset goes. Sinks name database drivers
// whose DSN is taken from Databases.
type Output struct {
	Parquet bool     `yaml:"parquet" env:"PARQUET"`
	Dir     string   `yaml:"dir" env:"OUTPUT_DIR"`
	Sinks   []string `yaml:"sinks" env:"SINKS" envSeparator:","`
	Reset   bool     `yaml:"reset" env:"RESET"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	opts := dgp.DefaultOptions()
	return &Config{
		Generation: Generation{
			Seed:          opts.Seed,
			NUsers:        opts.NUsers,
			NWeeks:        opts.NWeeks,
			T0Week:        opts.T0Week,
			RetentionWeek: opts.RetentionWeek,
		},
		Params: opts.Params,
		Databases: Databases{
			SQLite: "file:dgp.db",
		},
	}
}

// LoadConfig reads a YAML file over the defaults, so a file only needs the
// fields it changes. Environment variables are applied afterwards.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		err = yaml.Unmarshal(file, config)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overrides fields whose DGP_ variable is set. Unset variables leave
// the current value alone.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// DSN returns the configured connection string for a sink name.
func (c *Config) DSN(sink string) (string, error) {
	var dsn string
	switch sink {
	case "postgres":
		dsn = c.Databases.Postgres
	case "mysql":
		dsn = c.Databases.MySQL
	case "mongo":
		dsn = c.Databases.Mongo
	case "sqlite":
		dsn = c.Databases.SQLite
	default:
		return "", fmt.Errorf("unsupported sink: %s", sink)
	}
	if dsn == "" {
		return "", fmt.Errorf("no DSN configured for sink %s", sink)
	}
	return dsn, nil
}

// Options converts the generation settings into generator options.
func (c *Config) Options() dgp.Options {
	return dgp.Options{
		Seed:          c.Generation.Seed,
		NUsers:        c.Generation.NUsers,
		NWeeks:        c.Generation.NWeeks,
		T0Week:        c.Generation.T0Week,
		RetentionWeek: c.Generation.RetentionWeek,
		Params:        c.Params,
	}
}
