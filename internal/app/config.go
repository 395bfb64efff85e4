package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	InputPath string // toml/json/hcl source file
	Schema    string // registered root schema name
	Format    string // "toml", "json", "hcl"; empty means infer from extension
	OutPath   string // output file; empty writes raw bytes to stdout
	Visualize bool

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.InputPath == "" {
		return nil, errors.New("InputPath is a required configuration field and cannot be empty")
	}
	if cfg.Schema == "" {
		return nil, errors.New("Schema is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
