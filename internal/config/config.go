// Package config loads the YAML configuration file describing a
// sqlmongo deployment's field-type map and render options, in the same
// shape and loading convention cert-lv-graphoscope's config.go follows:
// search a default filename, allow a CONFIG environment variable
// override, unmarshal with gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sqlmongo-engine/sqlmongo/engine/models"
)

// Config is the top-level shape of the sqlmongo YAML configuration file.
type Config struct {
	Environment string `yaml:"environment"`

	Log struct {
		File       string `yaml:"file"`
		MaxSize    int    `yaml:"maxSize"`
		MaxBackups int    `yaml:"maxBackups"`
		MaxAge     int    `yaml:"maxAge"`
		Level      string `yaml:"level"`
	} `yaml:"log"`

	// FieldTypes maps dotted column names (without a collection prefix) to the
	// FieldType the Value Coercer should treat them as; Default
	// falls back for every column not listed explicitly.
	FieldTypes struct {
		Default string            `yaml:"default"`
		Columns map[string]string `yaml:"columns"`
	} `yaml:"fieldTypes"`

	Render struct {
		AggregationAllowDiskUse bool  `yaml:"aggregationAllowDiskUse"`
		AggregationBatchSize    int32 `yaml:"aggregationBatchSize"`
		StrictNumberLong        bool  `yaml:"strictNumberLong"`
	} `yaml:"render"`
}

// Load reads and parses path, or the file named by the CONFIG
// environment variable when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "sqlmongo.yaml"
		if env := os.Getenv("CONFIG"); env != "" {
			path = env
		}
	}

	buffer, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration file '%s': %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(buffer, cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration YAML file '%s': %w", path, err)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.FieldTypes.Default == "" {
		cfg.FieldTypes.Default = "string"
	}
	return cfg, nil
}

// FieldTypeMap builds the engine/models.FieldTypeMap the lowering core's
// Value Coercer dispatches on from this config's FieldTypes section.
func (c *Config) FieldTypeMap() (models.FieldTypeMap, error) {
	def, err := parseFieldType(c.FieldTypes.Default)
	if err != nil {
		return models.FieldTypeMap{}, err
	}

	types := make(map[string]models.FieldType, len(c.FieldTypes.Columns))
	for column, raw := range c.FieldTypes.Columns {
		ft, err := parseFieldType(raw)
		if err != nil {
			return models.FieldTypeMap{}, fmt.Errorf("column %q: %w", column, err)
		}
		types[column] = ft
	}

	return models.FieldTypeMap{Types: types, Default: def}, nil
}

func parseFieldType(raw string) (models.FieldType, error) {
	switch raw {
	case "", "string":
		return models.FieldString, nil
	case "number":
		return models.FieldNumber, nil
	case "boolean":
		return models.FieldBoolean, nil
	case "date":
		return models.FieldDate, nil
	default:
		return "", fmt.Errorf("unknown field type %q", raw)
	}
}

// RenderOptions builds the engine/models.RenderOptions this config's
// Render section describes.
func (c *Config) RenderOptions() models.RenderOptions {
	opts := models.RenderOptions{
		AggregationAllowDiskUse: c.Render.AggregationAllowDiskUse,
		StrictNumberLong:        c.Render.StrictNumberLong,
	}
	if c.Render.AggregationBatchSize > 0 {
		size := c.Render.AggregationBatchSize
		opts.AggregationBatchSize = &size
	}
	return opts
}
