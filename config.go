package zod2jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reoring/zod2jsonschema/jsonschema"
)

// ConfigFileName is read from the working directory when no config file is named.
const ConfigFileName = "zod2jsonschema.yaml"

// Config is the YAML configuration file. Absent keys leave the option unchanged.
type Config struct {
	Output   *string  `yaml:"output"`
	Combined *bool    `yaml:"combined"`
	Target   *string  `yaml:"target"`
	Format   *bool    `yaml:"format"`
	Verbose  *bool    `yaml:"verbose"`
	Pattern  *string  `yaml:"pattern"`
	Exclude  []string `yaml:"exclude"`
	Check    *bool    `yaml:"check"`
}

// LoadConfigFile reads a YAML config. Unknown keys are rejected.
func LoadConfigFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Target != nil {
		if _, err := jsonschema.ParseTarget(*cfg.Target); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Apply copies the keys present in c onto opts.
func (c Config) Apply(opts *Options) {
	if c.Output != nil {
		opts.Output = *c.Output
	}
	if c.Combined != nil {
		opts.Combined = *c.Combined
	}
	if c.Target != nil {
		opts.Target = Target(*c.Target)
	}
	if c.Format != nil {
		opts.Format = *c.Format
	}
	if c.Verbose != nil {
		opts.Verbose = *c.Verbose
	}
	if c.Pattern != nil {
		opts.Pattern = *c.Pattern
	}
	if c.Exclude != nil {
		opts.Exclude = append([]string(nil), c.Exclude...)
	}
	if c.Check != nil {
		opts.Check = *c.Check
	}
}
