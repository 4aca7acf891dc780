// Package config loads the optional YAML configuration file holding
// the fuzzer's tunables: worker count, forest size, expansion budget,
// cycle length, mutation stack depth, per-execution timeout, and the
// output directories. The file is schema-validated before merging
// under CLI-flag overrides.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Config is the fuzzer's tunable surface. Every field has a default
// that reproduces the original's hardcoded behavior; a config file
// overrides only the fields it sets, and CLI flags override the
// config file in turn (cmd/grampus's applyFlagOverrides).
type Config struct {
	Workers               int           `yaml:"workers"`
	ForestSize            int           `yaml:"forest_size"`
	MaxExpansion          int           `yaml:"max_expansion"`
	MaxIterationsPerCycle int           `yaml:"max_iterations_per_cycle"`
	MaxMutationStackDepth int           `yaml:"max_mutation_stack_depth"`
	Timeout               time.Duration `yaml:"timeout"`
	CorpusDir             string        `yaml:"corpus_dir"`
	CrashDir              string        `yaml:"crash_dir"`
	InputDir              string        `yaml:"input_dir"`
}

// Default returns the zero-config tunables: eight workers, a
// 100-sentence forest, a 200-non-terminal expansion budget, 10000
// iterations per scheduler cycle, a mutation stack depth of 4, and a
// two-second per-execution deadline.
func Default() Config {
	return Config{
		Workers:               8,
		ForestSize:            100,
		MaxExpansion:          200,
		MaxIterationsPerCycle: 10000,
		MaxMutationStackDepth: 4,
		Timeout:               2 * time.Second,
		CorpusDir:             "corpus",
		CrashDir:              "crashes",
		InputDir:              "fuzz_inputs",
	}
}

// schemaJSON constrains every field the YAML file may set: positive
// integers (the mutation stack depth may also be zero), a non-empty
// timeout string (parsed afterwards by time.ParseDuration in
// mergeOnto; its sign is not checked), and non-empty directory
// names. Unknown fields are rejected so a typo in the config file
// fails loudly instead of silently falling back to a default.
const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "workers": {"type": "integer", "minimum": 1},
    "forest_size": {"type": "integer", "minimum": 1},
    "max_expansion": {"type": "integer", "minimum": 1},
    "max_iterations_per_cycle": {"type": "integer", "minimum": 1},
    "max_mutation_stack_depth": {"type": "integer", "minimum": 0},
    "timeout": {"type": "string", "minLength": 1},
    "corpus_dir": {"type": "string", "minLength": 1},
    "crash_dir": {"type": "string", "minLength": 1},
    "input_dir": {"type": "string", "minLength": 1}
  }
}`

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	const url = "schema://grampus-config.json"
	if err := compiler.AddResource(url, bytes.NewReader([]byte(schemaJSON))); err != nil {
		return nil, fmt.Errorf("config: add schema resource: %w", err)
	}
	return compiler.Compile(url)
}

// Load reads path, validates it against the config schema, and merges
// it onto Default(). An empty path is not an error: it returns
// Default() unchanged, preserving the original's zero-config path.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	generic = stringifyKeys(generic)

	schema, err := compileSchema()
	if err != nil {
		return Config{}, err
	}
	// jsonschema validates native Go values produced by
	// encoding/json; round-trip through JSON so nested structures
	// match its expectations exactly.
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return Config{}, fmt.Errorf("config: marshal for validation: %w", err)
	}
	var validatable interface{}
	if err := json.Unmarshal(asJSON, &validatable); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal for validation: %w", err)
	}
	if err := schema.Validate(validatable); err != nil {
		return Config{}, fmt.Errorf("config: %s does not satisfy the configuration schema: %w", path, err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := y.mergeOnto(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// yamlConfig mirrors Config but keeps Timeout as a string (yaml.v3 has
// no built-in time.Duration support: "2s" would otherwise fail to
// decode into an int64-backed field) and every other field as a
// pointer, so mergeOnto can tell "absent from the file" apart from
// "explicitly zero".
type yamlConfig struct {
	Workers               *int    `yaml:"workers"`
	ForestSize            *int    `yaml:"forest_size"`
	MaxExpansion          *int    `yaml:"max_expansion"`
	MaxIterationsPerCycle *int    `yaml:"max_iterations_per_cycle"`
	MaxMutationStackDepth *int    `yaml:"max_mutation_stack_depth"`
	Timeout               *string `yaml:"timeout"`
	CorpusDir             *string `yaml:"corpus_dir"`
	CrashDir              *string `yaml:"crash_dir"`
	InputDir              *string `yaml:"input_dir"`
}

func (y yamlConfig) mergeOnto(cfg *Config) error {
	if y.Workers != nil {
		cfg.Workers = *y.Workers
	}
	if y.ForestSize != nil {
		cfg.ForestSize = *y.ForestSize
	}
	if y.MaxExpansion != nil {
		cfg.MaxExpansion = *y.MaxExpansion
	}
	if y.MaxIterationsPerCycle != nil {
		cfg.MaxIterationsPerCycle = *y.MaxIterationsPerCycle
	}
	if y.MaxMutationStackDepth != nil {
		cfg.MaxMutationStackDepth = *y.MaxMutationStackDepth
	}
	if y.Timeout != nil {
		d, err := time.ParseDuration(*y.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", *y.Timeout, err)
		}
		cfg.Timeout = d
	}
	if y.CorpusDir != nil {
		cfg.CorpusDir = *y.CorpusDir
	}
	if y.CrashDir != nil {
		cfg.CrashDir = *y.CrashDir
	}
	if y.InputDir != nil {
		cfg.InputDir = *y.InputDir
	}
	return nil
}

// stringifyKeys converts the map[string]interface{} yaml.v3 already
// produces into the same shape recursively, so nested sequences are
// likewise normalized before the JSON round-trip in Load. yaml.v3
// already uses string keys, so this is a structural walk rather than
// a map[interface{}]interface{} conversion some older YAML decoders
// require.
func stringifyKeys(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(vv))
		for k, val := range vv {
			out[k] = stringifyKeys(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, val := range vv {
			out[i] = stringifyKeys(val)
		}
		return out
	default:
		return v
	}
}
