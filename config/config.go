package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/nihei9/decisive/analysis"
	"github.com/nihei9/decisive/spec"
)

// DefaultFileName is the configuration file read when no file is specified and the file exists in the
// working directory.
const DefaultFileName = "decisive.toml"

const envPrefix = "DECISIVE_"

type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Trace    TraceConfig    `toml:"trace"`
	Output   OutputConfig   `toml:"output"`
}

type AnalysisConfig struct {
	LookaheadDepth int `toml:"lookahead_depth"`
	MaxDFAStates   int `toml:"max_dfa_states"`
	MaxRecursion   int `toml:"max_recursion"`

	// Workers is the number of decisions probed concurrently. Zero means the number of CPUs.
	Workers int `toml:"workers"`
}

type TraceConfig struct {
	// Level is one of debug, info, and error.
	Level string `toml:"level"`
}

type OutputConfig struct {
	// Format is one of text, json, and msgpack.
	Format         string `toml:"format"`
	Color          bool   `toml:"color"`
	GraphCacheSize int    `toml:"graph_cache_size"`
}

func Default() *Config {
	opts := analysis.DefaultOptions()
	return &Config{
		Analysis: AnalysisConfig{
			LookaheadDepth: opts.LookaheadDepth,
			MaxDFAStates:   opts.MaxDFAStates,
			MaxRecursion:   opts.MaxRecursion,
			Workers:        opts.Workers,
		},
		Trace: TraceConfig{
			Level: "error",
		},
		Output: OutputConfig{
			Format:         "text",
			Color:          true,
			GraphCacheSize: 64,
		},
	}
}

// Load reads the configuration: the defaults, overridden by the TOML file, overridden by DECISIVE_*
// environment variables. Variables defined in a .env file in the working directory are also honored. When
// path is empty, DefaultFileName is read if it exists.
func Load(path string) (*Config, error) {
	err := loadDotEnv(dotEnvFileName)
	if err != nil {
		return nil, err
	}
	return load(path, os.Getenv)
}

const dotEnvFileName = ".env"

// loadDotEnv sets the variables of a .env file that are not set yet. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%s: failed to parse: %w", path, err)
	}
	tracer().Debugf("read the environment variables from %v", path)
	return nil
}

func load(path string, getenv func(string) string) (*Config, error) {
	c := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFileName); err == nil {
			path = DefaultFileName
		}
	}
	if path != "" {
		_, err := toml.DecodeFile(path, c)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		tracer().Debugf("read the configuration from %v", path)
	}

	err := c.applyEnv(getenv)
	if err != nil {
		return nil, err
	}
	err = c.Validate()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	ints := []struct {
		name string
		dest *int
	}{
		{"LOOKAHEAD_DEPTH", &c.Analysis.LookaheadDepth},
		{"MAX_DFA_STATES", &c.Analysis.MaxDFAStates},
		{"MAX_RECURSION", &c.Analysis.MaxRecursion},
		{"WORKERS", &c.Analysis.Workers},
		{"GRAPH_CACHE_SIZE", &c.Output.GraphCacheSize},
	}
	for _, v := range ints {
		raw := strings.TrimSpace(getenv(envPrefix + v.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%v%v: invalid integer: %w", envPrefix, v.name, err)
		}
		*v.dest = n
	}

	if raw := strings.TrimSpace(getenv(envPrefix + "TRACE_LEVEL")); raw != "" {
		c.Trace.Level = raw
	}
	if raw := strings.TrimSpace(getenv(envPrefix + "FORMAT")); raw != "" {
		c.Output.Format = raw
	}
	if raw := strings.TrimSpace(getenv(envPrefix + "COLOR")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%vCOLOR: invalid boolean: %w", envPrefix, err)
		}
		c.Output.Color = b
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Analysis.LookaheadDepth < 1 {
		errs = append(errs, fmt.Errorf("lookahead_depth must be 1 or more: %v", c.Analysis.LookaheadDepth))
	}
	if c.Analysis.MaxDFAStates < 1 {
		errs = append(errs, fmt.Errorf("max_dfa_states must be 1 or more: %v", c.Analysis.MaxDFAStates))
	}
	if c.Analysis.MaxRecursion < 1 {
		errs = append(errs, fmt.Errorf("max_recursion must be 1 or more: %v", c.Analysis.MaxRecursion))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative: %v", c.Analysis.Workers))
	}
	switch c.Trace.Level {
	case "debug", "info", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown trace level: %v", c.Trace.Level))
	}
	switch c.Output.Format {
	case "text", string(spec.ReportFormatJSON), string(spec.ReportFormatMsgPack):
	default:
		errs = append(errs, fmt.Errorf("unknown output format: %v", c.Output.Format))
	}
	return errors.Join(errs...)
}

func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{
		LookaheadDepth: c.Analysis.LookaheadDepth,
		MaxDFAStates:   c.Analysis.MaxDFAStates,
		MaxRecursion:   c.Analysis.MaxRecursion,
		Workers:        c.Analysis.Workers,
	}
}
