package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "decisive.toml")
	err := os.WriteFile(path, []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func envOf(vars map[string]string) func(string) string {
	return func(name string) string {
		return vars[name]
	}
}

func TestLoad(t *testing.T) {
	file := `
[analysis]
lookahead_depth = 2
max_recursion = 8

[trace]
level = "info"

[output]
format = "json"
`

	tests := []struct {
		caption  string
		file     string
		env      map[string]string
		expected func(c *Config)
	}{
		{
			caption:  "defaults",
			expected: func(c *Config) {},
		},
		{
			caption: "a file overrides the defaults",
			file:    file,
			expected: func(c *Config) {
				c.Analysis.LookaheadDepth = 2
				c.Analysis.MaxRecursion = 8
				c.Trace.Level = "info"
				c.Output.Format = "json"
			},
		},
		{
			caption: "environment variables override a file",
			file:    file,
			env: map[string]string{
				"DECISIVE_LOOKAHEAD_DEPTH": "4",
				"DECISIVE_WORKERS":         "2",
				"DECISIVE_FORMAT":          "msgpack",
				"DECISIVE_COLOR":           "false",
			},
			expected: func(c *Config) {
				c.Analysis.LookaheadDepth = 4
				c.Analysis.MaxRecursion = 8
				c.Analysis.Workers = 2
				c.Trace.Level = "info"
				c.Output.Format = "msgpack"
				c.Output.Color = false
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			var path string
			if tt.file != "" {
				path = writeFile(t, tt.file)
			} else {
				t.Chdir(t.TempDir())
			}
			c, err := load(path, envOf(tt.env))
			if err != nil {
				t.Fatal(err)
			}
			expected := Default()
			tt.expected(expected)
			if *c != *expected {
				t.Fatalf("unexpected config;\nwant: %+v\ngot: %+v", expected, c)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		caption string
		file    string
		env     map[string]string
	}{
		{
			caption: "malformed file",
			file:    "[analysis\n",
		},
		{
			caption: "invalid lookahead depth",
			file:    "[analysis]\nlookahead_depth = 0\n",
		},
		{
			caption: "unknown trace level",
			file:    "[trace]\nlevel = \"verbose\"\n",
		},
		{
			caption: "unknown format",
			env: map[string]string{
				"DECISIVE_FORMAT": "yaml",
			},
		},
		{
			caption: "non-integer environment variable",
			env: map[string]string{
				"DECISIVE_MAX_DFA_STATES": "many",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			var path string
			if tt.file != "" {
				path = writeFile(t, tt.file)
			} else {
				t.Chdir(t.TempDir())
			}
			_, err := load(path, envOf(tt.env))
			if err == nil {
				t.Fatal("an error was expected")
			}
		})
	}
}

func TestConfig_AnalysisOptions(t *testing.T) {
	c := Default()
	c.Analysis.LookaheadDepth = 5
	opts := c.AnalysisOptions()
	if opts.LookaheadDepth != 5 || opts.MaxDFAStates != c.Analysis.MaxDFAStates || opts.MaxRecursion != c.Analysis.MaxRecursion {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestLoadDotEnv(t *testing.T) {
	tests := []struct {
		caption string
		content *string
		env     map[string]string
		err     bool
	}{
		{
			caption: "a missing file is ignored",
		},
		{
			caption: "variables of a file are set",
			content: strPtr("DECISIVE_TEST_DOTENV_FORMAT=json\n"),
			env: map[string]string{
				"DECISIVE_TEST_DOTENV_FORMAT": "json",
			},
		},
		{
			caption: "a malformed file is an error",
			content: strPtr("DECISIVE-FORMAT=json\n"),
			err:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			if tt.content != nil {
				err := os.WriteFile(path, []byte(*tt.content), 0644)
				if err != nil {
					t.Fatal(err)
				}
			}
			for name := range tt.env {
				t.Cleanup(func() {
					os.Unsetenv(name)
				})
			}
			err := loadDotEnv(path)
			if tt.err {
				if err == nil {
					t.Fatal("an error was expected")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			for name, value := range tt.env {
				if v := os.Getenv(name); v != value {
					t.Fatalf("unexpected value of %v; want: %v, got: %v", name, value, v)
				}
			}
		})
	}
}

func strPtr(s string) *string {
	return &s
}
