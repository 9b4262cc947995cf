package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adnsv/go-utils/fs"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file every tsplay executable looks for in the
// working directory.
const DefaultPath = "site.yml"

type Config struct {
	dir string `yaml:"-"`

	API    API                     `yaml:"api"`
	Fetch  map[string]*FetchSource `yaml:"fetch"`
	Build  Build                   `yaml:"build"`
	Page   Page                    `yaml:"page"`
	Deploy Deploy                  `yaml:"deploy"`
	Serve  Serve                   `yaml:"serve"`
}

type API struct {
	BaseURL   string        `yaml:"base-url"`
	TokenEnv  string        `yaml:"token-env"`
	UserAgent string        `yaml:"user-agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// FetchSource describes one declaration listing: the API path to list, the
// file names to keep, and where the joined result goes.
type FetchSource struct {
	Listing string `yaml:"listing"`
	Match   string `yaml:"match"`
	Output  string `yaml:"output"`

	pattern *regexp.Regexp
}

// Pattern returns the compiled Match expression. Only valid after Validate.
func (s *FetchSource) Pattern() *regexp.Regexp {
	return s.pattern
}

type Build struct {
	Template string   `yaml:"template"` // empty: use the embedded template
	Runtime  string   `yaml:"runtime"`
	Strip    []string `yaml:"strip"`
	Inputs   []Input  `yaml:"inputs"`
	Output   string   `yaml:"output"`
	Minify   bool     `yaml:"minify"`
}

type Input struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

type Page struct {
	Template string            `yaml:"template"` // empty: no page is rendered
	Output   string            `yaml:"output"`
	Def      map[string]string `yaml:"def"`
}

type Deploy struct {
	Target  string   `yaml:"target"` // git or dir
	Dir     string   `yaml:"dir"`
	Remote  string   `yaml:"remote"`
	Branch  string   `yaml:"branch"`
	Message string   `yaml:"message"`
	Assets  []string `yaml:"assets"`
}

type Serve struct {
	Addr string `yaml:"addr"`
}

const (
	TargetGit = "git"
	TargetDir = "dir"
)

func Default() *Config {
	return &Config{
		API: API{
			BaseURL:   "https://api.github.com",
			TokenEnv:  "GITHUB_TOKEN",
			UserAgent: "tsplay",
			Timeout:   30 * time.Second,
		},
		Fetch: map[string]*FetchSource{
			"drafts": {
				Listing: "repos/microsoft/TypeScript/contents/src/lib?ref=main",
				Match:   `^esnext\..+\.d\.ts$`,
				Output:  "defs/drafts.d.ts",
			},
			"es6": {
				Listing: "repos/microsoft/TypeScript/contents/src/lib?ref=main",
				Match:   `^es2015\..+\.d\.ts$`,
				Output:  "defs/es6.d.ts",
			},
		},
		Build: Build{
			Runtime: "src/runtime.js",
			Strip:   []string{"const monaco = require('monaco-editor');"},
			Inputs: []Input{
				{Name: "es6", File: "defs/es6.d.ts"},
				{Name: "drafts", File: "defs/drafts.d.ts"},
			},
			Output: "dist/bundle.js",
		},
		Page: Page{
			Output: "index.html",
			Def:    map[string]string{},
		},
		Deploy: Deploy{
			Target:  TargetGit,
			Dir:     ".publish",
			Remote:  "origin",
			Branch:  "gh-pages",
			Message: "deploy",
			Assets: []string{
				"index.html",
				"style.css",
				"dist/bundle.js",
				"node_modules/monaco-editor/min/vs",
				"node_modules/prettier/standalone.js",
				"node_modules/prettier/parser-typescript.js",
			},
		},
		Serve: Serve{
			Addr: "localhost:8080",
		},
	}
}

// Load reads the config file at fn on top of Default. A missing file is not
// an error; relative paths in the config resolve against the file's directory.
func Load(fn string) (*Config, error) {
	abs, err := filepath.Abs(fn)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.dir = filepath.Dir(abs)

	if !fs.FileExists(abs) {
		log.Printf("%s not found, using defaults\n", fn)
		return cfg, cfg.Validate()
	}

	log.Printf("loading config from %s\n", abs)
	buf, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return cfg, nil
}

// Validate checks required fields and compiles the fetch match expressions.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base-url is required")
	}
	if c.API.TokenEnv == "" {
		return errors.New("api.token-env is required")
	}
	for name, s := range c.Fetch {
		if s == nil {
			return fmt.Errorf("fetch.%s: empty source", name)
		}
		if s.Listing == "" {
			return fmt.Errorf("fetch.%s: missing listing", name)
		}
		if s.Output == "" {
			return fmt.Errorf("fetch.%s: missing output", name)
		}
		m := s.Match
		if m == "" {
			m = `.*`
		}
		p, err := regexp.Compile(m)
		if err != nil {
			return fmt.Errorf("fetch.%s: invalid match: %w", name, err)
		}
		s.pattern = p
	}

	if c.Build.Runtime == "" {
		return errors.New("build.runtime is required")
	}
	if c.Build.Output == "" {
		return errors.New("build.output is required")
	}
	seen := map[string]struct{}{"runtime": {}}
	for _, in := range c.Build.Inputs {
		if in.Name == "" || in.File == "" {
			return errors.New("build.inputs: every input needs a name and a file")
		}
		if _, dup := seen[in.Name]; dup {
			return fmt.Errorf("build.inputs: duplicate name '%s'", in.Name)
		}
		seen[in.Name] = struct{}{}
	}

	if c.Page.Template != "" && c.Page.Output == "" {
		return errors.New("page.output is required with page.template")
	}

	switch c.Deploy.Target {
	case TargetGit:
		if c.Deploy.Branch == "" || c.Deploy.Remote == "" {
			return errors.New("deploy: git target needs a remote and a branch")
		}
	case TargetDir:
	default:
		return fmt.Errorf("deploy.target: unsupported target '%s'", c.Deploy.Target)
	}
	if c.Deploy.Dir == "" {
		return errors.New("deploy.dir is required")
	}
	return nil
}

// Dir returns the directory relative config paths are resolved against.
func (c *Config) Dir() string {
	if c.dir == "" {
		wd, err := os.Getwd()
		if err == nil {
			return wd
		}
	}
	return c.dir
}

// Path resolves fn against the config directory.
func (c *Config) Path(fn string) string {
	return NormalizePath(c.Dir(), fn)
}

// Source returns the named fetch source.
func (c *Config) Source(name string) (*FetchSource, error) {
	s, ok := c.Fetch[name]
	if !ok || s == nil {
		return nil, fmt.Errorf("fetch source '%s' is not configured", name)
	}
	if s.pattern == nil {
		return nil, fmt.Errorf("fetch source '%s' is not validated", name)
	}
	return s, nil
}

// Token returns the API token named by api.token-env. Variables from a .env
// file next to the config are picked up unless already set.
func (c *Config) Token() (string, error) {
	LoadDotEnv(c.Path(".env"))
	v := strings.TrimSpace(os.Getenv(c.API.TokenEnv))
	if v == "" {
		return "", fmt.Errorf("missing API token: set %s in the environment or in .env", c.API.TokenEnv)
	}
	return v, nil
}

func NormalizePath(dir string, fn string) string {
	if fn == "" {
		return fn
	}
	if !filepath.IsAbs(fn) {
		fn = filepath.Join(dir, fn)
	}
	return filepath.Clean(fn)
}
