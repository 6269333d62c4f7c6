package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the optional config file looked up in the working directory.
const FileName = "graphbench.toml"

// EnvPrefix prefixes environment overrides, e.g. GRAPHBENCH_MAX_VERTICES=2000.
const EnvPrefix = "GRAPHBENCH_"

// Algorithm names accepted in Config.Algorithms.
const (
	AlgoDijkstra    = "dijkstra"
	AlgoBetweenness = "betweenness"
	AlgoMatching    = "matching"
	AlgoLouvain     = "louvain"
)

// KnownAlgorithms lists the algorithms in the order they are run.
var KnownAlgorithms = []string{AlgoDijkstra, AlgoBetweenness, AlgoMatching, AlgoLouvain}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration for the application
type Config struct {
	Input         string   `koanf:"input"`
	Directed      bool     `koanf:"directed"`
	Weighted      bool     `koanf:"weighted"`
	Source        string   `koanf:"source"`
	Algorithms    []string `koanf:"algorithms"`
	MaxVertices   int      `koanf:"max-vertices"`
	DropSelfLoops bool     `koanf:"drop-self-loops"`
	Simple        bool     `koanf:"simple"`
	Reference     bool     `koanf:"reference"`
	DistancesOut  string   `koanf:"distances-out"`
	Top           int      `koanf:"top"`
	Resolution    float64  `koanf:"resolution"`
	Progress      bool     `koanf:"progress"`
	WebMode       bool     `koanf:"web"`
	Port          int      `koanf:"port"`
	Watch         bool     `koanf:"watch"`
	Verbosity     string   `koanf:"verbosity"`
	VerboseCnt    int      `koanf:"verbose"`
	JSONLogs      bool     `koanf:"json-logs"`
}

// Defaults returns the built-in values, lowest priority.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"input":           "",
		"directed":        false,
		"weighted":        false,
		"source":          "",
		"algorithms":      []string{AlgoDijkstra, AlgoBetweenness, AlgoMatching},
		"max-vertices":    0,
		"drop-self-loops": false,
		"simple":          false,
		"reference":       true,
		"distances-out":   "",
		"top":             10,
		"resolution":      1.0,
		"progress":        true,
		"web":             false,
		"port":            8080,
		"watch":           false,
		"verbosity":       "",
		"verbose":         0,
		"json-logs":       false,
	}
}

// RegisterFlags declares the command-line flags on f. Flag names match the
// config keys so posflag can overlay them.
func RegisterFlags(f *pflag.FlagSet) {
	d := Defaults()
	f.StringP("input", "i", d["input"].(string), "Edge-list file (.gz supported)")
	f.Bool("directed", d["directed"].(bool), "Treat edges as directed")
	f.Bool("weighted", d["weighted"].(bool), "Read the third column as edge weight")
	f.StringP("source", "s", d["source"].(string), "Dijkstra source vertex (default: first vertex)")
	f.StringSliceP("algorithms", "a", d["algorithms"].([]string), "Algorithms to run: "+strings.Join(KnownAlgorithms, ","))
	f.Int("max-vertices", d["max-vertices"].(int), "Keep only the subgraph of the first N vertices (0 = all)")
	f.Bool("drop-self-loops", d["drop-self-loops"].(bool), "Skip u == v edges while loading")
	f.Bool("simple", d["simple"].(bool), "Skip repeated edges while loading (both directions when undirected)")
	f.Bool("reference", d["reference"].(bool), "Also run the gonum reference implementations")
	f.String("distances-out", d["distances-out"].(string), "Write Dijkstra distances to this file")
	f.Int("top", d["top"].(int), "Number of top betweenness vertices to report")
	f.Float64("resolution", d["resolution"].(float64), "Louvain resolution")
	f.Bool("progress", d["progress"].(bool), "Show a progress bar while loading")
	f.Bool("web", d["web"].(bool), "Serve results over HTTP")
	f.IntP("port", "p", d["port"].(int), "Port for web mode")
	f.Bool("watch", d["watch"].(bool), "Rerun when the input or config file changes")
	f.String("verbosity", d["verbosity"].(string), "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	f.Bool("json-logs", d["json-logs"].(bool), "Log in JSON")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return load(f, FileName)
}

func load(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional); a missing file is not an error
	_ = k.Load(file.Provider(path), toml.Parser())

	// 3. Environment variables: GRAPHBENCH_MAX_VERTICES -> max-vertices
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Algorithms = normalizeAlgorithms(cfg.Algorithms)

	return &cfg, nil
}

// normalizeAlgorithms splits comma lists coming from env vars and lowercases.
func normalizeAlgorithms(in []string) []string {
	var out []string
	for _, a := range in {
		for _, part := range strings.Split(a, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks values that the loaders cannot.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: no input file given", ErrInvalid)
	}
	if c.MaxVertices < 0 {
		return fmt.Errorf("%w: max-vertices must be >= 0, got %d", ErrInvalid, c.MaxVertices)
	}
	if c.Top < 0 {
		return fmt.Errorf("%w: top must be >= 0, got %d", ErrInvalid, c.Top)
	}
	if c.Resolution <= 0 {
		return fmt.Errorf("%w: resolution must be > 0, got %g", ErrInvalid, c.Resolution)
	}
	if c.WebMode && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("%w: port out of range: %d", ErrInvalid, c.Port)
	}
	if len(c.Algorithms) == 0 {
		return fmt.Errorf("%w: no algorithms selected", ErrInvalid)
	}
	for _, a := range c.Algorithms {
		if !c.known(a) {
			return fmt.Errorf("%w: unknown algorithm %q (want one of %s)", ErrInvalid, a, strings.Join(KnownAlgorithms, ", "))
		}
	}
	return nil
}

func (c *Config) known(a string) bool {
	for _, k := range KnownAlgorithms {
		if a == k {
			return true
		}
	}
	return false
}

// Runs reports whether algorithm a is selected.
func (c *Config) Runs(a string) bool {
	for _, s := range c.Algorithms {
		if s == a {
			return true
		}
	}
	return false
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
