package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxChordBit is the highest button bit index a controller reports.
const maxChordBit = 63

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. An empty document yields the default config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. Call it after
// [ApplyDefaults]. It returns a joined error listing all validation failures
// found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Assets
	a := cfg.Assets
	if a.Root == "" {
		slog.Warn("assets.root is empty; variant files are resolved relative to the working directory")
	}
	dirs := map[string]string{"assets.eng_dir": a.EngDir, "assets.jp_dir": a.JpDir, "assets.default_dir": a.DefaultDir}
	seen := make(map[string]string, len(dirs))
	for _, key := range []string{"assets.eng_dir", "assets.jp_dir", "assets.default_dir"} {
		dir := dirs[key]
		if strings.Contains(dir, "..") {
			errs = append(errs, fmt.Errorf("%s %q must not contain \"..\"", key, dir))
		}
		if prev, ok := seen[dir]; ok {
			errs = append(errs, fmt.Errorf("%s %q duplicates %s; variants must not share a directory", key, dir, prev))
		}
		seen[dir] = key
	}
	if strings.HasPrefix(a.Extension, ".") {
		errs = append(errs, fmt.Errorf("assets.extension %q must not start with a dot", a.Extension))
	}
	if a.Slots < 1 || a.Slots > 10 {
		errs = append(errs, fmt.Errorf("assets.slots %d is out of range [1, 10]", a.Slots))
	}
	if a.ProbeConcurrency < 1 {
		errs = append(errs, fmt.Errorf("assets.probe_concurrency %d must be positive", a.ProbeConcurrency))
	}

	// Monitor
	m := cfg.Monitor
	if m.StartupDelay < 0 {
		errs = append(errs, fmt.Errorf("monitor.startup_delay %s must not be negative", m.StartupDelay))
	}
	if m.Interval <= 0 {
		errs = append(errs, fmt.Errorf("monitor.interval %s must be positive", m.Interval))
	}
	if m.ProSlots < 0 || m.ProSlots > 8 {
		errs = append(errs, fmt.Errorf("monitor.pro_slots %d is out of range [0, 8]", m.ProSlots))
	}
	for i, b := range m.ChordButtons {
		if b > maxChordBit {
			errs = append(errs, fmt.Errorf("monitor.chord_buttons[%d] %d is out of range [0, %d]", i, b, maxChordBit))
		}
	}
	if len(m.ChordButtons) == 1 {
		slog.Warn("monitor.chord_buttons has a single button; the surface opens on any press of it", "button", m.ChordButtons[0])
	}

	// Surface
	if !strings.HasSuffix(cfg.Surface.Origin, "/") {
		errs = append(errs, fmt.Errorf("surface.origin %q must end with \"/\"", cfg.Surface.Origin))
	}
	if strings.Contains(cfg.Surface.Delimiter, "=") {
		errs = append(errs, fmt.Errorf("surface.delimiter %q must not contain \"=\"", cfg.Surface.Delimiter))
	}

	return errors.Join(errs...)
}
