// Package config provides the configuration schema and loader for
// voiceselect.
package config

import "time"

// LogLevel controls log verbosity for the voiceselect server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Default values applied by [ApplyDefaults] for zero-valued fields.
const (
	DefaultListenAddr       = "127.0.0.1:8080"
	DefaultBasePath         = "VoiceSelector"
	DefaultScheme           = "rom:/"
	DefaultHashPrefix       = "sound/bank/fighter_voice/"
	DefaultExtension        = "nus3audio"
	DefaultSlots            = 8
	DefaultProbeConcurrency = 8
	DefaultStartupDelay     = 10 * time.Second
	DefaultInterval         = time.Second
	DefaultProSlots         = 8
	DefaultOrigin           = "http://localhost/"
	DefaultDelimiter        = "CSK_SPLIT"
)

// DefaultChordButtons are the bit indices of the two shoulder buttons that
// open the configuration surface.
var DefaultChordButtons = []uint{8, 9}

// Config is the root configuration structure for voiceselect.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Assets  AssetsConfig  `yaml:"assets"`
	Monitor MonitorConfig `yaml:"monitor"`
	Surface SurfaceConfig `yaml:"surface"`
	Roster  RosterConfig  `yaml:"roster"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address serving health, metrics, the menu page,
	// the pad feed and the asset loader (e.g., "127.0.0.1:8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. It is the only setting applied on reload.
	LogLevel LogLevel `yaml:"log_level"`
}

// AssetsConfig describes where variant files live and how hashed paths are
// built.
type AssetsConfig struct {
	// Root is the directory on the local file system that backs the
	// Scheme prefix (e.g., "./rom").
	Root string `yaml:"root"`

	// Scheme is the virtual mount prefix stripped from paths before they are
	// resolved under Root (e.g., "rom:/").
	Scheme string `yaml:"scheme"`

	// BasePath is the directory, relative to Scheme, containing one
	// subdirectory per variant.
	BasePath string `yaml:"base_path"`

	// EngDir, JpDir and DefaultDir name the per-variant subdirectories.
	EngDir     string `yaml:"eng_dir"`
	JpDir      string `yaml:"jp_dir"`
	DefaultDir string `yaml:"default_dir"`

	// HashPrefix is the host archive directory of the intercepted assets.
	HashPrefix string `yaml:"hash_prefix"`

	// Extension is the file extension of both intercepted and served files,
	// without the leading dot.
	Extension string `yaml:"extension"`

	// Slots is the number of numbered sub-assets per entity.
	Slots int `yaml:"slots"`

	// ProbeConcurrency bounds how many entities are sized in parallel
	// during bootstrap.
	ProbeConcurrency int `yaml:"probe_concurrency"`
}

// MonitorConfig controls the controller polling loop.
type MonitorConfig struct {
	// StartupDelay is waited once before the first poll so host boot input
	// is ignored.
	StartupDelay time.Duration `yaml:"startup_delay"`

	// Interval is the polling period.
	Interval time.Duration `yaml:"interval"`

	// ProSlots is the number of docked controller slots scanned when the
	// handheld does not hold the chord.
	ProSlots int `yaml:"pro_slots"`

	// ChordButtons lists the button bit indices that must all be held.
	ChordButtons []uint `yaml:"chord_buttons"`
}

// SurfaceConfig describes the submission wire format of the configuration
// surface.
type SurfaceConfig struct {
	// Origin is the fixed URL prefix of a submission. A result exactly equal
	// to Origin means the surface was dismissed.
	Origin string `yaml:"origin"`

	// Delimiter separates records in a submission.
	Delimiter string `yaml:"delimiter"`
}

// RosterConfig selects the entity table.
type RosterConfig struct {
	// File is an optional YAML roster replacing the embedded one.
	File string `yaml:"file"`
}

// ApplyDefaults fills zero-valued fields of cfg with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}

	a := &cfg.Assets
	if a.Scheme == "" {
		a.Scheme = DefaultScheme
	}
	if a.BasePath == "" {
		a.BasePath = DefaultBasePath
	}
	if a.EngDir == "" {
		a.EngDir = "eng"
	}
	if a.JpDir == "" {
		a.JpDir = "jp"
	}
	if a.DefaultDir == "" {
		a.DefaultDir = "default"
	}
	if a.HashPrefix == "" {
		a.HashPrefix = DefaultHashPrefix
	}
	if a.Extension == "" {
		a.Extension = DefaultExtension
	}
	if a.Slots == 0 {
		a.Slots = DefaultSlots
	}
	if a.ProbeConcurrency == 0 {
		a.ProbeConcurrency = DefaultProbeConcurrency
	}

	m := &cfg.Monitor
	if m.StartupDelay == 0 {
		m.StartupDelay = DefaultStartupDelay
	}
	if m.Interval == 0 {
		m.Interval = DefaultInterval
	}
	if m.ProSlots == 0 {
		m.ProSlots = DefaultProSlots
	}
	if len(m.ChordButtons) == 0 {
		m.ChordButtons = append([]uint(nil), DefaultChordButtons...)
	}

	if cfg.Surface.Origin == "" {
		cfg.Surface.Origin = DefaultOrigin
	}
	if cfg.Surface.Delimiter == "" {
		cfg.Surface.Delimiter = DefaultDelimiter
	}
}
