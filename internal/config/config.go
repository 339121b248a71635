package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/tiling"
)

// SnapConfig controls edge snapping during drags.
type SnapConfig struct {
	// Threshold is the edge proximity in pixels that arms a snap region
	Threshold float64 `yaml:"threshold"`
	// DragThreshold is the pointer travel below which a drag is a click
	DragThreshold float64 `yaml:"drag_threshold"`
}

// GroupingConfig controls group bounding layouts.
type GroupingConfig struct {
	// Offset is the margin added around member geometry
	Offset float64 `yaml:"offset"`
}

// LoggingConfig configures the daemon logger.
type LoggingConfig struct {
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level"`
	// File is the log file path; empty logs to stderr only
	File string `yaml:"file"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files"`
}

// SnapshotConfig configures state persistence.
type SnapshotConfig struct {
	// Backend is json or sqlite
	Backend string `yaml:"backend"`
	// Dir holds snapshot files or the sqlite database
	Dir string `yaml:"dir"`
	// AutosaveSeconds saves the autosave snapshot periodically; 0 disables it
	AutosaveSeconds int `yaml:"autosave_seconds"`
	// AutosaveName is the snapshot name used by autosave and restore_on_start
	AutosaveName string `yaml:"autosave_name"`
	// RestoreOnStart rehydrates the autosave snapshot when the daemon starts
	RestoreOnStart bool `yaml:"restore_on_start"`
}

const (
	BackendStatic = "static"
	BackendX11    = "x11"

	SnapshotJSON   = "json"
	SnapshotSQLite = "sqlite"
)

// Config is the effective winstate configuration.
type Config struct {
	Backend     string           `yaml:"backend"`
	Viewport    geom.Viewport    `yaml:"viewport"`
	Snap        SnapConfig       `yaml:"snap"`
	Constraints geom.Constraints `yaml:"constraints"`
	ZIndexBase  int64            `yaml:"z_index_base"`
	Grouping    GroupingConfig   `yaml:"grouping"`
	Arrange     tiling.Options   `yaml:"arrange"`
	Logging     LoggingConfig    `yaml:"logging"`
	Snapshot    SnapshotConfig   `yaml:"snapshot"`
	// Hotkeys maps an action name to an X11 key sequence such as
	// "Mod4-Left". Only used with the x11 backend.
	Hotkeys map[string]string `yaml:"hotkeys,omitempty"`
}

// HotkeyActions lists the action names accepted under hotkeys.
var HotkeyActions = []string{
	"focus_next",
	"snap_left",
	"snap_right",
	"snap_top",
	"snap_top_left",
	"snap_top_right",
	"snap_bottom_left",
	"snap_bottom_right",
	"toggle_maximize",
	"minimize",
	"toggle_always_on_top",
	"close",
	"cascade",
	"tile",
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendStatic,
		Viewport: geom.Viewport{
			Width:        1200,
			Height:       800,
			ChromeHeight: 64,
		},
		Snap: SnapConfig{
			Threshold:     20,
			DragThreshold: 5,
		},
		Constraints: geom.Constraints{
			Min: geom.Size{W: 200, H: 150},
		},
		ZIndexBase: 1000,
		Grouping:   GroupingConfig{Offset: 10},
		Arrange:    tiling.DefaultOptions(),
		Logging: LoggingConfig{
			Level: "info",
		},
		Snapshot: SnapshotConfig{
			Backend:         SnapshotJSON,
			AutosaveSeconds: 30,
			AutosaveName:    "autosave",
		},
	}
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{Level: "info"}
	}
	cfg := c.Logging
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// SnapshotDir returns the configured snapshot directory, defaulting to
// ~/.local/share/winstate/snapshots.
func (c *Config) SnapshotDir() (string, error) {
	if c != nil && strings.TrimSpace(c.Snapshot.Dir) != "" {
		return expandHome(c.Snapshot.Dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "winstate", "snapshots"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendStatic, BackendX11:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: static, x11")}
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return &ValidationError{Path: "viewport", Err: fmt.Errorf("viewport width and height must be > 0")}
	}
	if c.Viewport.ChromeHeight < 0 || c.Viewport.ChromeHeight >= c.Viewport.Height {
		return &ValidationError{Path: "viewport.chrome_height", Err: fmt.Errorf("chrome_height must be >= 0 and less than height")}
	}
	if c.Snap.Threshold < 0 {
		return &ValidationError{Path: "snap.threshold", Err: fmt.Errorf("threshold must be >= 0")}
	}
	if c.Snap.DragThreshold < 0 {
		return &ValidationError{Path: "snap.drag_threshold", Err: fmt.Errorf("drag_threshold must be >= 0")}
	}
	if err := validateConstraints(c.Constraints); err != nil {
		return &ValidationError{Path: "constraints", Err: err}
	}
	if c.ZIndexBase < 0 {
		return &ValidationError{Path: "z_index_base", Err: fmt.Errorf("z_index_base must be >= 0")}
	}
	if c.Grouping.Offset < 0 {
		return &ValidationError{Path: "grouping.offset", Err: fmt.Errorf("offset must be >= 0")}
	}
	if c.Arrange.Cell.W <= 0 || c.Arrange.Cell.H <= 0 {
		return &ValidationError{Path: "arrange.cell", Err: fmt.Errorf("cell width and height must be > 0")}
	}
	if c.Arrange.Gap < 0 {
		return &ValidationError{Path: "arrange.gap", Err: fmt.Errorf("gap must be >= 0")}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	switch c.Snapshot.Backend {
	case SnapshotJSON, SnapshotSQLite:
	default:
		return &ValidationError{Path: "snapshot.backend", Err: fmt.Errorf("backend must be one of: json, sqlite")}
	}
	if c.Snapshot.AutosaveSeconds < 0 {
		return &ValidationError{Path: "snapshot.autosave_seconds", Err: fmt.Errorf("autosave_seconds must be >= 0")}
	}
	if strings.TrimSpace(c.Snapshot.AutosaveName) == "" {
		return &ValidationError{Path: "snapshot.autosave_name", Err: fmt.Errorf("autosave_name is required")}
	}
	for action, keys := range c.Hotkeys {
		if !slices.Contains(HotkeyActions, action) {
			return &ValidationError{Path: "hotkeys." + action, Err: fmt.Errorf("unknown action (valid: %s)", strings.Join(HotkeyActions, ", "))}
		}
		if strings.TrimSpace(keys) == "" {
			return &ValidationError{Path: "hotkeys." + action, Err: fmt.Errorf("key sequence is required")}
		}
	}
	return nil
}

func validateConstraints(c geom.Constraints) error {
	if c.Min.W < 0 || c.Min.H < 0 || c.Max.W < 0 || c.Max.H < 0 {
		return fmt.Errorf("sizes must be >= 0")
	}
	if c.Max.W > 0 && c.Min.W > c.Max.W {
		return fmt.Errorf("min.w %v exceeds max.w %v", c.Min.W, c.Max.W)
	}
	if c.Max.H > 0 && c.Min.H > c.Max.H {
		return fmt.Errorf("min.h %v exceeds max.h %v", c.Min.H, c.Max.H)
	}
	return nil
}
