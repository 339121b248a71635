package config

import (
	"fmt"
	"maps"

	"github.com/1broseidon/winstate/internal/geom"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	set(&cfg.Backend, raw.Backend)
	set(&cfg.ZIndexBase, raw.ZIndexBase)

	if v := raw.Viewport; v != nil {
		set(&cfg.Viewport.Width, v.Width)
		set(&cfg.Viewport.Height, v.Height)
		set(&cfg.Viewport.ChromeHeight, v.ChromeHeight)
	}
	if s := raw.Snap; s != nil {
		set(&cfg.Snap.Threshold, s.Threshold)
		set(&cfg.Snap.DragThreshold, s.DragThreshold)
	}
	if c := raw.Constraints; c != nil {
		applySize(&cfg.Constraints.Min, c.Min)
		applySize(&cfg.Constraints.Max, c.Max)
	}
	if g := raw.Grouping; g != nil {
		set(&cfg.Grouping.Offset, g.Offset)
	}
	if a := raw.Arrange; a != nil {
		if a.Origin != nil {
			set(&cfg.Arrange.Origin.X, a.Origin.X)
			set(&cfg.Arrange.Origin.Y, a.Origin.Y)
		}
		set(&cfg.Arrange.CascadeOffset, a.CascadeOffset)
		applySize(&cfg.Arrange.Cell, a.Cell)
		set(&cfg.Arrange.Gap, a.Gap)
		set(&cfg.Arrange.StackOffset, a.StackOffset)
	}
	if l := raw.Logging; l != nil {
		set(&cfg.Logging.Level, l.Level)
		set(&cfg.Logging.File, l.File)
		set(&cfg.Logging.MaxSizeMB, l.MaxSizeMB)
		set(&cfg.Logging.MaxFiles, l.MaxFiles)
	}
	if s := raw.Snapshot; s != nil {
		set(&cfg.Snapshot.Backend, s.Backend)
		set(&cfg.Snapshot.Dir, s.Dir)
		set(&cfg.Snapshot.AutosaveSeconds, s.AutosaveSeconds)
		set(&cfg.Snapshot.AutosaveName, s.AutosaveName)
		set(&cfg.Snapshot.RestoreOnStart, s.RestoreOnStart)
	}
	if len(raw.Hotkeys) > 0 {
		cfg.Hotkeys = maps.Clone(raw.Hotkeys)
	}
	return cfg
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func applySize(dst *geom.Size, src *RawSize) {
	if src == nil {
		return
	}
	set(&dst.W, src.W)
	set(&dst.H, src.H)
}
