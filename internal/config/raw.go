package config

import (
	"fmt"
	"maps"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// Raw types mirror Config with pointer leaves so that a file only overrides
// the keys it actually sets.

type RawSize struct {
	W *float64 `yaml:"w"`
	H *float64 `yaml:"h"`
}

type RawPoint struct {
	X *float64 `yaml:"x"`
	Y *float64 `yaml:"y"`
}

type RawViewport struct {
	Width        *float64 `yaml:"width"`
	Height       *float64 `yaml:"height"`
	ChromeHeight *float64 `yaml:"chrome_height"`
}

type RawSnap struct {
	Threshold     *float64 `yaml:"threshold"`
	DragThreshold *float64 `yaml:"drag_threshold"`
}

type RawConstraints struct {
	Min *RawSize `yaml:"min"`
	Max *RawSize `yaml:"max"`
}

type RawGrouping struct {
	Offset *float64 `yaml:"offset"`
}

type RawArrange struct {
	Origin        *RawPoint `yaml:"origin"`
	CascadeOffset *float64  `yaml:"cascade_offset"`
	Cell          *RawSize  `yaml:"cell"`
	Gap           *float64  `yaml:"gap"`
	StackOffset   *float64  `yaml:"stack_offset"`
}

type RawLoggingConfig struct {
	Level     *string `yaml:"level"`
	File      *string `yaml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

type RawSnapshot struct {
	Backend         *string `yaml:"backend"`
	Dir             *string `yaml:"dir"`
	AutosaveSeconds *int    `yaml:"autosave_seconds"`
	AutosaveName    *string `yaml:"autosave_name"`
	RestoreOnStart  *bool   `yaml:"restore_on_start"`
}

type RawConfig struct {
	Include     IncludeList       `yaml:"include"`
	Backend     *string           `yaml:"backend"`
	Viewport    *RawViewport      `yaml:"viewport"`
	Snap        *RawSnap          `yaml:"snap"`
	Constraints *RawConstraints   `yaml:"constraints"`
	ZIndexBase  *int64            `yaml:"z_index_base"`
	Grouping    *RawGrouping      `yaml:"grouping"`
	Arrange     *RawArrange       `yaml:"arrange"`
	Logging     *RawLoggingConfig `yaml:"logging"`
	Snapshot    *RawSnapshot      `yaml:"snapshot"`
	Hotkeys     map[string]string `yaml:"hotkeys"`
}

// pick returns overlay when it is set.
func pick[T any](base, overlay *T) *T {
	if overlay != nil {
		return overlay
	}
	return base
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Backend = pick(c.Backend, overlay.Backend)
	out.ZIndexBase = pick(c.ZIndexBase, overlay.ZIndexBase)

	if overlay.Viewport != nil {
		base := derefOr(c.Viewport)
		out.Viewport = &RawViewport{
			Width:        pick(base.Width, overlay.Viewport.Width),
			Height:       pick(base.Height, overlay.Viewport.Height),
			ChromeHeight: pick(base.ChromeHeight, overlay.Viewport.ChromeHeight),
		}
	}
	if overlay.Snap != nil {
		base := derefOr(c.Snap)
		out.Snap = &RawSnap{
			Threshold:     pick(base.Threshold, overlay.Snap.Threshold),
			DragThreshold: pick(base.DragThreshold, overlay.Snap.DragThreshold),
		}
	}
	if overlay.Constraints != nil {
		base := derefOr(c.Constraints)
		out.Constraints = &RawConstraints{
			Min: mergeRawSize(base.Min, overlay.Constraints.Min),
			Max: mergeRawSize(base.Max, overlay.Constraints.Max),
		}
	}
	if overlay.Grouping != nil {
		base := derefOr(c.Grouping)
		out.Grouping = &RawGrouping{Offset: pick(base.Offset, overlay.Grouping.Offset)}
	}
	if overlay.Arrange != nil {
		base := derefOr(c.Arrange)
		out.Arrange = &RawArrange{
			Origin:        mergeRawPoint(base.Origin, overlay.Arrange.Origin),
			CascadeOffset: pick(base.CascadeOffset, overlay.Arrange.CascadeOffset),
			Cell:          mergeRawSize(base.Cell, overlay.Arrange.Cell),
			Gap:           pick(base.Gap, overlay.Arrange.Gap),
			StackOffset:   pick(base.StackOffset, overlay.Arrange.StackOffset),
		}
	}
	if overlay.Logging != nil {
		base := derefOr(c.Logging)
		out.Logging = &RawLoggingConfig{
			Level:     pick(base.Level, overlay.Logging.Level),
			File:      pick(base.File, overlay.Logging.File),
			MaxSizeMB: pick(base.MaxSizeMB, overlay.Logging.MaxSizeMB),
			MaxFiles:  pick(base.MaxFiles, overlay.Logging.MaxFiles),
		}
	}
	if overlay.Snapshot != nil {
		base := derefOr(c.Snapshot)
		out.Snapshot = &RawSnapshot{
			Backend:         pick(base.Backend, overlay.Snapshot.Backend),
			Dir:             pick(base.Dir, overlay.Snapshot.Dir),
			AutosaveSeconds: pick(base.AutosaveSeconds, overlay.Snapshot.AutosaveSeconds),
			AutosaveName:    pick(base.AutosaveName, overlay.Snapshot.AutosaveName),
			RestoreOnStart:  pick(base.RestoreOnStart, overlay.Snapshot.RestoreOnStart),
		}
	}
	if len(overlay.Hotkeys) > 0 {
		merged := make(map[string]string, len(c.Hotkeys)+len(overlay.Hotkeys))
		maps.Copy(merged, c.Hotkeys)
		maps.Copy(merged, overlay.Hotkeys)
		out.Hotkeys = merged
	}
	return out
}

func derefOr[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func mergeRawSize(base, overlay *RawSize) *RawSize {
	if overlay == nil {
		return base
	}
	b := derefOr(base)
	return &RawSize{W: pick(b.W, overlay.W), H: pick(b.H, overlay.H)}
}

func mergeRawPoint(base, overlay *RawPoint) *RawPoint {
	if overlay == nil {
		return base
	}
	b := derefOr(base)
	return &RawPoint{X: pick(b.X, overlay.X), Y: pick(b.Y, overlay.Y)}
}
