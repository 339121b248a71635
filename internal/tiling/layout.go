package tiling

import (
	"fmt"
	"math"
	"strings"

	"github.com/1broseidon/winstate/internal/geom"
)

// Formation selects how Arrange places windows.
type Formation string

const (
	FormationCascade Formation = "cascade"
	FormationTile    Formation = "tile"
	FormationStack   Formation = "stack"
)

// Formations lists the supported formations in display order.
var Formations = []Formation{FormationCascade, FormationTile, FormationStack}

// ParseFormation resolves a formation name, case-insensitively.
func ParseFormation(s string) (Formation, error) {
	f := Formation(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formations {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported formation: %q", s)
}

// Options parameterizes the formations.
type Options struct {
	// Origin is where the first window is placed.
	Origin geom.Point `json:"origin" yaml:"origin"`
	// CascadeOffset is added on both axes per window.
	CascadeOffset float64 `json:"cascade_offset" yaml:"cascade_offset"`
	// Cell is the fixed size of each tile.
	Cell geom.Size `json:"cell" yaml:"cell"`
	// Gap separates tiles.
	Gap float64 `json:"gap" yaml:"gap"`
	// StackOffset is added on the x-axis per window.
	StackOffset float64 `json:"stack_offset" yaml:"stack_offset"`
}

// DefaultOptions returns the formation defaults.
func DefaultOptions() Options {
	return Options{
		Origin:        geom.Point{X: 40, Y: 40},
		CascadeOffset: 30,
		Cell:          geom.Size{W: 400, H: 300},
		StackOffset:   40,
	}
}

// Item is one window to place. Size is kept by formations that only move.
type Item struct {
	ID   string
	Size geom.Size
}

// Placement is the computed geometry for one window.
type Placement struct {
	ID   string    `json:"id"`
	Rect geom.Rect `json:"rect"`
}

// CalculateGrid determines the grid dimensions for the given number of windows
func CalculateGrid(numWindows int) (rows, cols int) {
	if numWindows <= 0 {
		return 0, 0
	}

	// Columns first (ceiling of square root), then the rows needed.
	cols = int(math.Ceil(math.Sqrt(float64(numWindows))))
	rows = int(math.Ceil(float64(numWindows) / float64(cols)))

	return rows, cols
}

// Arrange computes placements for items in order. It never touches window
// state; callers commit the result.
func Arrange(items []Item, f Formation, opts Options) ([]Placement, error) {
	if len(items) == 0 {
		return nil, nil
	}

	origin := geom.Point{X: geom.Sanitize(opts.Origin.X), Y: geom.Sanitize(opts.Origin.Y)}
	placements := make([]Placement, len(items))

	switch f {
	case FormationCascade:
		offset := geom.Sanitize(opts.CascadeOffset)
		for i, it := range items {
			step := float64(i) * offset
			placements[i] = Placement{
				ID:   it.ID,
				Rect: geom.Rect{Position: geom.Point{X: origin.X + step, Y: origin.Y + step}, Size: it.Size},
			}
		}

	case FormationTile:
		cell := geom.Size{W: geom.Sanitize(opts.Cell.W), H: geom.Sanitize(opts.Cell.H)}
		if cell.W <= 0 || cell.H <= 0 {
			return nil, fmt.Errorf("invalid tile cell size %vx%v", cell.W, cell.H)
		}
		gap := math.Max(0, geom.Sanitize(opts.Gap))
		_, cols := CalculateGrid(len(items))
		for i, it := range items {
			row := i / cols
			col := i % cols
			placements[i] = Placement{
				ID: it.ID,
				Rect: geom.R(
					origin.X+float64(col)*(cell.W+gap),
					origin.Y+float64(row)*(cell.H+gap),
					cell.W,
					cell.H,
				),
			}
		}

	case FormationStack:
		offset := geom.Sanitize(opts.StackOffset)
		for i, it := range items {
			placements[i] = Placement{
				ID:   it.ID,
				Rect: geom.Rect{Position: geom.Point{X: origin.X + float64(i)*offset, Y: origin.Y}, Size: it.Size},
			}
		}

	default:
		return nil, fmt.Errorf("unsupported formation: %q", f)
	}

	return placements, nil
}
