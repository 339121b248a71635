// Package resize computes window geometry for the eight resize handles.
package resize

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDirection is returned for an unsupported resize direction.
// Callers must not start a resize session when they see it.
var ErrInvalidDirection = errors.New("invalid resize direction")

// Direction is one of the four edges or four corners of a window.
type Direction int

const (
	DirNone Direction = iota
	DirN
	DirS
	DirE
	DirW
	DirNE
	DirNW
	DirSE
	DirSW
)

var directionNames = map[Direction]string{
	DirN:  "n",
	DirS:  "s",
	DirE:  "e",
	DirW:  "w",
	DirNE: "ne",
	DirNW: "nw",
	DirSE: "se",
	DirSW: "sw",
}

var directionAliases = map[string]Direction{
	"n": DirN, "top": DirN,
	"s": DirS, "bottom": DirS,
	"e": DirE, "right": DirE,
	"w": DirW, "left": DirW,
	"ne": DirNE, "top-right": DirNE,
	"nw": DirNW, "top-left": DirNW,
	"se": DirSE, "bottom-right": DirSE,
	"sw": DirSW, "bottom-left": DirSW,
}

// String returns the short compass name of the direction.
func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether d is one of the eight handles.
func (d Direction) Valid() bool {
	_, ok := directionNames[d]
	return ok
}

// Parse accepts compass names (n, se, ...) and edge names (top, bottom-right, ...).
func Parse(s string) (Direction, error) {
	d, ok := directionAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return DirNone, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
	return d, nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// edges decomposes a direction into the edges it drags.
type edges struct {
	top, bottom, left, right bool
}

var directionEdges = map[Direction]edges{
	DirN:  {top: true},
	DirS:  {bottom: true},
	DirE:  {right: true},
	DirW:  {left: true},
	DirNE: {top: true, right: true},
	DirNW: {top: true, left: true},
	DirSE: {bottom: true, right: true},
	DirSW: {bottom: true, left: true},
}
