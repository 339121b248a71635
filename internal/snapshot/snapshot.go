// Package snapshot persists registry state under a name so that a desktop
// can be saved and rehydrated later.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/winstate/internal/wm"
)

// ErrNotFound is returned when no snapshot exists under a name.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is a named copy of registry state.
type Snapshot struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"saved_at"`
	State   wm.State  `json:"state"`
}

// Info describes a stored snapshot without its state.
type Info struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"saved_at"`
	Windows int       `json:"windows"`
	Groups  int       `json:"groups"`
}

// Store saves and loads named snapshots.
type Store interface {
	Save(snap Snapshot) error
	Load(name string) (Snapshot, error)
	List() ([]Info, error)
	Delete(name string) error
	Close() error
}

// New captures state under name.
func New(name string, state wm.State, now time.Time) Snapshot {
	return Snapshot{
		Name:    strings.TrimSpace(name),
		SavedAt: now.UTC(),
		State:   state.Clone(),
	}
}

// Info summarizes s.
func (s Snapshot) Info() Info {
	return Info{
		Name:    s.Name,
		SavedAt: s.SavedAt,
		Windows: len(s.State.Windows),
		Groups:  len(s.State.Groups),
	}
}

// ValidateName rejects names that cannot be used as a file name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("snapshot name is required")
	}
	if strings.Contains(name, string(os.PathSeparator)) || name != filepath.Base(name) {
		return fmt.Errorf("invalid snapshot name %q", name)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("invalid snapshot name %q", name)
	}
	return nil
}

// Open returns the store for backend ("json" or "sqlite") rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", "json":
		return NewFileStore(dir), nil
	case "sqlite":
		return OpenSQLite(filepath.Join(dir, "snapshots.db"))
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", backend)
	}
}
