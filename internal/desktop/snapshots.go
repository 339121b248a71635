package desktop

import (
	"errors"
	"fmt"

	"github.com/1broseidon/winstate/internal/snapshot"
	"github.com/1broseidon/winstate/internal/wm"
)

// SaveSnapshot stores the current state under name. Changes committed while
// the store is writing stay pending for the next autosave.
func (d *Desktop) SaveSnapshot(name string) (snapshot.Info, error) {
	state, version := d.registry.VersionedSnapshot()
	snap := snapshot.New(name, state, d.now())
	if err := d.store.Save(snap); err != nil {
		return snapshot.Info{}, err
	}
	d.markSaved(version)
	d.logger.Info().Str("snapshot", snap.Name).Int("windows", len(snap.State.Windows)).Msg("snapshot saved")
	return snap.Info(), nil
}

// LoadSnapshot replaces the current state with the named snapshot. Any
// gesture in progress is cancelled first. The registry keeps the configured
// default constraints rather than the ones stored with the snapshot.
func (d *Desktop) LoadSnapshot(name string) (snapshot.Info, error) {
	snap, err := d.store.Load(name)
	if err != nil {
		return snapshot.Info{}, err
	}
	d.sessions.Cancel()

	state := snap.State
	state.Constraints = d.Config().Constraints
	_, version := d.registry.DispatchVersion(wm.Rehydrate{State: state})
	d.markSaved(version)

	d.logger.Info().Str("snapshot", snap.Name).Int("windows", len(snap.State.Windows)).Msg("snapshot loaded")
	return snap.Info(), nil
}

// ListSnapshots returns stored snapshots ordered by name.
func (d *Desktop) ListSnapshots() ([]snapshot.Info, error) {
	return d.store.List()
}

// DeleteSnapshot removes the named snapshot.
func (d *Desktop) DeleteSnapshot(name string) error {
	return d.store.Delete(name)
}

// Autosave saves the configured autosave snapshot when state changed since
// the last save or load. It reports whether a snapshot was written.
func (d *Desktop) Autosave() (bool, error) {
	if !d.Dirty() {
		return false, nil
	}
	name := d.Config().Snapshot.AutosaveName
	if _, err := d.SaveSnapshot(name); err != nil {
		return false, fmt.Errorf("autosave failed: %w", err)
	}
	return true, nil
}

// RestoreAutosave loads the autosave snapshot if one exists.
func (d *Desktop) RestoreAutosave() (bool, error) {
	_, err := d.LoadSnapshot(d.Config().Snapshot.AutosaveName)
	if errors.Is(err, snapshot.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
