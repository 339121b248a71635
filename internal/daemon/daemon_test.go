package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/1broseidon/winstate/internal/config"
	"github.com/1broseidon/winstate/internal/desktop"
	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/ipc"
	"github.com/1broseidon/winstate/internal/wm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("os/signal.signal_recv"))
}

type countingSaver struct {
	calls atomic.Int32
	fail  bool
	panic bool
}

func (s *countingSaver) Autosave() (bool, error) {
	n := s.calls.Add(1)
	if s.panic && n == 1 {
		panic("boom")
	}
	if s.fail {
		return false, errors.New("disk full")
	}
	return true, nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestAutosaverSavesOnTickAndExit(t *testing.T) {
	tests := []struct {
		name  string
		saver *countingSaver
	}{
		{name: "ok", saver: &countingSaver{}},
		{name: "errors are logged", saver: &countingSaver{fail: true}},
		{name: "panic is recovered", saver: &countingSaver{panic: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAutosaver(5*time.Millisecond, tt.saver, zerolog.Nop())
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- a.Run(ctx) }()

			waitFor(t, "two ticks", func() bool { return tt.saver.calls.Load() >= 2 })
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("run returned %v", err)
			}
			before := tt.saver.calls.Load()
			if before < 3 {
				t.Fatalf("expected a final save on exit, got %d calls", before)
			}
		})
	}
}

func TestNewAutosaverDefaultsInterval(t *testing.T) {
	a := NewAutosaver(0, &countingSaver{}, zerolog.Nop())
	if a.interval != 30*time.Second {
		t.Fatalf("interval = %v, want 30s", a.interval)
	}
}

func TestConfigWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	var reloads atomic.Int32
	w := NewConfigWatcher(path, func() error {
		reloads.Add(1)
		return nil
	}, zerolog.Nop())
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	if err := os.WriteFile(path, []byte("backend: static\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	waitFor(t, "reload", func() bool { return reloads.Load() >= 1 })

	time.Sleep(60 * time.Millisecond)
	if n := reloads.Load(); n != 1 {
		t.Fatalf("expected debounced single reload, got %d", n)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run returned %v", err)
	}
}

func TestConfigWatcherMissingDirectory(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "nope", "config.yaml"), func() error { return nil }, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("expected idle watcher to exit cleanly, got %v", err)
	}
}

func writeConfig(t *testing.T, path, snapshotDir string, width int) {
	t.Helper()
	data := fmt.Sprintf(`viewport:
  width: %d
  height: 800
  chrome_height: 64
snapshot:
  dir: %s
  restore_on_start: true
`, width, snapshotDir)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func startDaemon(t *testing.T, cfgPath, dir string) (*desktop.Desktop, *ipc.Client, context.CancelFunc, <-chan error) {
	t.Helper()
	res, err := config.LoadFromPath(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	desk, err := desktop.New(res.Config)
	if err != nil {
		t.Fatalf("new desktop: %v", err)
	}
	t.Cleanup(func() { desk.Close() })

	socket := filepath.Join(dir, "w.sock")
	d, err := New(desk, Options{
		ConfigPath: cfgPath,
		SocketPath: socket,
		PIDPath:    filepath.Join(dir, "w.pid"),
		Watch:      true,
		Logger:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	client := ipc.NewClientForSocket(socket)
	waitFor(t, "daemon socket", func() bool { return client.Ping() == nil })
	return desk, client, cancel, done
}

func TestDaemonRunServesReloadsAndRestores(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	snapDir := filepath.Join(dir, "snapshots")
	writeConfig(t, cfgPath, snapDir, 1200)

	desk, client, cancel, done := startDaemon(t, cfgPath, dir)

	pid, err := ReadPIDFile(filepath.Join(dir, "w.pid"))
	if err != nil || pid != os.Getpid() {
		t.Fatalf("pid file: pid=%d err=%v", pid, err)
	}

	if _, err := client.Open(wm.Descriptor{ID: "a", DisplayName: "Editor", Geometry: geom.R(10, 20, 300, 200)}); err != nil {
		t.Fatalf("open: %v", err)
	}

	writeConfig(t, cfgPath, snapDir, 1600)
	waitFor(t, "config reload", func() bool { return desk.Config().Viewport.Width == 1600 })

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run returned %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "w.pid")); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, stat err=%v", err)
	}

	desk2, _, cancel2, done2 := startDaemon(t, cfgPath, dir)
	defer func() {
		cancel2()
		<-done2
	}()
	w, ok := desk2.Registry().Window("a")
	if !ok || w.Geometry != geom.R(10, 20, 300, 200) {
		t.Fatalf("expected window restored from autosave, got %+v ok=%v", w, ok)
	}
}

func TestDaemonReloadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeConfig(t, cfgPath, filepath.Join(dir, "snapshots"), 1200)

	res, err := config.LoadFromPath(cfgPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	desk, err := desktop.New(res.Config)
	if err != nil {
		t.Fatalf("new desktop: %v", err)
	}
	defer desk.Close()

	d, err := New(desk, Options{ConfigPath: cfgPath, SocketPath: filepath.Join(dir, "w.sock"), Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	if err := os.WriteFile(cfgPath, []byte("backend: wayland\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := d.Reload(); err == nil {
		t.Fatalf("expected invalid backend to be rejected")
	}
	if desk.Config().Backend != config.BackendStatic {
		t.Fatalf("running config must be kept, got backend %q", desk.Config().Backend)
	}

	if _, err := New(desk, Options{}); err == nil {
		t.Fatalf("expected missing socket path to be rejected")
	}
}
