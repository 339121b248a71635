// Package platform supplies the viewport the engine lays windows out in.
package platform

import (
	"fmt"
	"sync"

	"github.com/1broseidon/winstate/internal/geom"
)

// Backend names a viewport source.
type Backend string

const (
	BackendStatic Backend = "static"
	BackendX11    Backend = "x11"
)

// ViewportProvider returns the current viewport. Implementations must not
// cache: the host surface can change size at any time.
type ViewportProvider interface {
	Viewport() (geom.Viewport, error)
}

// Static serves a configured viewport. Set replaces it, for example after a
// config reload or a host resize event.
type Static struct {
	mu sync.RWMutex
	vp geom.Viewport
}

var _ ViewportProvider = (*Static)(nil)

// NewStatic returns a provider serving vp.
func NewStatic(vp geom.Viewport) *Static {
	return &Static{vp: vp}
}

// Viewport returns the configured viewport.
func (s *Static) Viewport() (geom.Viewport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vp, nil
}

// Set replaces the served viewport.
func (s *Static) Set(vp geom.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vp = vp
}

// Fallback wraps a provider and serves a static viewport whenever the
// primary one fails.
type Fallback struct {
	Primary  ViewportProvider
	Fallback *Static
}

// Viewport returns the primary viewport, or the fallback on error.
func (f Fallback) Viewport() (geom.Viewport, error) {
	if f.Primary != nil {
		if vp, err := f.Primary.Viewport(); err == nil && vp.Width > 0 && vp.Height > 0 {
			return vp, nil
		}
	}
	if f.Fallback == nil {
		return geom.Viewport{}, fmt.Errorf("no viewport available")
	}
	return f.Fallback.Viewport()
}

// Open returns the provider for backend together with a close function.
// Static always succeeds; X11 needs a reachable display.
func Open(backend Backend, static *Static) (ViewportProvider, func() error, error) {
	noop := func() error { return nil }
	switch backend {
	case "", BackendStatic:
		return static, noop, nil
	case BackendX11:
		p, closeFn, err := openX11()
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open x11 backend: %w", err)
		}
		return Fallback{Primary: p, Fallback: static}, closeFn, nil
	default:
		return nil, noop, fmt.Errorf("unknown backend %q", backend)
	}
}
