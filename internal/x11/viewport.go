package x11

import (
	"fmt"

	"github.com/1broseidon/winstate/internal/geom"
)

// ViewportFor maps a monitor and its dock insets to an engine viewport.
// Engine coordinates start at the work area's top-left corner; the bottom
// dock is reported as chrome so maximize and snap stay above it.
func ViewportFor(mon Monitor, in Insets) geom.Viewport {
	width := max(0, mon.Width-in.Left-in.Right)
	height := max(0, mon.Height-in.Top)
	return geom.Viewport{
		Width:        float64(width),
		Height:       float64(height),
		ChromeHeight: float64(min(in.Bottom, height)),
	}
}

// Provider reads the viewport of the active monitor on every call.
type Provider struct {
	conn *Connection
}

// NewProvider opens an X11 connection for viewport queries.
func NewProvider() (*Provider, error) {
	conn, err := NewConnection()
	if err != nil {
		return nil, err
	}
	return &Provider{conn: conn}, nil
}

// Viewport returns the active monitor's work area.
func (p *Provider) Viewport() (geom.Viewport, error) {
	if p == nil || p.conn == nil {
		return geom.Viewport{}, fmt.Errorf("x11 provider not connected")
	}
	mon, err := p.conn.ActiveMonitor()
	if err != nil {
		return geom.Viewport{}, fmt.Errorf("failed to read active monitor: %w", err)
	}
	return ViewportFor(mon, p.conn.DockInsets(mon)), nil
}

// Close releases the X11 connection.
func (p *Provider) Close() error {
	if p != nil {
		p.conn.Close()
	}
	return nil
}
