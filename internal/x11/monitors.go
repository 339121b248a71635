package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// Insets is the space docks reserve on each edge of a monitor.
type Insets struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// Zero reports whether no edge is reserved.
func (i Insets) Zero() bool {
	return i == Insets{}
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Disabled CRTCs report no size or outputs.
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}
	return monitors, nil
}

// ActiveMonitor returns the monitor under the pointer, falling back to the
// first one.
func (c *Connection) ActiveMonitor() (Monitor, error) {
	monitors, err := c.GetMonitors()
	if err != nil {
		return Monitor{}, err
	}
	if len(monitors) == 0 {
		return Monitor{}, fmt.Errorf("no monitors found")
	}
	if mon, ok := monitorForPointer(c, monitors); ok {
		return mon, nil
	}
	return monitors[0], nil
}

// DockInsets sums the struts of dock windows that overlap monitor. When no
// dock advertises struts it falls back to the EWMH work area.
func (c *Connection) DockInsets(monitor Monitor) Insets {
	if in, ok := strutInsets(c, monitor); ok {
		return in
	}
	return workareaInsets(c, monitor)
}

func strutInsets(c *Connection, monitor Monitor) (Insets, bool) {
	root, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return Insets{}, false
	}
	rootW, rootH := int(root.Width), int(root.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return Insets{}, false
	}

	var acc Insets
	for _, win := range clients {
		if !isDock(c, win) {
			continue
		}
		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, win); err == nil {
			acc = accumulate(acc, monitor, rootW, rootH, sp)
			continue
		}
		// Some docks only set _NET_WM_STRUT; treat it as spanning the root.
		if s, err := ewmh.WmStrutGet(c.XUtil, win); err == nil {
			acc = accumulate(acc, monitor, rootW, rootH, &ewmh.WmStrutPartial{
				Left:       s.Left,
				Right:      s.Right,
				Top:        s.Top,
				Bottom:     s.Bottom,
				LeftEndY:   uint(rootH - 1),
				RightEndY:  uint(rootH - 1),
				TopEndX:    uint(rootW - 1),
				BottomEndX: uint(rootW - 1),
			})
		}
	}
	return acc, !acc.Zero()
}

func isDock(c *Connection, win xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DOCK" {
			return true
		}
	}
	return false
}

// box is a half-open screen rectangle [x1,x2) x [y1,y2).
type box struct {
	x1, y1, x2, y2 int
}

func (m Monitor) box() box {
	return box{m.X, m.Y, m.X + m.Width, m.Y + m.Height}
}

func (a box) intersect(b box) (w, h int) {
	x1, y1 := max(a.x1, b.x1), max(a.y1, b.y1)
	x2, y2 := min(a.x2, b.x2), min(a.y2, b.y2)
	if x2 <= x1 || y2 <= y1 {
		return 0, 0
	}
	return x2 - x1, y2 - y1
}

func accumulate(acc Insets, monitor Monitor, rootW, rootH int, sp *ewmh.WmStrutPartial) Insets {
	mon := monitor.box()
	if sp.Top > 0 {
		if _, h := mon.intersect(box{int(sp.TopStartX), 0, int(sp.TopEndX) + 1, int(sp.Top)}); h > 0 {
			acc.Top = max(acc.Top, h)
		}
	}
	if sp.Bottom > 0 {
		if _, h := mon.intersect(box{int(sp.BottomStartX), rootH - int(sp.Bottom), int(sp.BottomEndX) + 1, rootH}); h > 0 {
			acc.Bottom = max(acc.Bottom, h)
		}
	}
	if sp.Left > 0 {
		if w, _ := mon.intersect(box{0, int(sp.LeftStartY), int(sp.Left), int(sp.LeftEndY) + 1}); w > 0 {
			acc.Left = max(acc.Left, w)
		}
	}
	if sp.Right > 0 {
		if w, _ := mon.intersect(box{rootW - int(sp.Right), int(sp.RightStartY), rootW, int(sp.RightEndY) + 1}); w > 0 {
			acc.Right = max(acc.Right, w)
		}
	}
	return acc
}

func workareaInsets(c *Connection, monitor Monitor) Insets {
	areas, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(areas) == 0 {
		return Insets{}
	}
	idx := 0
	if cur, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(cur) < len(areas) {
		idx = int(cur)
	}
	wa := areas[idx]
	waX, waY := int(wa.X), int(wa.Y)
	mon := monitor.box()
	w, h := mon.intersect(box{waX, waY, waX + int(wa.Width), waY + int(wa.Height)})
	if w == 0 || h == 0 {
		return Insets{}
	}
	left := max(0, waX-monitor.X)
	top := max(0, waY-monitor.Y)
	return Insets{
		Left:   left,
		Top:    top,
		Right:  monitor.Width - left - w,
		Bottom: monitor.Height - top - h,
	}
}

func monitorForPointer(c *Connection, monitors []Monitor) (Monitor, bool) {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return Monitor{}, false
	}
	x, y := int(pointer.RootX), int(pointer.RootY)
	for _, mon := range monitors {
		if x >= mon.X && x < mon.X+mon.Width && y >= mon.Y && y < mon.Y+mon.Height {
			return mon, true
		}
	}
	return Monitor{}, false
}
