package tui

import (
	"fmt"
	"strings"

	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/wm"
)

type boxRunes struct {
	h, v, tl, tr, bl, br rune
}

var (
	thinBox  = boxRunes{'─', '│', '┌', '┐', '└', '┘'}
	heavyBox = boxRunes{'━', '┃', '┏', '┓', '┗', '┛'}
)

// renderViewport draws the visible windows of stack onto a character canvas
// scaled from the usable viewport. Windows are painted back to front so
// occluded borders are overwritten. Each window is labelled with its
// position in the top-first window list.
func renderViewport(stack []wm.Window, vp geom.Viewport, selected string, width, height int) []string {
	if width < 5 || height < 3 || vp.Width <= 0 || vp.UsableHeight() <= 0 {
		return emptyCanvas(width, height)
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for i, w := range stack {
		if !w.Visible() {
			continue
		}
		box := thinBox
		if w.ID == selected {
			box = heavyBox
		}
		drawWindow(canvas, w.Geometry, len(stack)-i, box, vp.Width, vp.UsableHeight(), width, height)
	}

	drawBorder(canvas, width, height)

	lines := make([]string, height)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return lines
}

func drawWindow(canvas [][]rune, r geom.Rect, num int, box boxRunes, vpW, vpH float64, canvasW, canvasH int) {
	x1 := int(r.Position.X * float64(canvasW) / vpW)
	y1 := int(r.Position.Y * float64(canvasH) / vpH)
	x2 := int(r.Right() * float64(canvasW) / vpW)
	y2 := int(r.Bottom() * float64(canvasH) / vpH)

	if x1 < 1 {
		x1 = 1
	}
	if y1 < 1 {
		y1 = 1
	}
	if x2 >= canvasW-1 {
		x2 = canvasW - 2
	}
	if y2 >= canvasH-1 {
		y2 = canvasH - 2
	}

	// Need at least 2x2 for a window
	if x2 <= x1 || y2 <= y1 {
		return
	}

	for y := y1 + 1; y < y2; y++ {
		for x := x1 + 1; x < x2; x++ {
			canvas[y][x] = ' '
		}
	}
	for x := x1; x <= x2; x++ {
		canvas[y1][x] = box.h
		canvas[y2][x] = box.h
	}
	for y := y1; y <= y2; y++ {
		canvas[y][x1] = box.v
		canvas[y][x2] = box.v
	}
	canvas[y1][x1] = box.tl
	canvas[y1][x2] = box.tr
	canvas[y2][x1] = box.bl
	canvas[y2][x2] = box.br

	centerY := (y1 + y2) / 2
	centerX := (x1 + x2) / 2
	if centerY > y1 && centerY < y2 && centerX > x1 && centerX < x2 {
		label := fmt.Sprintf("%d", num)
		startX := centerX - len(label)/2
		for i, ch := range label {
			if startX+i > x1 && startX+i < x2 {
				canvas[centerY][startX+i] = ch
			}
		}
	}
}

func drawBorder(canvas [][]rune, width, height int) {
	for x := 0; x < width; x++ {
		canvas[0][x] = '═'
		canvas[height-1][x] = '═'
	}
	for y := 0; y < height; y++ {
		canvas[y][0] = '║'
		canvas[y][width-1] = '║'
	}
	canvas[0][0] = '╔'
	canvas[0][width-1] = '╗'
	canvas[height-1][0] = '╚'
	canvas[height-1][width-1] = '╝'
}

func emptyCanvas(width, height int) []string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	lines := make([]string, height)
	empty := strings.Repeat(" ", width)
	for i := range lines {
		lines[i] = empty
	}
	return lines
}
