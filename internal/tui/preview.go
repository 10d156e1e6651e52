package tui

import (
	"math"
	"strings"

	"github.com/1broseidon/docktile/internal/layout"
)

// groupInfo is what the inspector shows for one tab group.
type groupInfo struct {
	id     string
	views  []layout.ViewRef
	active string
	locked bool
}

// activeView returns the active tab, or the first tab when none is marked.
func (g groupInfo) activeView() string {
	if g.active != "" {
		return g.active
	}
	if len(g.views) > 0 {
		return g.views[0].ID
	}
	return ""
}

// collectGroups lists the groups of a snapshot in tree order.
func collectGroups(n *layout.NodeSnapshot, out []groupInfo) []groupInfo {
	if n == nil {
		return out
	}
	if n.Kind == layout.KindGroup {
		return append(out, groupInfo{id: n.ID, views: n.Views, active: n.ActiveViewID, locked: n.Locked})
	}
	for _, c := range n.Children {
		out = collectGroups(c, out)
	}
	return out
}

// tabLine renders the tab strip of a group: the active tab in brackets,
// locked tabs with a trailing '!'.
func tabLine(g groupInfo) string {
	parts := make([]string, 0, len(g.views))
	active := g.activeView()
	for _, v := range g.views {
		label := v.ID
		if v.Locked {
			label += "!"
		}
		if v.ID == active {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

// renderLayout draws every visible group box scaled from canvas onto a
// width x height character grid. The focused group gets a heavy border.
func renderLayout(boxes map[string]layout.Rect, canvas layout.Rect, groups []groupInfo, focus string, width, height int) []string {
	if width < 5 || height < 3 || canvas.Empty() {
		return emptyCanvas(width, height)
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	// Draw the focused group last so its border wins on shared edges.
	order := make([]groupInfo, 0, len(groups))
	var focused *groupInfo
	for i := range groups {
		if groups[i].id == focus {
			focused = &groups[i]
			continue
		}
		order = append(order, groups[i])
	}
	if focused != nil {
		order = append(order, *focused)
	}

	for _, g := range order {
		box, ok := boxes[g.id]
		if !ok {
			continue
		}
		x1 := scale(box.X-canvas.X, canvas.Width, width)
		y1 := scale(box.Y-canvas.Y, canvas.Height, height)
		x2 := scale(box.X+box.Width-canvas.X, canvas.Width, width) - 1
		y2 := scale(box.Y+box.Height-canvas.Y, canvas.Height, height) - 1
		drawBox(grid, x1, y1, x2, y2, g.id == focus)

		title := g.id
		if g.locked {
			title += " (locked)"
		}
		writeClipped(grid, y1, x1+2, x2-1, " "+title+" ")
		writeClipped(grid, y1+1, x1+1, x2-1, tabLine(g))
	}

	lines := make([]string, height)
	for i, row := range grid {
		lines[i] = string(row)
	}
	return lines
}

func scale(v, total float64, cells int) int {
	return int(math.Round(v / total * float64(cells)))
}

var (
	lightBorder = [6]rune{'─', '│', '┌', '┐', '└', '┘'}
	heavyBorder = [6]rune{'━', '┃', '┏', '┓', '┗', '┛'}
)

func drawBox(grid [][]rune, x1, y1, x2, y2 int, heavy bool) {
	h, w := len(grid), len(grid[0])
	x1, y1 = max(x1, 0), max(y1, 0)
	x2, y2 = min(x2, w-1), min(y2, h-1)
	if x2 <= x1 || y2 <= y1 {
		return
	}
	b := lightBorder
	if heavy {
		b = heavyBorder
	}
	for x := x1; x <= x2; x++ {
		grid[y1][x] = b[0]
		grid[y2][x] = b[0]
	}
	for y := y1; y <= y2; y++ {
		grid[y][x1] = b[1]
		grid[y][x2] = b[1]
	}
	grid[y1][x1] = b[2]
	grid[y1][x2] = b[3]
	grid[y2][x1] = b[4]
	grid[y2][x2] = b[5]
}

// writeClipped writes s on row y starting at x, never past column limit.
func writeClipped(grid [][]rune, y, x, limit int, s string) {
	if y < 0 || y >= len(grid) {
		return
	}
	for _, r := range s {
		if x > limit || x >= len(grid[y]) {
			return
		}
		if x >= 0 {
			grid[y][x] = r
		}
		x++
	}
}

func emptyCanvas(width, height int) []string {
	if height < 0 {
		height = 0
	}
	lines := make([]string, height)
	empty := strings.Repeat(" ", max(width, 0))
	for i := range lines {
		lines[i] = empty
	}
	return lines
}
