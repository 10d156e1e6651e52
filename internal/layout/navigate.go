package layout

import (
	"math"
	"sort"
)

// Neighbor returns the group reached by moving from group from in direction
// dir, using the box centers. The closest box (Manhattan distance) whose
// center lies in that direction wins. With none, navigation wraps to the box
// furthest the other way, preferring the same row or column. Center and
// unknown ids return from unchanged.
func Neighbor(boxes map[string]Rect, from string, dir Position) string {
	cur, ok := boxes[from]
	if !ok || dir == Center || !dir.Valid() {
		return from
	}
	cx, cy := center(cur)

	ids := make([]string, 0, len(boxes))
	for id := range boxes {
		if id != from {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	best, bestDist := "", math.Inf(1)
	for _, id := range ids {
		x, y := center(boxes[id])
		var ahead bool
		switch dir {
		case Top:
			ahead = y < cy
		case Bottom:
			ahead = y > cy
		case Left:
			ahead = x < cx
		case Right:
			ahead = x > cx
		}
		if !ahead {
			continue
		}
		if d := math.Abs(x-cx) + math.Abs(y-cy); d < bestDist {
			best, bestDist = id, d
		}
	}
	if best != "" {
		return best
	}

	// Wrap: furthest along the opposite edge, then closest across.
	bestScore := math.Inf(-1)
	for _, id := range ids {
		x, y := center(boxes[id])
		var along, across float64
		switch dir {
		case Top:
			along, across = y, math.Abs(x-cx)
		case Bottom:
			along, across = -y, math.Abs(x-cx)
		case Left:
			along, across = x, math.Abs(y-cy)
		case Right:
			along, across = -x, math.Abs(y-cy)
		}
		if score := along*10000 - across; score > bestScore {
			best, bestScore = id, score
		}
	}
	if best != "" {
		return best
	}
	return from
}

func center(r Rect) (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}
