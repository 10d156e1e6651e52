package drag

import (
	"math"

	"github.com/1broseidon/docktile/internal/layout"
)

// Zone is where a drop lands relative to the target group.
type Zone = layout.Position

// DefaultEdgeBand is the fraction of the box width or height that counts as
// an edge.
const DefaultEdgeBand = 0.2

// ComputeDropZone maps a pointer inside box to a drop zone using the default
// edge band.
func ComputeDropZone(box layout.Rect, x, y float64) Zone {
	return ComputeDropZoneBand(box, x, y, DefaultEdgeBand)
}

// ComputeDropZoneBand maps a pointer inside box to a drop zone. Left and
// right are tested before top and bottom, so corners resolve horizontally.
// Comparisons are strict: a pointer exactly on the band line is center.
func ComputeDropZoneBand(box layout.Rect, x, y, band float64) Zone {
	if box.Empty() {
		return layout.Center
	}
	band = ClampBand(band)
	fx := clamp01((x - box.X) / box.Width)
	fy := clamp01((y - box.Y) / box.Height)
	switch {
	case fx < band:
		return layout.Left
	case fx > 1-band:
		return layout.Right
	case fy < band:
		return layout.Top
	case fy > 1-band:
		return layout.Bottom
	}
	return layout.Center
}

// ClampBand keeps an edge band within [0, 0.5]. Invalid values fall back to
// the default.
func ClampBand(band float64) float64 {
	if math.IsNaN(band) || band < 0 {
		return DefaultEdgeBand
	}
	if band > 0.5 {
		return 0.5
	}
	return band
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// zoneInset is how far into the box, as a fraction, ZonePoint places edge
// points.
const zoneInset = 0.01

// ZonePoint returns a point inside box that ComputeDropZoneBand resolves to
// zone for any edge band above 1%.
func ZonePoint(box layout.Rect, zone Zone) (float64, float64) {
	cx, cy := box.X+box.Width/2, box.Y+box.Height/2
	switch zone {
	case layout.Left:
		return box.X + box.Width*zoneInset, cy
	case layout.Right:
		return box.X + box.Width*(1-zoneInset), cy
	case layout.Top:
		return cx, box.Y + box.Height*zoneInset
	case layout.Bottom:
		return cx, box.Y + box.Height*(1-zoneInset)
	}
	return cx, cy
}
