// Package geom converts between logical grid coordinates and rendered pixel
// coordinates, and provides the rectangle test used by selection.
//
// Every node occupies one grid cell. A cell is as wide as a node plus the
// spacing between neighbouring nodes, measured in multiples of the base
// cell size:
//
//	pitchX = (NodeWidth  + Spacing) * CellSize
//	pitchY = (NodeHeight + Spacing) * CellSize
//
// With the defaults (cell 20, node 5x3, spacing 3) a cell is 160x120 pixels
// and a node box is 100x60 pixels.
//
// All functions are pure. Converting an integer grid coordinate to pixels and
// back always yields the original value.
package geom

import "math"

// Default dimensions, in base cells.
const (
	DefaultCellSize   = 20
	DefaultNodeWidth  = 5
	DefaultNodeHeight = 3
	DefaultSpacing    = 3
)

// Transform holds the per-axis extents used for coordinate conversion.
type Transform struct {
	CellSize   float64 // Pixel size of one base cell
	NodeWidth  float64 // Node width in base cells
	NodeHeight float64 // Node height in base cells
	Spacing    float64 // Gap between neighbouring nodes in base cells
}

// Default returns the transform used by the editor.
func Default() Transform {
	return Transform{
		CellSize:   DefaultCellSize,
		NodeWidth:  DefaultNodeWidth,
		NodeHeight: DefaultNodeHeight,
		Spacing:    DefaultSpacing,
	}
}

// PitchX returns the pixel width of one grid column.
func (t Transform) PitchX() float64 { return (t.NodeWidth + t.Spacing) * t.CellSize }

// PitchY returns the pixel height of one grid row.
func (t Transform) PitchY() float64 { return (t.NodeHeight + t.Spacing) * t.CellSize }

// ToPixelX converts a grid column to its pixel offset.
func (t Transform) ToPixelX(gx int) float64 { return float64(gx) * t.PitchX() }

// ToPixelY converts a grid row to its pixel offset.
func (t Transform) ToPixelY(gy int) float64 { return float64(gy) * t.PitchY() }

// ToGridX snaps a pixel offset to the nearest grid column.
func (t Transform) ToGridX(px float64) int { return roundHalfUp(px / t.PitchX()) }

// ToGridY snaps a pixel offset to the nearest grid row.
func (t Transform) ToGridY(py float64) int { return roundHalfUp(py / t.PitchY()) }

// ToPixel converts a grid cell to pixels.
func (t Transform) ToPixel(gx, gy int) (float64, float64) {
	return t.ToPixelX(gx), t.ToPixelY(gy)
}

// ToGrid snaps a pixel position to the nearest grid cell.
func (t Transform) ToGrid(px, py float64) (int, int) {
	return t.ToGridX(px), t.ToGridY(py)
}

// Snap returns the pixel position of the grid cell nearest to (px, py).
func (t Transform) Snap(px, py float64) (float64, float64) {
	return t.ToPixel(t.ToGrid(px, py))
}

// NodeSize returns the pixel size of a node box.
func (t Transform) NodeSize() (w, h float64) {
	return t.NodeWidth * t.CellSize, t.NodeHeight * t.CellSize
}

// NodeBox returns the pixel box of a node whose top-left corner is (px, py).
func (t Transform) NodeBox(px, py float64) Rect {
	w, h := t.NodeSize()
	return Rect{X: px, Y: py, W: w, H: h}
}

// roundHalfUp rounds halves towards positive infinity so that a node dragged
// exactly half a cell moves the same way in both directions.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Rect is an axis-aligned rectangle in pixel space.
// W and H may be negative for rectangles dragged up or left; use [Rect.Normalize].
type Rect struct {
	X, Y, W, H float64
}

// Normalize returns an equivalent rectangle with non-negative width and height.
func (r Rect) Normalize() Rect {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Intersects reports whether r and o overlap. Rectangles that only touch at
// an edge or a corner count as intersecting.
func (r Rect) Intersects(o Rect) bool {
	a, b := r.Normalize(), o.Normalize()
	return a.X <= b.X+b.W && b.X <= a.X+a.W &&
		a.Y <= b.Y+b.H && b.Y <= a.Y+a.H
}

// View is a pan/zoom transform from pixel (world) space to screen space:
// screen = world*Scale + Pan. The zero Scale is treated as 1.
type View struct {
	Scale      float64
	PanX, PanY float64
}

func (v View) scale() float64 {
	if v.Scale == 0 {
		return 1
	}
	return v.Scale
}

// ToWorld maps a screen-space rectangle to pixel space.
func (v View) ToWorld(r Rect) Rect {
	s := v.scale()
	return Rect{X: (r.X - v.PanX) / s, Y: (r.Y - v.PanY) / s, W: r.W / s, H: r.H / s}
}

// ToScreen maps a pixel-space rectangle to screen space.
func (v View) ToScreen(r Rect) Rect {
	s := v.scale()
	return Rect{X: r.X*s + v.PanX, Y: r.Y*s + v.PanY, W: r.W * s, H: r.H * s}
}
