package geom

import "testing"

func TestDefaultPitch(t *testing.T) {
	tr := Default()
	if got := tr.PitchX(); got != 160 {
		t.Errorf("PitchX() = %v, want 160", got)
	}
	if got := tr.PitchY(); got != 120 {
		t.Errorf("PitchY() = %v, want 120", got)
	}
	w, h := tr.NodeSize()
	if w != 100 || h != 60 {
		t.Errorf("NodeSize() = (%v, %v), want (100, 60)", w, h)
	}
}

func TestRoundTrip(t *testing.T) {
	transforms := []Transform{
		Default(),
		{CellSize: 7, NodeWidth: 3, NodeHeight: 2, Spacing: 1.5},
		{CellSize: 1, NodeWidth: 1, NodeHeight: 1, Spacing: 0},
	}
	for _, tr := range transforms {
		for g := -50; g <= 50; g++ {
			if got := tr.ToGridX(tr.ToPixelX(g)); got != g {
				t.Errorf("%+v: ToGridX(ToPixelX(%d)) = %d", tr, g, got)
			}
			if got := tr.ToGridY(tr.ToPixelY(g)); got != g {
				t.Errorf("%+v: ToGridY(ToPixelY(%d)) = %d", tr, g, got)
			}
		}
	}
}

func TestToGridRounding(t *testing.T) {
	tr := Default()
	tests := []struct {
		px   float64
		want int
	}{
		{0, 0},
		{79, 0},
		{80, 1},
		{81, 1},
		{239, 1},
		{240, 2},
		{-79, 0},
		{-80, 0},
		{-81, -1},
	}
	for _, tt := range tests {
		if got := tr.ToGridX(tt.px); got != tt.want {
			t.Errorf("ToGridX(%v) = %d, want %d", tt.px, got, tt.want)
		}
	}
}

func TestSnap(t *testing.T) {
	tr := Default()
	x, y := tr.Snap(170, 50)
	if x != 160 || y != 0 {
		t.Errorf("Snap(170, 50) = (%v, %v), want (160, 0)", x, y)
	}
}

func TestRectIntersects(t *testing.T) {
	box := Rect{X: 100, Y: 100, W: 100, H: 60}
	tests := []struct {
		name string
		r    Rect
		want bool
	}{
		{"contains", Rect{X: 0, Y: 0, W: 500, H: 500}, true},
		{"inside", Rect{X: 120, Y: 110, W: 5, H: 5}, true},
		{"partial", Rect{X: 150, Y: 150, W: 100, H: 100}, true},
		{"touching edge", Rect{X: 200, Y: 100, W: 10, H: 10}, true},
		{"touching corner", Rect{X: 200, Y: 160, W: 10, H: 10}, true},
		{"left of", Rect{X: 0, Y: 100, W: 99, H: 60}, false},
		{"below", Rect{X: 100, Y: 161, W: 100, H: 10}, false},
		{"negative extent", Rect{X: 300, Y: 300, W: -150, H: -150}, true},
		{"negative extent miss", Rect{X: 90, Y: 90, W: -50, H: -50}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Intersects(box); got != tt.want {
				t.Errorf("Intersects() = %v, want %v", got, tt.want)
			}
			if got := box.Intersects(tt.r); got != tt.want {
				t.Errorf("Intersects() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got := Rect{X: 10, Y: 20, W: -5, H: -8}.Normalize()
	want := Rect{X: 5, Y: 12, W: 5, H: 8}
	if got != want {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
}

func TestViewRoundTrip(t *testing.T) {
	views := []View{
		{},
		{Scale: 2, PanX: 40, PanY: -10},
		{Scale: 0.5, PanX: -300, PanY: 120},
	}
	r := Rect{X: 320, Y: 360, W: 260, H: 60}
	for _, v := range views {
		got := v.ToWorld(v.ToScreen(r))
		if got != r {
			t.Errorf("%+v: ToWorld(ToScreen(r)) = %+v, want %+v", v, got, r)
		}
	}
}
