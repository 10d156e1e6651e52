package layout

import "testing"

func TestNeighbor(t *testing.T) {
	// [a] [ b ]
	// [a] [c][d]
	boxes := map[string]Rect{
		"a": {X: 0, Y: 0, Width: 40, Height: 100},
		"b": {X: 40, Y: 0, Width: 60, Height: 50},
		"c": {X: 40, Y: 50, Width: 30, Height: 50},
		"d": {X: 70, Y: 50, Width: 30, Height: 50},
	}

	tests := []struct {
		name string
		from string
		dir  Position
		want string
	}{
		{"right from a", "a", Right, "b"},
		{"down from b", "b", Bottom, "c"},
		{"right from c", "c", Right, "d"},
		{"left from d", "d", Left, "c"},
		{"up from d", "d", Top, "b"},
		{"left from c", "c", Left, "a"},

		// Wrapping
		{"right wrap from d", "d", Right, "a"},
		{"left wrap from a", "a", Left, "d"},
		{"down wrap from c", "c", Bottom, "b"},
		{"up wrap from b", "b", Top, "d"},

		{"center is a no-op", "a", Center, "a"},
		{"unknown group", "zz", Right, "zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Neighbor(boxes, tt.from, tt.dir); got != tt.want {
				t.Errorf("Neighbor(%s, %s) = %s, want %s", tt.from, tt.dir, got, tt.want)
			}
		})
	}
}

func TestNeighborSingleGroup(t *testing.T) {
	boxes := map[string]Rect{"only": {Width: 100, Height: 100}}
	for _, dir := range []Position{Left, Right, Top, Bottom} {
		if got := Neighbor(boxes, "only", dir); got != "only" {
			t.Errorf("Neighbor(only, %s) = %s", dir, got)
		}
	}
}
