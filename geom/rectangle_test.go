package geom

import "testing"

func TestRectangleArea(t *testing.T) {
	r := NewRectangle(10, 20)
	if got := r.Area(); got != 200 {
		t.Errorf("Area() = %v, want 200", got)
	}

	// area is derived, not stored
	r.Width = 5
	if got := r.Area(); got != 100 {
		t.Errorf("Area() after width change = %v, want 100", got)
	}
	r.Height = 3
	if got := r.Area(); got != 15 {
		t.Errorf("Area() after height change = %v, want 15", got)
	}
}

func TestRectangleLandscape(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		want          bool
	}{
		{"wide", 1024, 768, true},
		{"tall", 768, 1024, false},
		{"square", 500, 500, false},
		{"zero", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewRectangle(tt.width, tt.height).Landscape(); got != tt.want {
				t.Errorf("Landscape() = %v, want %v", got, tt.want)
			}
		})
	}
}
