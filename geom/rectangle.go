// Package geom provides the primitive geometry used by media query
// evaluation and preview sizing.
package geom

// Rectangle is an axis-aligned box described by its width and height.
// Fields are exported and mutable; everything derived from them is
// recomputed on access, so later reads observe field changes.
type Rectangle struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// NewRectangle returns a Rectangle with the given dimensions.
func NewRectangle(width, height float64) Rectangle {
	return Rectangle{Width: width, Height: height}
}

// Area returns width multiplied by height. The result is not cached -
// mutating Width or Height changes what subsequent calls return.
func (r Rectangle) Area() float64 {
	return r.Width * r.Height
}

// Landscape reports whether the rectangle is wider than it is tall.
// Square rectangles are treated as portrait, following the CSS
// orientation feature.
func (r Rectangle) Landscape() bool {
	return r.Width > r.Height
}
