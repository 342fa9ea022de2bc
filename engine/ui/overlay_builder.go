package ui

// OverlayBuilderOption is a functional option applied to an overlay during construction via NewOverlay.
type OverlayBuilderOption func(*overlay)

// WithTitle sets the panel heading.
//
// Parameters:
//   - title: the heading text
//
// Returns:
//   - OverlayBuilderOption: option function to apply
func WithTitle(title string) OverlayBuilderOption {
	return func(o *overlay) {
		o.title = title
	}
}

// WithPosition sets the top-left corner of the panel in pixels.
//
// Parameters:
//   - x: left edge
//   - y: top edge
//
// Returns:
//   - OverlayBuilderOption: option function to apply
func WithPosition(x, y float32) OverlayBuilderOption {
	return func(o *overlay) {
		o.x, o.y = x, y
	}
}

// WithWidth sets the panel width in pixels. Values at or below twice the padding are ignored.
func WithWidth(width float32) OverlayBuilderOption {
	return func(o *overlay) {
		if width > 2*panelPadding {
			o.width = width
		}
	}
}

// WithMaxVertices sets the vertex capacity of the overlay mesh. Non-positive values are ignored.
func WithMaxVertices(n int) OverlayBuilderOption {
	return func(o *overlay) {
		if n > 0 {
			o.maxVertices = n
		}
	}
}
