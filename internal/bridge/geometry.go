// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

// =============================================================================
// GEOMETRY
// =============================================================================

// ClickLineHeight is the line height reported for clicks located through
// the pointer rather than renderer-provided coordinates.
const ClickLineHeight = 22.0

// Point is a 2D coordinate.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle with its origin at (X, Y).
type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) MinX() float64 { return r.X }
func (r Rect) MaxX() float64 { return r.X + r.Width }
func (r Rect) MidX() float64 { return r.X + r.Width/2 }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Surface is a non-owning view of the area the renderer draws into.
//
// Surface-local coordinates have a top-left origin. Window and screen
// coordinates have a bottom-left origin.
type Surface interface {
	// Attached reports whether the surface is currently in a window.
	Attached() bool
	// Bounds is the surface rectangle in its own coordinates.
	Bounds() Rect
	// FrameInWindow is the surface rectangle in window coordinates.
	FrameInWindow() Rect
	// WindowOrigin is the window's bottom-left corner on screen.
	WindowOrigin() Point
	// Pointer returns the current pointer location on screen, if known.
	Pointer() (Point, bool)
}

// LineClickPosition locates a clicked line for overlay placement.
type LineClickPosition struct {
	LineNumber int
	Side       string
	// LineY is the line's bottom edge, surface-local.
	LineY      float64
	LineHeight float64
}

// WindowPoint converts a surface-local Y into window coordinates, using the
// horizontal middle of the surface for X.
func WindowPoint(s Surface, localY float64) (Point, bool) {
	if !attached(s) {
		return Point{}, false
	}
	frame := s.FrameInWindow()
	bounds := s.Bounds()
	return Point{
		X: frame.MinX() + (bounds.MidX() - bounds.MinX()),
		Y: frame.MaxY() - (localY - bounds.MinY()),
	}, true
}

// LocalPoint converts a screen point into surface-local coordinates with a
// top-left origin.
func LocalPoint(s Surface, screen Point) (Point, bool) {
	if !attached(s) {
		return Point{}, false
	}
	origin := s.WindowOrigin()
	win := Point{X: screen.X - origin.X, Y: screen.Y - origin.Y}
	frame := s.FrameInWindow()
	return Point{
		X: win.X - frame.MinX(),
		Y: frame.MaxY() - win.Y,
	}, true
}

// locateClick resolves the overlay position of a click. Renderer-provided
// coordinates are preferred; otherwise the pointer location is used.
func locateClick(s Surface, ev LineClickedEvent) (LineClickPosition, Point, bool) {
	if !attached(s) {
		return LineClickPosition{}, Point{}, false
	}

	if ev.HasPosition {
		win, ok := WindowPoint(s, ev.LineY)
		if !ok {
			return LineClickPosition{}, Point{}, false
		}
		frame := s.FrameInWindow()
		local := Point{X: win.X - frame.MinX(), Y: ev.LineY}
		return LineClickPosition{
			LineNumber: ev.LineNumber,
			Side:       ev.Side,
			LineY:      ev.LineY,
			LineHeight: ev.LineHeight,
		}, local, true
	}

	screen, ok := s.Pointer()
	if !ok {
		return LineClickPosition{}, Point{}, false
	}
	local, ok := LocalPoint(s, screen)
	if !ok {
		return LineClickPosition{}, Point{}, false
	}
	return LineClickPosition{
		LineNumber: ev.LineNumber,
		Side:       ev.Side,
		LineY:      local.Y,
		LineHeight: ClickLineHeight,
	}, local, true
}

func attached(s Surface) bool {
	return s != nil && s.Attached()
}
