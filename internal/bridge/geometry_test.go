// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import "testing"

// fixedSurface is a Surface with constant geometry.
type fixedSurface struct {
	attached   bool
	bounds     Rect
	frame      Rect
	origin     Point
	pointer    Point
	hasPointer bool
}

func (s *fixedSurface) Attached() bool         { return s.attached }
func (s *fixedSurface) Bounds() Rect           { return s.bounds }
func (s *fixedSurface) FrameInWindow() Rect    { return s.frame }
func (s *fixedSurface) WindowOrigin() Point    { return s.origin }
func (s *fixedSurface) Pointer() (Point, bool) { return s.pointer, s.hasPointer }

func TestWindowPoint(t *testing.T) {
	s := &fixedSurface{
		attached: true,
		bounds:   Rect{Width: 200, Height: 100},
		frame:    Rect{X: 10, Y: 20, Width: 200, Height: 100},
	}

	got, ok := WindowPoint(s, 30)
	if !ok {
		t.Fatal("Expected a point for an attached surface")
	}
	// Mid X of the surface, Y flipped against the frame's top edge (20+100).
	if want := (Point{X: 110, Y: 90}); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestLocalPoint(t *testing.T) {
	s := &fixedSurface{
		attached: true,
		bounds:   Rect{Width: 200, Height: 100},
		frame:    Rect{X: 10, Y: 20, Width: 200, Height: 100},
		origin:   Point{X: 500, Y: 300},
	}

	// Screen (560, 400) is window (60, 100): 50 right of the frame and 20
	// below its top edge.
	got, ok := LocalPoint(s, Point{X: 560, Y: 400})
	if !ok {
		t.Fatal("Expected a point for an attached surface")
	}
	if want := (Point{X: 50, Y: 20}); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestGeometry_AbsentSurface(t *testing.T) {
	if _, ok := WindowPoint(nil, 10); ok {
		t.Error("Expected no point for nil surface")
	}
	detached := &fixedSurface{attached: false}
	if _, ok := LocalPoint(detached, Point{}); ok {
		t.Error("Expected no point for detached surface")
	}
	if _, _, ok := locateClick(detached, LineClickedEvent{HasPosition: true}); ok {
		t.Error("Expected no click position for detached surface")
	}
}

func TestLocateClick_FallsBackToPointer(t *testing.T) {
	s := &fixedSurface{
		attached:   true,
		bounds:     Rect{Width: 200, Height: 100},
		frame:      Rect{X: 0, Y: 0, Width: 200, Height: 100},
		pointer:    Point{X: 40, Y: 70},
		hasPointer: true,
	}

	pos, local, ok := locateClick(s, LineClickedEvent{LineNumber: 4, Side: "left", LineHeight: DefaultLineHeight})
	if !ok {
		t.Fatal("Expected a position from the pointer")
	}
	if local != (Point{X: 40, Y: 30}) {
		t.Errorf("Expected local (40,30), got %+v", local)
	}
	if pos.LineY != 30 || pos.LineHeight != ClickLineHeight || pos.LineNumber != 4 {
		t.Errorf("Unexpected position %+v", pos)
	}

	s.hasPointer = false
	if _, _, ok := locateClick(s, LineClickedEvent{}); ok {
		t.Error("Expected no position without pointer or renderer coordinates")
	}
}
