package model

import "math"

// Point represents a 2D point.
type Point struct {
	X, Y float64
}

// Distance calculates the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// BBox represents a bounding box. Coordinates use a top-left origin with Y
// increasing downward, so reading order on a page is increasing Y then
// increasing X. Ingestion collaborators are responsible for converting from
// PDF bottom-up coordinates.
type BBox struct {
	X      float64 // Left
	Y      float64 // Top (distance from top of page)
	Width  float64
	Height float64
}

// NewBBox creates a bounding box from origin and size.
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// NewBBoxFromCorners creates a bounding box from (x0,y0)-(x1,y1) corners.
func NewBBoxFromCorners(x0, y0, x1, y1 float64) BBox {
	x := math.Min(x0, x1)
	y := math.Min(y0, y1)
	return BBox{X: x, Y: y, Width: math.Abs(x1 - x0), Height: math.Abs(y1 - y0)}
}

// Left returns the left edge X coordinate.
func (b BBox) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate.
func (b BBox) Right() float64 {
	return b.X + b.Width
}

// Top returns the top edge Y coordinate.
func (b BBox) Top() float64 {
	return b.Y
}

// Bottom returns the bottom edge Y coordinate.
func (b BBox) Bottom() float64 {
	return b.Y + b.Height
}

// Center returns the center point.
func (b BBox) Center() Point {
	return Point{
		X: b.X + b.Width/2,
		Y: b.Y + b.Height/2,
	}
}

// Intersects checks if two bounding boxes intersect.
func (b BBox) Intersects(other BBox) bool {
	return !(b.Right() < other.Left() ||
		b.Left() > other.Right() ||
		b.Bottom() < other.Top() ||
		b.Top() > other.Bottom())
}

// Union returns the union of two bounding boxes.
func (b BBox) Union(other BBox) BBox {
	x := math.Min(b.Left(), other.Left())
	y := math.Min(b.Top(), other.Top())
	right := math.Max(b.Right(), other.Right())
	bottom := math.Max(b.Bottom(), other.Bottom())

	return BBox{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: bottom - y,
	}
}

// VerticalGap returns the vertical distance between two boxes, or 0 when
// they overlap vertically.
func (b BBox) VerticalGap(other BBox) float64 {
	if b.Bottom() < other.Top() {
		return other.Top() - b.Bottom()
	}
	if other.Bottom() < b.Top() {
		return b.Top() - other.Bottom()
	}
	return 0
}

// GapDistance returns the minimum edge-to-edge distance between two boxes,
// or 0 when they intersect.
func (b BBox) GapDistance(other BBox) float64 {
	dx := math.Max(0, math.Max(other.Left()-b.Right(), b.Left()-other.Right()))
	dy := math.Max(0, math.Max(other.Top()-b.Bottom(), b.Top()-other.Bottom()))
	return math.Sqrt(dx*dx + dy*dy)
}

// Area returns the area of the bounding box.
func (b BBox) Area() float64 {
	return b.Width * b.Height
}

// IsEmpty returns true if the bounding box has zero area.
func (b BBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// PageGeometry describes one page of the source document, supplied by the
// ingestion collaborator alongside the span stream.
type PageGeometry struct {
	// Page is the 1-based page number.
	Page int

	// Width and Height are the page dimensions in layout units.
	Width  float64
	Height float64
}
