// Package index provides a uniform-grid spatial index used to prefilter
// candidate pairs before exact GEOS predicates run.
package index

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/twpayne/go-geos"
)

type cellKey struct {
	X, Y int
}

// GridIndex buckets feature bounding rectangles into fixed-size cells.
// Query returns a superset of the features whose bounds intersect the
// probe rectangle; callers confirm with exact geometry tests.
type GridIndex struct {
	cellSize float64
	cells    map[cellKey][]int
	rects    []r2.Rect
}

// NewGridIndex builds an index over the non-nil geometries. cellSize is
// in layer units; pass <= 0 to derive it from the mean feature extent.
func NewGridIndex(geoms []*geos.Geom, cellSize float64) *GridIndex {
	rects := make([]r2.Rect, len(geoms))
	var extentSum float64
	var counted int
	for i, g := range geoms {
		if g == nil || g.IsEmpty() {
			rects[i] = r2.EmptyRect()
			continue
		}
		b := g.Bounds()
		rects[i] = r2.RectFromPoints(
			r2.Point{X: b.MinX, Y: b.MinY},
			r2.Point{X: b.MaxX, Y: b.MaxY})
		extentSum += math.Max(b.MaxX-b.MinX, b.MaxY-b.MinY)
		counted++
	}
	if cellSize <= 0 {
		cellSize = 1
		if counted > 0 && extentSum > 0 {
			cellSize = extentSum / float64(counted)
		}
	}

	idx := &GridIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int),
		rects:    rects,
	}
	for i, r := range rects {
		if r.IsEmpty() {
			continue
		}
		idx.eachCell(r, func(k cellKey) {
			idx.cells[k] = append(idx.cells[k], i)
		})
	}
	return idx
}

func (idx *GridIndex) eachCell(r r2.Rect, visit func(cellKey)) {
	x0 := int(math.Floor(r.X.Lo / idx.cellSize))
	x1 := int(math.Floor(r.X.Hi / idx.cellSize))
	y0 := int(math.Floor(r.Y.Lo / idx.cellSize))
	y1 := int(math.Floor(r.Y.Hi / idx.cellSize))
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			visit(cellKey{X: x, Y: y})
		}
	}
}

// Query returns the indices of features whose bounds may intersect the
// bounds of g, deduplicated, in no particular order.
func (idx *GridIndex) Query(g *geos.Geom) []int {
	if g == nil || g.IsEmpty() {
		return nil
	}
	b := g.Bounds()
	probe := r2.RectFromPoints(
		r2.Point{X: b.MinX, Y: b.MinY},
		r2.Point{X: b.MaxX, Y: b.MaxY})

	seen := make(map[int]bool)
	var out []int
	idx.eachCell(probe, func(k cellKey) {
		for _, i := range idx.cells[k] {
			if seen[i] {
				continue
			}
			seen[i] = true
			if idx.rects[i].Intersects(probe) {
				out = append(out, i)
			}
		}
	})
	return out
}
