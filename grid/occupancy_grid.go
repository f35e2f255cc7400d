package grid

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// OccupancyGrid owns a DistanceField and places it in the world: it maps world
// coordinates to grid cells by a pure affine transform, bounds-checks queries,
// and rasterizes obstacle geometry at grid resolution.
//
// Being out of bounds is a distinct outcome from being in collision; callers
// must check IsInBounds before calling Distance.
type OccupancyGrid struct {
	field      *DistanceField
	origin     r3.Vector
	resolution float64
	frame      string
}

// NewOccupancyGrid constructs a grid of the given world dimensions (world
// units per axis) anchored at origin. The backing distance field caps reported
// distances at maxDistance.
func NewOccupancyGrid(size, origin r3.Vector, resolution, maxDistance float64, frame string) (*OccupancyGrid, error) {
	if resolution <= 0 {
		return nil, errors.Errorf("grid resolution must be positive, got %f", resolution)
	}
	nx := int(math.Ceil(size.X / resolution))
	ny := int(math.Ceil(size.Y / resolution))
	nz := int(math.Ceil(size.Z / resolution))
	field, err := NewDistanceField(nx, ny, nz, resolution, maxDistance)
	if err != nil {
		return nil, err
	}
	return &OccupancyGrid{
		field:      field,
		origin:     origin,
		resolution: resolution,
		frame:      frame,
	}, nil
}

// Resolution returns the cell edge length in world units.
func (g *OccupancyGrid) Resolution() float64 {
	return g.resolution
}

// MaxDistance returns the cap on reported obstacle distances.
func (g *OccupancyGrid) MaxDistance() float64 {
	return g.field.maxDistance
}

// ReferenceFrame returns the name of the world frame the grid is expressed in.
func (g *OccupancyGrid) ReferenceFrame() string {
	return g.frame
}

// WorldToGrid converts a world point to the coordinates of the cell containing it.
func (g *OccupancyGrid) WorldToGrid(p r3.Vector) (int, int, int) {
	return int(math.Floor((p.X - g.origin.X) / g.resolution)),
		int(math.Floor((p.Y - g.origin.Y) / g.resolution)),
		int(math.Floor((p.Z - g.origin.Z) / g.resolution))
}

// GridToWorld converts grid coordinates to the world point at the cell's center.
func (g *OccupancyGrid) GridToWorld(gx, gy, gz int) r3.Vector {
	return r3.Vector{
		X: g.origin.X + (float64(gx)+0.5)*g.resolution,
		Y: g.origin.Y + (float64(gy)+0.5)*g.resolution,
		Z: g.origin.Z + (float64(gz)+0.5)*g.resolution,
	}
}

// IsInBounds returns whether the given grid coordinates address a cell of the field.
func (g *OccupancyGrid) IsInBounds(gx, gy, gz int) bool {
	return g.field.contains(gx, gy, gz)
}

// Distance returns the capped distance from the given in-bounds cell to the
// nearest obstacle.
func (g *OccupancyGrid) Distance(gx, gy, gz int) float64 {
	return g.field.Distance(gx, gy, gz)
}

// AddSphere inserts a solid sphere of obstacle at the given world center.
func (g *OccupancyGrid) AddSphere(center r3.Vector, radius float64) {
	g.field.AddObstacleCells(g.sphereCells(center, radius))
}

// RemoveSphere removes a sphere previously inserted with AddSphere.
func (g *OccupancyGrid) RemoveSphere(center r3.Vector, radius float64) {
	g.field.RemoveObstacleCells(g.sphereCells(center, radius))
}

// AddBox inserts a solid axis-aligned box of obstacle centered at the given
// world point with the given full extents.
func (g *OccupancyGrid) AddBox(center, dims r3.Vector) {
	g.field.AddObstacleCells(g.boxCells(center, dims))
}

// RemoveBox removes a box previously inserted with AddBox.
func (g *OccupancyGrid) RemoveBox(center, dims r3.Vector) {
	g.field.RemoveObstacleCells(g.boxCells(center, dims))
}

// AddLine inserts obstacle cells along the segment between two world points,
// thickened to the given radius.
func (g *OccupancyGrid) AddLine(from, to r3.Vector, radius float64) {
	seg := to.Sub(from)
	length := seg.Norm()
	if length == 0 {
		g.AddSphere(from, radius)
		return
	}
	// stamp spheres at sub-resolution steps along the segment
	steps := int(math.Ceil(length/(0.5*g.resolution))) + 1
	cells := map[Cell]bool{}
	for i := 0; i <= steps; i++ {
		p := from.Add(seg.Mul(float64(i) / float64(steps)))
		for _, c := range g.sphereCells(p, radius) {
			cells[c] = true
		}
	}
	unique := make([]Cell, 0, len(cells))
	for c := range cells {
		unique = append(unique, c)
	}
	g.field.AddObstacleCells(unique)
}

func (g *OccupancyGrid) sphereCells(center r3.Vector, radius float64) []Cell {
	minX, minY, minZ := g.WorldToGrid(center.Sub(r3.Vector{X: radius, Y: radius, Z: radius}))
	maxX, maxY, maxZ := g.WorldToGrid(center.Add(r3.Vector{X: radius, Y: radius, Z: radius}))
	cx, cy, cz := g.WorldToGrid(center)
	var cells []Cell
	for gx := minX; gx <= maxX; gx++ {
		for gy := minY; gy <= maxY; gy++ {
			for gz := minZ; gz <= maxZ; gz++ {
				if !g.field.contains(gx, gy, gz) {
					continue
				}
				// the cell containing the center is always occupied, even when
				// the radius is smaller than the distance to the cell's center
				if (gx == cx && gy == cy && gz == cz) ||
					g.GridToWorld(gx, gy, gz).Sub(center).Norm() <= radius {
					cells = append(cells, Cell{gx, gy, gz})
				}
			}
		}
	}
	return cells
}

func (g *OccupancyGrid) boxCells(center, dims r3.Vector) []Cell {
	half := dims.Mul(0.5)
	minX, minY, minZ := g.WorldToGrid(center.Sub(half))
	maxX, maxY, maxZ := g.WorldToGrid(center.Add(half))
	var cells []Cell
	for gx := minX; gx <= maxX; gx++ {
		for gy := minY; gy <= maxY; gy++ {
			for gz := minZ; gz <= maxZ; gz++ {
				if g.field.contains(gx, gy, gz) {
					cells = append(cells, Cell{gx, gy, gz})
				}
			}
		}
	}
	return cells
}
