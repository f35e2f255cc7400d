// Package grid implements the voxel distance field consulted by collision
// checking, and the occupancy grid that maps it into the world frame.
package grid

import (
	"math"

	"github.com/pkg/errors"
)

// Cell addresses a single voxel of a distance field by integer grid coordinates.
type Cell struct {
	X, Y, Z int
}

// cellOffset is a precomputed neighbor offset together with its Euclidean
// distance in world units.
type cellOffset struct {
	dx, dy, dz int
	dist       float64
}

// DistanceField is a dense voxel grid storing, per cell, the distance to the
// nearest occupied cell, capped at a configured maximum. Obstacle insertion
// propagates distances outward to the cap; cells beyond the cap report the cap
// itself, never infinity.
//
// Distance queries are safe to make concurrently with one another, but never
// concurrently with AddObstacleCells, RemoveObstacleCells or Rebuild. Writers
// must be serialized externally against all readers.
type DistanceField struct {
	nx, ny, nz  int
	resolution  float64
	maxDistance float64

	distances []float64
	occupied  map[Cell]bool

	// all offsets within the cap radius, computed once at construction
	offsets []cellOffset
}

// NewDistanceField returns an empty field of the given cell dimensions. Every
// cell starts at maxDistance. Resolution is the cell edge length in world units.
func NewDistanceField(nx, ny, nz int, resolution, maxDistance float64) (*DistanceField, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, errors.Errorf("field dimensions must be positive, got (%d, %d, %d)", nx, ny, nz)
	}
	if resolution <= 0 {
		return nil, errors.Errorf("resolution must be positive, got %f", resolution)
	}
	if maxDistance <= 0 {
		return nil, errors.Errorf("max distance must be positive, got %f", maxDistance)
	}

	df := &DistanceField{
		nx:          nx,
		ny:          ny,
		nz:          nz,
		resolution:  resolution,
		maxDistance: maxDistance,
		distances:   make([]float64, nx*ny*nz),
		occupied:    map[Cell]bool{},
	}
	for i := range df.distances {
		df.distances[i] = maxDistance
	}

	capCells := int(math.Ceil(maxDistance / resolution))
	for dx := -capCells; dx <= capCells; dx++ {
		for dy := -capCells; dy <= capCells; dy++ {
			for dz := -capCells; dz <= capCells; dz++ {
				d := resolution * math.Sqrt(float64(dx*dx+dy*dy+dz*dz))
				if d < maxDistance {
					df.offsets = append(df.offsets, cellOffset{dx, dy, dz, d})
				}
			}
		}
	}
	return df, nil
}

// Dimensions returns the cell counts of the field along each axis.
func (df *DistanceField) Dimensions() (int, int, int) {
	return df.nx, df.ny, df.nz
}

func (df *DistanceField) index(gx, gy, gz int) int {
	return (gx*df.ny+gy)*df.nz + gz
}

func (df *DistanceField) contains(gx, gy, gz int) bool {
	return gx >= 0 && gx < df.nx && gy >= 0 && gy < df.ny && gz >= 0 && gz < df.nz
}

// Distance returns the capped distance from the given in-bounds cell to the
// nearest occupied cell. Callers are responsible for bounds checking; the
// occupancy grid wrapper performs it before delegating here.
func (df *DistanceField) Distance(gx, gy, gz int) float64 {
	return df.distances[df.index(gx, gy, gz)]
}

// Occupied returns whether the given cell is currently marked as an obstacle.
func (df *DistanceField) Occupied(c Cell) bool {
	return df.occupied[c]
}

// AddObstacleCells marks the given cells occupied and propagates lowered
// distances outward to the cap radius. Cells outside the field are ignored.
func (df *DistanceField) AddObstacleCells(cells []Cell) {
	for _, c := range cells {
		if !df.contains(c.X, c.Y, c.Z) {
			continue
		}
		if df.occupied[c] {
			continue
		}
		df.occupied[c] = true
		df.propagateFrom(c, nil)
	}
}

// RemoveObstacleCells clears the given cells and recomputes every distance
// that may have depended on them. The affected neighborhood is rebuilt from
// the surviving occupied set rather than rebuilding the whole field.
func (df *DistanceField) RemoveObstacleCells(cells []Cell) {
	removed := make([]Cell, 0, len(cells))
	for _, c := range cells {
		if df.occupied[c] {
			delete(df.occupied, c)
			removed = append(removed, c)
		}
	}
	if len(removed) == 0 {
		return
	}

	capCells := int(math.Ceil(df.maxDistance / df.resolution))
	affected := df.boundingBox(removed, capCells)

	// reset the affected region, then re-propagate into it from every occupied
	// cell close enough to influence it
	for gx := affected.min.X; gx <= affected.max.X; gx++ {
		for gy := affected.min.Y; gy <= affected.max.Y; gy++ {
			for gz := affected.min.Z; gz <= affected.max.Z; gz++ {
				df.distances[df.index(gx, gy, gz)] = df.maxDistance
			}
		}
	}
	sources := df.boundingBox(removed, 2*capCells)
	for c := range df.occupied {
		if sources.contains(c) {
			df.propagateFrom(c, &affected)
		}
	}
}

// Rebuild recomputes the entire field from the occupied set. It is the slow,
// obviously-correct fallback for incremental removal.
func (df *DistanceField) Rebuild() {
	for i := range df.distances {
		df.distances[i] = df.maxDistance
	}
	for c := range df.occupied {
		df.propagateFrom(c, nil)
	}
}

// propagateFrom min-updates every cell within the cap radius of source with its
// exact Euclidean distance to source. If within is non-nil only cells inside
// that box are updated.
func (df *DistanceField) propagateFrom(source Cell, within *box) {
	for _, off := range df.offsets {
		gx, gy, gz := source.X+off.dx, source.Y+off.dy, source.Z+off.dz
		if !df.contains(gx, gy, gz) {
			continue
		}
		if within != nil && !within.contains(Cell{gx, gy, gz}) {
			continue
		}
		if idx := df.index(gx, gy, gz); off.dist < df.distances[idx] {
			df.distances[idx] = off.dist
		}
	}
}

type box struct {
	min, max Cell
}

func (b box) contains(c Cell) bool {
	return c.X >= b.min.X && c.X <= b.max.X &&
		c.Y >= b.min.Y && c.Y <= b.max.Y &&
		c.Z >= b.min.Z && c.Z <= b.max.Z
}

// boundingBox returns the box around the given cells grown by margin cells and
// clamped to the field.
func (df *DistanceField) boundingBox(cells []Cell, margin int) box {
	b := box{
		min: Cell{df.nx, df.ny, df.nz},
		max: Cell{-1, -1, -1},
	}
	for _, c := range cells {
		b.min.X = min(b.min.X, c.X-margin)
		b.min.Y = min(b.min.Y, c.Y-margin)
		b.min.Z = min(b.min.Z, c.Z-margin)
		b.max.X = max(b.max.X, c.X+margin)
		b.max.Y = max(b.max.Y, c.Y+margin)
		b.max.Z = max(b.max.Z, c.Z+margin)
	}
	b.min.X = max(b.min.X, 0)
	b.min.Y = max(b.min.Y, 0)
	b.min.Z = max(b.min.Z, 0)
	b.max.X = min(b.max.X, df.nx-1)
	b.max.Y = min(b.max.Y, df.ny-1)
	b.max.Z = min(b.max.Z, df.nz-1)
	return b
}
