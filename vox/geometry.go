package vox

import "fmt"

// Extent is a rectangular world-space region: a minimum corner plus per-axis
// sizes.  Iteration over an extent always proceeds in ascending ZYX linear
// order so downstream consumers see a deterministic sequence.
type Extent struct {
	min   Point3d
	shape StridedShape
}

// NewExtent returns the extent starting at min with the given sizes per axis.
func NewExtent(min Point3d, size Point3d) (Extent, error) {
	shape, err := NewStridedShape(size[0], size[1], size[2])
	if err != nil {
		return Extent{}, fmt.Errorf("bad extent at %s: %w", min, err)
	}
	return Extent{min: min, shape: shape}, nil
}

// MinPoint returns the corner with the lowest coordinate on every axis.
func (e Extent) MinPoint() Point3d {
	return e.min
}

// MaxPoint returns the corner with the highest coordinate on every axis.
func (e Extent) MaxPoint() Point3d {
	size := e.shape.Extents()
	return e.min.Add(size).AddScalar(-1)
}

// Size returns the per-axis voxel counts.
func (e Extent) Size() Point3d {
	return e.shape.Extents()
}

// NumVoxels returns the total voxel count.
func (e Extent) NumVoxels() uint32 {
	return e.shape.Size()
}

// Contains returns true if the point lies inside the extent.
func (e Extent) Contains(p Point3d) bool {
	max := e.MaxPoint()
	for dim := 0; dim < 3; dim++ {
		if p[dim] < e.min[dim] || p[dim] > max[dim] {
			return false
		}
	}
	return true
}

// PointAt returns the world point for a linear position within the extent.
func (e Extent) PointAt(i uint32) (Point3d, error) {
	local, err := e.shape.Delinearize(i)
	if err != nil {
		return Point3d{}, err
	}
	return e.min.Add(local), nil
}

// IndexOf returns the linear position of a world point within the extent.
func (e Extent) IndexOf(p Point3d) (uint32, error) {
	return e.shape.Linearize(p.Sub(e.min))
}

// ChunkRange returns the lowest and highest chunk points touched by this
// extent given chunk extents.
func (e Extent) ChunkRange(chunkSize Point3d) (lo, hi ChunkPoint3d) {
	return e.min.Chunk(chunkSize), e.MaxPoint().Chunk(chunkSize)
}

func (e Extent) String() string {
	return fmt.Sprintf("extent %s .. %s", e.min, e.MaxPoint())
}
