package vox

import (
	"encoding/gob"
	"fmt"
)

func init() {
	// Need to register types that will be used to fulfill interfaces.
	gob.Register(Point3d{})
	gob.Register(ChunkPoint3d{})
}

// Point3d is a voxel position in world space.  Components are signed;
// negative space is addressable like positive space.
type Point3d [3]int32

// Value returns the point's value for the specified dimension without checking dim bounds.
func (p Point3d) Value(dim uint8) int32 {
	return p[dim]
}

// Duplicate returns a copy of the point.
func (p Point3d) Duplicate() Point3d {
	return p // Go arrays are passed by value not reference (like slices)
}

// Add returns the addition of two points.
func (p Point3d) Add(x Point3d) Point3d {
	return Point3d{p[0] + x[0], p[1] + x[1], p[2] + x[2]}
}

// Sub returns the subtraction of the passed point from the receiver.
func (p Point3d) Sub(x Point3d) Point3d {
	return Point3d{p[0] - x[0], p[1] - x[1], p[2] - x[2]}
}

// Mult returns the multiplication of the receiver by the passed point.
func (p Point3d) Mult(x Point3d) Point3d {
	return Point3d{p[0] * x[0], p[1] * x[1], p[2] * x[2]}
}

// AddScalar adds a scalar value to each component of this point.
func (p Point3d) AddScalar(value int32) Point3d {
	return Point3d{p[0] + value, p[1] + value, p[2] + value}
}

// Max returns a Point3d where each of its elements are the maximum of two points' elements.
func (p Point3d) Max(x Point3d) Point3d {
	result := p
	for dim := 0; dim < 3; dim++ {
		if x[dim] > result[dim] {
			result[dim] = x[dim]
		}
	}
	return result
}

// Min returns a Point3d where each of its elements are the minimum of two points' elements.
func (p Point3d) Min(x Point3d) Point3d {
	result := p
	for dim := 0; dim < 3; dim++ {
		if x[dim] < result[dim] {
			result[dim] = x[dim]
		}
	}
	return result
}

// Prod returns the product of the point elements.
func (p Point3d) Prod() int64 {
	return int64(p[0]) * int64(p[1]) * int64(p[2])
}

func (p Point3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

// Chunk returns the chunk-space point of the partition in which this point
// falls, given chunk extents.  Floor division, so negative coordinates
// partition the same way as positive ones.
func (p Point3d) Chunk(size Point3d) ChunkPoint3d {
	var c ChunkPoint3d
	for dim := 0; dim < 3; dim++ {
		c[dim] = floorDiv(p[dim], size[dim])
	}
	return c
}

// PointInChunk returns the point in chunk-local coordinate space, with the
// chunk's first voxel as origin.  Always in [0, size) per axis.
func (p Point3d) PointInChunk(size Point3d) Point3d {
	var local Point3d
	for dim := 0; dim < 3; dim++ {
		local[dim] = floorMod(p[dim], size[dim])
	}
	return local
}

func floorDiv(v, size int32) int32 {
	if v < 0 {
		return (v - size + 1) / size
	}
	return v / size
}

func floorMod(v, size int32) int32 {
	m := v % size
	if m < 0 {
		m += size
	}
	return m
}

// ChunkPoint3d describes a particular chunk in chunk space.
type ChunkPoint3d [3]int32

// Value returns the chunk point's value for the specified dimension without checking dim bounds.
func (c ChunkPoint3d) Value(dim uint8) int32 {
	return c[dim]
}

// MinPoint returns the first voxel within the chunk given chunk extents.
func (c ChunkPoint3d) MinPoint(size Point3d) Point3d {
	return Point3d{c[0] * size[0], c[1] * size[1], c[2] * size[2]}
}

// MaxPoint returns the last voxel within the chunk given chunk extents.
func (c ChunkPoint3d) MaxPoint(size Point3d) Point3d {
	return Point3d{
		c[0]*size[0] + size[0] - 1,
		c[1]*size[1] + size[1] - 1,
		c[2]*size[2] + size[2] - 1,
	}
}

func (c ChunkPoint3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c[0], c[1], c[2])
}

// Less returns true if the receiver precedes the passed chunk point in the
// fixed lexicographic (z, then y, then x) chunk visitation order.
func (c ChunkPoint3d) Less(x ChunkPoint3d) bool {
	if c[2] != x[2] {
		return c[2] < x[2]
	}
	if c[1] != x[1] {
		return c[1] < x[1]
	}
	return c[0] < x[0]
}
