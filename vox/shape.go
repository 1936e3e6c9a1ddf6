/*
	This file defines the linearization schemes that map a 3d point within a
	fixed cuboid extent to a unique index in [0, volume) and back.  All voxel
	and stamp addressing in the system goes through a Shape.
*/

package vox

import "fmt"

// Shape maps points inside a fixed cuboid extent to linear indices and back.
// The mapping is bijective and stable for the shape's lifetime: for every
// valid point p, Delinearize(Linearize(p)) == p.  Linear order is ZYX, i.e.
// x varies fastest, so ascending index matches the fixed iteration order
// used by grid consumers.
type Shape interface {
	// Extents returns the cuboid dimensions per axis.
	Extents() Point3d

	// Size returns the number of voxels in the cuboid.
	Size() uint32

	// Linearize maps a point inside the extent to its linear index.
	// Out-of-range points are rejected with an OutOfBounds error, never
	// wrapped silently.
	Linearize(p Point3d) (uint32, error)

	// Delinearize maps a linear index back to its point.  Indices outside
	// [0, Size()) are rejected with an OutOfBounds error.
	Delinearize(i uint32) (Point3d, error)

	String() string
}

// Pow2Shape is a Shape whose extents are powers of two per axis, so that
// linearization reduces to shifts and masks.  This is the shape used for
// chunks.
type Pow2Shape struct {
	exp    [3]uint8
	mask   [3]int32
	shiftY uint8
	shiftZ uint8
	size   uint32
}

// NewPow2Shape returns a shape of 2^ex × 2^ey × 2^ez voxels.
func NewPow2Shape(ex, ey, ez uint8) (Pow2Shape, error) {
	if int(ex)+int(ey)+int(ez) > 30 {
		return Pow2Shape{}, fmt.Errorf("power-of-two shape exponents (%d,%d,%d) exceed addressable volume", ex, ey, ez)
	}
	return Pow2Shape{
		exp:    [3]uint8{ex, ey, ez},
		mask:   [3]int32{1<<ex - 1, 1<<ey - 1, 1<<ez - 1},
		shiftY: ex,
		shiftZ: ex + ey,
		size:   1 << (ex + ey + ez),
	}, nil
}

// MustPow2Shape is NewPow2Shape for exponents known to be valid at compile time.
func MustPow2Shape(ex, ey, ez uint8) Pow2Shape {
	s, err := NewPow2Shape(ex, ey, ez)
	if err != nil {
		panic(err)
	}
	return s
}

// Extents returns the cuboid dimensions per axis.
func (s Pow2Shape) Extents() Point3d {
	return Point3d{1 << s.exp[0], 1 << s.exp[1], 1 << s.exp[2]}
}

// Size returns the number of voxels in the cuboid.
func (s Pow2Shape) Size() uint32 {
	return s.size
}

// Linearize maps a point inside the extent to its linear index.
func (s Pow2Shape) Linearize(p Point3d) (uint32, error) {
	if p[0] < 0 || p[1] < 0 || p[2] < 0 ||
		p[0] > s.mask[0] || p[1] > s.mask[1] || p[2] > s.mask[2] {
		return 0, NewOutOfBoundsError(p, s.Extents())
	}
	return uint32(p[2])<<s.shiftZ | uint32(p[1])<<s.shiftY | uint32(p[0]), nil
}

// Delinearize maps a linear index back to its point.
func (s Pow2Shape) Delinearize(i uint32) (Point3d, error) {
	if i >= s.size {
		return Point3d{}, fmt.Errorf("index %d outside shape %s: %w", i, s, ErrOutOfBounds)
	}
	return Point3d{
		int32(i) & s.mask[0],
		(int32(i) >> s.shiftY) & s.mask[1],
		(int32(i) >> s.shiftZ) & s.mask[2],
	}, nil
}

func (s Pow2Shape) String() string {
	e := s.Extents()
	return fmt.Sprintf("pow2 shape %dx%dx%d", e[0], e[1], e[2])
}

// StridedShape is a Shape with arbitrary extents per axis, using
// multiplicative strides.  Slower than Pow2Shape but required for stamp
// blocks and generation regions that are not powers of two.
type StridedShape struct {
	extents Point3d
	strideY uint32
	strideZ uint32
	size    uint32
}

// NewStridedShape returns a shape of nx × ny × nz voxels.
func NewStridedShape(nx, ny, nz int32) (StridedShape, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return StridedShape{}, fmt.Errorf("strided shape extents (%d,%d,%d) must be positive", nx, ny, nz)
	}
	volume := int64(nx) * int64(ny) * int64(nz)
	if volume > 1<<30 {
		return StridedShape{}, fmt.Errorf("strided shape extents (%d,%d,%d) exceed addressable volume", nx, ny, nz)
	}
	return StridedShape{
		extents: Point3d{nx, ny, nz},
		strideY: uint32(nx),
		strideZ: uint32(nx) * uint32(ny),
		size:    uint32(volume),
	}, nil
}

// MustStridedShape is NewStridedShape for extents known to be valid at compile time.
func MustStridedShape(nx, ny, nz int32) StridedShape {
	s, err := NewStridedShape(nx, ny, nz)
	if err != nil {
		panic(err)
	}
	return s
}

// Extents returns the cuboid dimensions per axis.
func (s StridedShape) Extents() Point3d {
	return s.extents
}

// Size returns the number of voxels in the cuboid.
func (s StridedShape) Size() uint32 {
	return s.size
}

// Linearize maps a point inside the extent to its linear index.
func (s StridedShape) Linearize(p Point3d) (uint32, error) {
	if p[0] < 0 || p[1] < 0 || p[2] < 0 ||
		p[0] >= s.extents[0] || p[1] >= s.extents[1] || p[2] >= s.extents[2] {
		return 0, NewOutOfBoundsError(p, s.extents)
	}
	return uint32(p[2])*s.strideZ + uint32(p[1])*s.strideY + uint32(p[0]), nil
}

// Delinearize maps a linear index back to its point.
func (s StridedShape) Delinearize(i uint32) (Point3d, error) {
	if i >= s.size {
		return Point3d{}, fmt.Errorf("index %d outside shape %s: %w", i, s, ErrOutOfBounds)
	}
	return Point3d{
		int32(i % s.strideY),
		int32((i % s.strideZ) / s.strideY),
		int32(i / s.strideZ),
	}, nil
}

func (s StridedShape) String() string {
	return fmt.Sprintf("strided shape %dx%dx%d", s.extents[0], s.extents[1], s.extents[2])
}
