/*
	Package grid provides the typed voxel views used by both the editor and
	the generator: a dense offset Cuboid buffer and a View bound to the
	chunk store.  Both expose index- and coordinate-based access, pure
	transformation, and deterministic iteration.
*/
package grid

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/voxelforge/voxwfc/vox"
)

// Cuboid is a dense, offset cuboid of voxels held in one flat buffer.
// It is the working representation for example data, stamp sources, and
// MapIndex results.
type Cuboid struct {
	extent vox.Extent
	voxels []vox.VoxelID
}

// NewCuboid returns an all-empty cuboid covering the extent.
func NewCuboid(extent vox.Extent) *Cuboid {
	return &Cuboid{
		extent: extent,
		voxels: make([]vox.VoxelID, extent.NumVoxels()),
	}
}

// Extent returns the world-space region the cuboid covers.
func (c *Cuboid) Extent() vox.Extent {
	return c.extent
}

// Read returns the voxel at a world coordinate.
func (c *Cuboid) Read(p vox.Point3d) (vox.VoxelID, error) {
	i, err := c.extent.IndexOf(p)
	if err != nil {
		return 0, err
	}
	return c.voxels[i], nil
}

// Write sets the voxel at a world coordinate.
func (c *Cuboid) Write(p vox.Point3d, v vox.VoxelID) error {
	i, err := c.extent.IndexOf(p)
	if err != nil {
		return err
	}
	c.voxels[i] = v
	return nil
}

// ReadIndex returns the voxel at a linear index within the cuboid's extent.
func (c *Cuboid) ReadIndex(i uint32) (vox.VoxelID, error) {
	if i >= c.extent.NumVoxels() {
		return 0, vox.NewOutOfBoundsError(vox.Point3d{int32(i), 0, 0}, c.extent.Size())
	}
	return c.voxels[i], nil
}

// WriteIndex sets the voxel at a linear index within the cuboid's extent.
func (c *Cuboid) WriteIndex(i uint32, v vox.VoxelID) error {
	if i >= c.extent.NumVoxels() {
		return vox.NewOutOfBoundsError(vox.Point3d{int32(i), 0, 0}, c.extent.Size())
	}
	c.voxels[i] = v
	return nil
}

// MapIndex produces a transformed copy of the cuboid without mutating the
// source.  The transform must be a pure function of linear index and
// current voxel: no traversal order may be assumed, and evaluation is
// parallel across z slabs.
func (c *Cuboid) MapIndex(f func(i uint32, v vox.VoxelID) vox.VoxelID) *Cuboid {
	out := NewCuboid(c.extent)
	size := c.extent.Size()
	sliceVoxels := uint32(size[0]) * uint32(size[1])

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for z := int32(0); z < size[2]; z++ {
		begin := uint32(z) * sliceVoxels
		g.Go(func() error {
			for i := begin; i < begin+sliceVoxels; i++ {
				out.voxels[i] = f(i, c.voxels[i])
			}
			return nil
		})
	}
	// Pure transforms never fail; the group is used for its scheduling.
	g.Wait()
	return out
}

// Iterate visits every voxel in the extent exactly once in ascending linear
// index order, calling fn with the world coordinate and voxel value.  A
// non-nil error from fn stops the traversal.
func (c *Cuboid) Iterate(fn func(p vox.Point3d, v vox.VoxelID) error) error {
	n := c.extent.NumVoxels()
	for i := uint32(0); i < n; i++ {
		p, err := c.extent.PointAt(i)
		if err != nil {
			return err
		}
		if err := fn(p, c.voxels[i]); err != nil {
			return err
		}
	}
	return nil
}

// Fill sets every voxel in the cuboid to the given value.
func (c *Cuboid) Fill(v vox.VoxelID) {
	for i := range c.voxels {
		c.voxels[i] = v
	}
}
