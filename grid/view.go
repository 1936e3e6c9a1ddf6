package grid

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/voxelforge/voxwfc/storage"
	"github.com/voxelforge/voxwfc/vox"
)

// View binds a world-space extent to the chunk store, translating
// coordinates to (chunk point, local index) pairs and delegating to the
// store's copy-on-write accessors.  A view may span any number of chunks.
type View struct {
	store  *storage.Store
	extent vox.Extent
}

// NewView returns a view of the store over the given extent.
func NewView(store *storage.Store, extent vox.Extent) *View {
	return &View{store: store, extent: extent}
}

// Extent returns the world-space region the view covers.
func (v *View) Extent() vox.Extent {
	return v.extent
}

// Store returns the chunk store backing this view.
func (v *View) Store() *storage.Store {
	return v.store
}

// Read returns the voxel at a world coordinate inside the extent.  Reads of
// never-written space return the empty voxel without allocating.
func (v *View) Read(p vox.Point3d) (vox.VoxelID, error) {
	if !v.extent.Contains(p) {
		return 0, vox.NewOutOfBoundsError(p, v.extent.Size())
	}
	chunkSize := v.store.Shape().Extents()
	chunk, err := v.store.Get(p.Chunk(chunkSize))
	if err != nil {
		return 0, err
	}
	return chunk.Read(p.PointInChunk(chunkSize))
}

// Write sets the voxel at a world coordinate inside the extent, going
// through the store's copy-on-write path so earlier readers are unaffected.
func (v *View) Write(p vox.Point3d, value vox.VoxelID) error {
	if !v.extent.Contains(p) {
		return vox.NewOutOfBoundsError(p, v.extent.Size())
	}
	chunkSize := v.store.Shape().Extents()
	cp := p.Chunk(chunkSize)
	chunk, err := v.store.GetMut(cp)
	if err != nil {
		return err
	}
	defer v.store.Release(cp)
	return chunk.Write(p.PointInChunk(chunkSize), value)
}

// MapIndex produces a transformed copy of the viewed region as a dense
// cuboid, without mutating the store.  The transform must be a pure
// function of the extent-linear index and current voxel; chunks are
// evaluated in parallel, which is safe because concurrent reads see stable
// copy-on-write snapshots.
func (v *View) MapIndex(f func(i uint32, value vox.VoxelID) vox.VoxelID) (*Cuboid, error) {
	out := NewCuboid(v.extent)
	chunkSize := v.store.Shape().Extents()
	lo, hi := v.extent.ChunkRange(chunkSize)

	var g errgroup.Group
	for cz := lo[2]; cz <= hi[2]; cz++ {
		for cy := lo[1]; cy <= hi[1]; cy++ {
			for cx := lo[0]; cx <= hi[0]; cx++ {
				cp := vox.ChunkPoint3d{cx, cy, cz}
				g.Go(func() error {
					return v.mapChunk(cp, out, f)
				})
			}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// mapChunk evaluates the transform over the intersection of one chunk with
// the view extent, writing results into out.  Each chunk owns a disjoint
// index range of out, so no synchronization is needed.
func (v *View) mapChunk(cp vox.ChunkPoint3d, out *Cuboid, f func(uint32, vox.VoxelID) vox.VoxelID) error {
	chunk, err := v.store.Get(cp)
	if err != nil {
		return err
	}
	chunkSize := v.store.Shape().Extents()
	min := cp.MinPoint(chunkSize).Max(v.extent.MinPoint())
	max := cp.MaxPoint(chunkSize).Min(v.extent.MaxPoint())
	for z := min[2]; z <= max[2]; z++ {
		for y := min[1]; y <= max[1]; y++ {
			for x := min[0]; x <= max[0]; x++ {
				p := vox.Point3d{x, y, z}
				i, err := v.extent.IndexOf(p)
				if err != nil {
					return err
				}
				value, err := chunk.Read(p.PointInChunk(chunkSize))
				if err != nil {
					return err
				}
				out.voxels[i] = f(i, value)
			}
		}
	}
	return nil
}

// Iterate visits every voxel in the extent exactly once: chunks in
// ascending lexicographic chunk-point order, and within each chunk in
// ascending linear index order.  The order is fixed so downstream
// consumers such as mesh extraction get deterministic results.  A non-nil
// error from fn stops the traversal.
func (v *View) Iterate(fn func(p vox.Point3d, value vox.VoxelID) error) error {
	chunkSize := v.store.Shape().Extents()
	chunkVolume := v.store.Shape().Size()
	lo, hi := v.extent.ChunkRange(chunkSize)

	for cz := lo[2]; cz <= hi[2]; cz++ {
		for cy := lo[1]; cy <= hi[1]; cy++ {
			for cx := lo[0]; cx <= hi[0]; cx++ {
				cp := vox.ChunkPoint3d{cx, cy, cz}
				chunk, err := v.store.Get(cp)
				if err != nil {
					return err
				}
				chunkMin := cp.MinPoint(chunkSize)
				for i := uint32(0); i < chunkVolume; i++ {
					local, err := v.store.Shape().Delinearize(i)
					if err != nil {
						return err
					}
					p := chunkMin.Add(local)
					if !v.extent.Contains(p) {
						continue
					}
					value, err := chunk.Value(i)
					if err != nil {
						return err
					}
					if err := fn(p, value); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// Iterator walks the view's voxels in the same fixed order as Iterate, one
// voxel per Next call, so callers can suspend and resume the traversal.
// Usage follows bufio.Scanner: drive Next in a loop, then check Err.
type Iterator struct {
	view   *View
	lo, hi vox.ChunkPoint3d
	cp     vox.ChunkPoint3d
	chunk  *storage.Chunk
	i      uint32

	p     vox.Point3d
	value vox.VoxelID
	err   error
	done  bool
}

// Iterator returns a fresh iterator positioned before the first voxel.
func (v *View) Iterator() *Iterator {
	lo, hi := v.extent.ChunkRange(v.store.Shape().Extents())
	return &Iterator{view: v, lo: lo, hi: hi, cp: lo}
}

// Next advances to the next voxel in the extent, returning false when the
// traversal is exhausted or failed.
func (it *Iterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	shape := it.view.store.Shape()
	chunkSize := shape.Extents()
	for {
		if it.chunk == nil {
			chunk, err := it.view.store.Get(it.cp)
			if err != nil {
				it.err = err
				return false
			}
			it.chunk = chunk
			it.i = 0
		}
		for ; it.i < shape.Size(); it.i++ {
			local, err := shape.Delinearize(it.i)
			if err != nil {
				it.err = err
				return false
			}
			p := it.cp.MinPoint(chunkSize).Add(local)
			if !it.view.extent.Contains(p) {
				continue
			}
			value, err := it.chunk.Value(it.i)
			if err != nil {
				it.err = err
				return false
			}
			it.p, it.value = p, value
			it.i++
			return true
		}
		it.chunk = nil
		it.cp[0]++
		if it.cp[0] > it.hi[0] {
			it.cp[0] = it.lo[0]
			it.cp[1]++
			if it.cp[1] > it.hi[1] {
				it.cp[1] = it.lo[1]
				it.cp[2]++
				if it.cp[2] > it.hi[2] {
					it.done = true
					return false
				}
			}
		}
	}
}

// Point returns the world coordinate of the current voxel.
func (it *Iterator) Point() vox.Point3d {
	return it.p
}

// Value returns the current voxel.
func (it *Iterator) Value() vox.VoxelID {
	return it.value
}

// Err returns the first error the traversal hit, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Apply writes a cuboid's contents into the store through the view.  The
// cuboid extent must lie inside the view extent.  Writes are batched one
// chunk at a time so the copy-on-write fork happens at most once per chunk.
func (v *View) Apply(c *Cuboid) error {
	ce := c.Extent()
	if !v.extent.Contains(ce.MinPoint()) || !v.extent.Contains(ce.MaxPoint()) {
		return fmt.Errorf("cuboid %s outside view %s: %w", ce, v.extent, vox.ErrOutOfBounds)
	}
	chunkSize := v.store.Shape().Extents()
	lo, hi := ce.ChunkRange(chunkSize)

	for cz := lo[2]; cz <= hi[2]; cz++ {
		for cy := lo[1]; cy <= hi[1]; cy++ {
			for cx := lo[0]; cx <= hi[0]; cx++ {
				cp := vox.ChunkPoint3d{cx, cy, cz}
				if err := v.applyChunk(cp, c); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (v *View) applyChunk(cp vox.ChunkPoint3d, c *Cuboid) error {
	chunkSize := v.store.Shape().Extents()
	chunk, err := v.store.GetMut(cp)
	if err != nil {
		return err
	}
	defer v.store.Release(cp)

	ce := c.Extent()
	min := cp.MinPoint(chunkSize).Max(ce.MinPoint())
	max := cp.MaxPoint(chunkSize).Min(ce.MaxPoint())
	for z := min[2]; z <= max[2]; z++ {
		for y := min[1]; y <= max[1]; y++ {
			for x := min[0]; x <= max[0]; x++ {
				p := vox.Point3d{x, y, z}
				value, err := c.Read(p)
				if err != nil {
					return err
				}
				if err := chunk.Write(p.PointInChunk(chunkSize), value); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
