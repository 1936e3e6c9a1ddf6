package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/voxelforge/voxwfc/vox"
)

// Chunk is an owned, fixed-size dense array of voxels addressed via its
// Shape, plus the chunk point locating it in chunk space.  A chunk may be
// shared read-only by multiple holders; the Store forks it on the first
// write after a share so prior holders observe no change.
type Chunk struct {
	cp     vox.ChunkPoint3d
	shape  vox.Pow2Shape
	voxels []vox.VoxelID
}

// NewChunk returns an all-empty chunk at the given chunk point.
func NewChunk(cp vox.ChunkPoint3d, shape vox.Pow2Shape) *Chunk {
	return &Chunk{
		cp:     cp,
		shape:  shape,
		voxels: make([]vox.VoxelID, shape.Size()),
	}
}

// ChunkPoint returns the chunk's position in chunk space.
func (c *Chunk) ChunkPoint() vox.ChunkPoint3d {
	return c.cp
}

// Shape returns the chunk's linearization shape.
func (c *Chunk) Shape() vox.Pow2Shape {
	return c.shape
}

// Value returns the voxel at a linear index.
func (c *Chunk) Value(i uint32) (vox.VoxelID, error) {
	if i >= c.shape.Size() {
		return 0, fmt.Errorf("index %d outside chunk %s: %w", i, c.cp, vox.ErrOutOfBounds)
	}
	return c.voxels[i], nil
}

// SetValue sets the voxel at a linear index.  Only the Store should call
// this on chunks it has handed out exclusively.
func (c *Chunk) SetValue(i uint32, v vox.VoxelID) error {
	if i >= c.shape.Size() {
		return fmt.Errorf("index %d outside chunk %s: %w", i, c.cp, vox.ErrOutOfBounds)
	}
	c.voxels[i] = v
	return nil
}

// Read returns the voxel at a chunk-local point.
func (c *Chunk) Read(local vox.Point3d) (vox.VoxelID, error) {
	i, err := c.shape.Linearize(local)
	if err != nil {
		return 0, err
	}
	return c.voxels[i], nil
}

// Write sets the voxel at a chunk-local point.
func (c *Chunk) Write(local vox.Point3d, v vox.VoxelID) error {
	i, err := c.shape.Linearize(local)
	if err != nil {
		return err
	}
	c.voxels[i] = v
	return nil
}

// Empty returns true if every voxel holds the reserved empty value.
func (c *Chunk) Empty() bool {
	for _, v := range c.voxels {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}

// clone returns a privately owned copy with identical contents.
func (c *Chunk) clone() *Chunk {
	dup := NewChunk(c.cp, c.shape)
	copy(dup.voxels, c.voxels)
	return dup
}

// ChunkSnapshot is the serializable form of a chunk for an external store:
// the dense payload plus the chunk point.  The core performs no file I/O
// itself.
type ChunkSnapshot struct {
	ChunkPoint vox.ChunkPoint3d
	ShapeExp   [3]uint8
	Voxels     []vox.VoxelID
}

// Snapshot returns a copy of the chunk's state suitable for serialization.
func (c *Chunk) Snapshot() ChunkSnapshot {
	voxels := make([]vox.VoxelID, len(c.voxels))
	copy(voxels, c.voxels)
	e := c.shape.Extents()
	return ChunkSnapshot{
		ChunkPoint: c.cp,
		ShapeExp:   [3]uint8{log2of(e[0]), log2of(e[1]), log2of(e[2])},
		Voxels:     voxels,
	}
}

// ChunkFromSnapshot reconstitutes a chunk from its serialized form.
func ChunkFromSnapshot(s ChunkSnapshot) (*Chunk, error) {
	shape, err := vox.NewPow2Shape(s.ShapeExp[0], s.ShapeExp[1], s.ShapeExp[2])
	if err != nil {
		return nil, err
	}
	if uint32(len(s.Voxels)) != shape.Size() {
		return nil, fmt.Errorf("snapshot for chunk %s has %d voxels, shape wants %d: %w",
			s.ChunkPoint, len(s.Voxels), shape.Size(), vox.ErrStoreIntegrity)
	}
	c := NewChunk(s.ChunkPoint, shape)
	copy(c.voxels, s.Voxels)
	return c, nil
}

func log2of(v int32) uint8 {
	var e uint8
	for v > 1 {
		v >>= 1
		e++
	}
	return e
}

// chunkKey is the fixed-width byte encoding of a chunk point, used to key
// the cold-chunk read cache.
func chunkKey(cp vox.ChunkPoint3d) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint32(key[0:4], uint32(cp[0]))
	binary.BigEndian.PutUint32(key[4:8], uint32(cp[1]))
	binary.BigEndian.PutUint32(key[8:12], uint32(cp[2]))
	return key
}
