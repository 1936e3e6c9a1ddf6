package stamp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelforge/voxwfc/grid"
	"github.com/voxelforge/voxwfc/vox"
)

// exampleCuboid builds a dense example where fn gives the voxel at each
// local coordinate.
func exampleCuboid(t *testing.T, size vox.Point3d, fn func(p vox.Point3d) vox.VoxelID) *grid.Cuboid {
	t.Helper()
	extent, err := vox.NewExtent(vox.Point3d{0, 0, 0}, size)
	require.NoError(t, err)
	c := grid.NewCuboid(extent)
	require.NoError(t, c.Iterate(func(p vox.Point3d, _ vox.VoxelID) error {
		return c.Write(p, fn(p))
	}))
	return c
}

// A unit-stamp library built from a 2x2x2 example alternating two materials
// along x must produce exactly two stamps, each compatible with the other
// along x and with itself along y and z.
func TestBuildAlternatingExample(t *testing.T) {
	example := exampleCuboid(t, vox.Point3d{2, 2, 2}, func(p vox.Point3d) vox.VoxelID {
		return vox.VoxelID(p[0] + 1)
	})
	lib, err := Build(example, vox.MustStridedShape(1, 1, 1), BoundaryWrap)
	require.NoError(t, err)

	require.Equal(t, 2, lib.Len())
	assert.Equal(t, uint64(8), lib.TotalWeight())
	assert.Equal(t, uint32(4), lib.Weight(0))
	assert.Equal(t, uint32(4), lib.Weight(1))

	for id := 0; id < 2; id++ {
		other := 1 - id
		assert.True(t, lib.Compatible(id, PosX).Has(other), "stamp %d should allow %d at +x", id, other)
		assert.True(t, lib.Compatible(id, NegX).Has(other), "stamp %d should allow %d at -x", id, other)
		assert.False(t, lib.Compatible(id, PosX).Has(id), "stamp %d should not allow itself at +x", id)
		for _, dir := range []Direction{PosY, NegY, PosZ, NegZ} {
			assert.True(t, lib.Compatible(id, dir).Has(id), "stamp %d should allow itself at %s", id, dir)
			assert.False(t, lib.Compatible(id, dir).Has(other), "stamp %d should not allow %d at %s", id, other, dir)
		}
	}
}

func TestBuildBoundaryPolicies(t *testing.T) {
	// Three distinct voxels along x; stamps are 2x1x1.
	example := exampleCuboid(t, vox.Point3d{3, 1, 1}, func(p vox.Point3d) vox.VoxelID {
		return vox.VoxelID(p[0] + 1)
	})
	shape := vox.MustStridedShape(2, 1, 1)

	// Wrapping sees the periodic window [3 1] in addition to [1 2] and [2 3].
	wrapped, err := Build(example, shape, BoundaryWrap)
	require.NoError(t, err)
	assert.Equal(t, 3, wrapped.Len())
	assert.Equal(t, uint64(3), wrapped.TotalWeight())

	clamped, err := Build(example, shape, BoundaryClamp)
	require.NoError(t, err)
	assert.Equal(t, 2, clamped.Len())
	assert.Equal(t, uint64(2), clamped.TotalWeight())
}

// Stamp identity is content-based, so two builds over identical examples
// must agree on ids, weights, and adjacency.
func TestBuildDeterministic(t *testing.T) {
	gen := func() *Library {
		example := exampleCuboid(t, vox.Point3d{4, 3, 2}, func(p vox.Point3d) vox.VoxelID {
			return vox.VoxelID((p[0]+2*p[1]+5*p[2])%3 + 1)
		})
		lib, err := Build(example, vox.MustStridedShape(2, 2, 1), BoundaryWrap)
		require.NoError(t, err)
		return lib
	}

	a, b := gen(), gen()
	require.Equal(t, a.Len(), b.Len())
	assert.Equal(t, a.TotalWeight(), b.TotalWeight())
	for id := 0; id < a.Len(); id++ {
		assert.Equal(t, a.Stamp(id).Voxels(), b.Stamp(id).Voxels(), "stamp %d content", id)
		assert.Equal(t, a.Weight(id), b.Weight(id), "stamp %d weight", id)
		for dir := Direction(0); dir < NumDirections; dir++ {
			assert.True(t, a.Compatible(id, dir).Equal(b.Compatible(id, dir)),
				"stamp %d adjacency along %s", id, dir)
		}
	}
}

func TestBuildRejectsOversizedStamp(t *testing.T) {
	example := exampleCuboid(t, vox.Point3d{2, 2, 2}, func(vox.Point3d) vox.VoxelID { return 1 })
	_, err := Build(example, vox.MustStridedShape(3, 1, 1), BoundaryWrap)
	assert.Error(t, err)
}

func TestMatchingMask(t *testing.T) {
	example := exampleCuboid(t, vox.Point3d{2, 2, 2}, func(p vox.Point3d) vox.VoxelID {
		return vox.VoxelID(p[0] + 1)
	})
	lib, err := Build(example, vox.MustStridedShape(1, 1, 1), BoundaryWrap)
	require.NoError(t, err)

	// Empty voxels are wildcards.
	all := lib.MatchingMask([]vox.VoxelID{vox.EmptyVoxel})
	assert.Equal(t, 2, all.Count())

	// A fixed voxel pins the matching stamp.
	pinned := lib.MatchingMask([]vox.VoxelID{2})
	require.Equal(t, 1, pinned.Count())
	id := pinned.First()
	assert.Equal(t, []vox.VoxelID{2}, lib.Stamp(id).Voxels())

	// Blocks of the wrong size match nothing.
	assert.Equal(t, 0, lib.MatchingMask([]vox.VoxelID{1, 1}).Count())
}

func TestSnapshotRoundTrip(t *testing.T) {
	example := exampleCuboid(t, vox.Point3d{4, 4, 4}, func(p vox.Point3d) vox.VoxelID {
		return vox.VoxelID((p[0]+p[1]+p[2])%2 + 1)
	})
	lib, err := Build(example, vox.MustStridedShape(2, 2, 2), BoundaryWrap)
	require.NoError(t, err)

	snapshot := lib.Snapshot()
	assert.NotEmpty(t, snapshot.ID)
	assert.NotEqual(t, snapshot.ID, lib.Snapshot().ID, "each export gets a fresh id")

	back, err := FromSnapshot(snapshot)
	require.NoError(t, err)
	require.Equal(t, lib.Len(), back.Len())
	assert.Equal(t, lib.TotalWeight(), back.TotalWeight())
	assert.Equal(t, lib.Shape().Extents(), back.Shape().Extents())
	for id := 0; id < lib.Len(); id++ {
		assert.Equal(t, lib.Stamp(id).Voxels(), back.Stamp(id).Voxels())
		assert.Equal(t, lib.Weight(id), back.Weight(id))
		for dir := Direction(0); dir < NumDirections; dir++ {
			assert.True(t, lib.Compatible(id, dir).Equal(back.Compatible(id, dir)))
		}
	}
}

func TestFromSnapshotValidation(t *testing.T) {
	example := exampleCuboid(t, vox.Point3d{2, 2, 2}, func(p vox.Point3d) vox.VoxelID {
		return vox.VoxelID(p[0] + 1)
	})
	lib, err := Build(example, vox.MustStridedShape(1, 1, 1), BoundaryWrap)
	require.NoError(t, err)

	s := lib.Snapshot()
	s.Weights = s.Weights[:1]
	_, err = FromSnapshot(s)
	assert.ErrorIs(t, err, vox.ErrStoreIntegrity)

	s = lib.Snapshot()
	s.Stamps[0] = append(s.Stamps[0], 9)
	_, err = FromSnapshot(s)
	assert.ErrorIs(t, err, vox.ErrStoreIntegrity)

	s = lib.Snapshot()
	s.Adjacency[1][PosZ] = nil
	_, err = FromSnapshot(s)
	assert.ErrorIs(t, err, vox.ErrStoreIntegrity)

	// A zero-weight stamp would give the generator a domain whose total
	// weight is zero, so it must be rejected up front.
	s = lib.Snapshot()
	s.Weights[0] = 0
	_, err = FromSnapshot(s)
	assert.ErrorIs(t, err, vox.ErrStoreIntegrity)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, NegX, PosX.Opposite())
	assert.Equal(t, PosY, NegY.Opposite())
	assert.Equal(t, vox.Point3d{0, 0, -1}, NegZ.Offset())
	assert.Equal(t, uint8(1), PosY.Axis())
	assert.Equal(t, int32(-1), NegY.Sign())
}

func TestBitset(t *testing.T) {
	b := NewBitset(130)
	assert.True(t, b.Empty())
	b.Set(0)
	b.Set(64)
	b.Set(129)
	assert.Equal(t, 3, b.Count())
	assert.True(t, b.Has(64))
	b.Clear(64)
	assert.False(t, b.Has(64))

	var got []int
	b.ForEach(func(i int) { got = append(got, i) })
	assert.Equal(t, []int{0, 129}, got)
	assert.Equal(t, 0, b.First())

	other := NewBitset(130)
	other.Set(129)
	clone := b.Clone()
	assert.True(t, b.And(other), "intersection should drop id 0")
	assert.Equal(t, 1, b.Count())
	assert.False(t, b.And(other), "second intersection should be a no-op")
	assert.False(t, b.Equal(clone))

	full := FullBitset(130)
	assert.Equal(t, 130, full.Count())
}
