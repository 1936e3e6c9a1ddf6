package stamp

import (
	"fmt"

	"github.com/voxelforge/voxwfc/grid"
	"github.com/voxelforge/voxwfc/vox"
)

// BoundaryPolicy controls how stamp windows behave at the edges of the
// example region.
type BoundaryPolicy uint8

const (
	// BoundaryWrap treats the example as periodic: windows and adjacency
	// wrap around each axis.
	BoundaryWrap BoundaryPolicy = iota

	// BoundaryClamp only extracts windows that fit entirely inside the
	// example, so edge voxels contribute to fewer stamps.
	BoundaryClamp
)

// BoundaryByName returns the policy for a configuration string.
func BoundaryByName(name string) (BoundaryPolicy, error) {
	switch name {
	case "", "wrap":
		return BoundaryWrap, nil
	case "clamp":
		return BoundaryClamp, nil
	default:
		return 0, fmt.Errorf("unknown boundary policy %q", name)
	}
}

// Library is the immutable collection of stamps extracted from one example,
// with weights and the per-direction adjacency table.  Stamp identity is
// content-based, so building twice from identical examples yields identical
// libraries.
type Library struct {
	shape  vox.StridedShape
	stamps []Stamp
	total  uint64

	// adjacency[id][dir] holds the stamps observed adjacent to id along dir.
	adjacency [][NumDirections]Bitset
}

// Build slides a window of the stamp shape over every position in the
// example, deduplicates window contents into stamps, accumulates occurrence
// counts as weights, and records observed neighbor pairs (at stamp-size
// pitch along each axis) as adjacency compatibility.
func Build(example *grid.Cuboid, shape vox.StridedShape, policy BoundaryPolicy) (*Library, error) {
	ext := example.Extent()
	srcSize := ext.Size()
	stampSize := shape.Extents()
	for dim := 0; dim < 3; dim++ {
		if stampSize[dim] > srcSize[dim] {
			return nil, fmt.Errorf("stamp extents %s exceed example extents %s", stampSize, srcSize)
		}
	}

	// Window origins in example-local coordinates.  With wrapping every
	// position starts a window; with clamping only fully contained ones do.
	posSize := srcSize
	if policy == BoundaryClamp {
		posSize = srcSize.Sub(stampSize).AddScalar(1)
	}
	posShape, err := vox.NewStridedShape(posSize[0], posSize[1], posSize[2])
	if err != nil {
		return nil, err
	}

	lib := &Library{shape: shape}
	byContent := make(map[string]int)
	idAt := make([]int, posShape.Size())

	for i := uint32(0); i < posShape.Size(); i++ {
		origin, err := posShape.Delinearize(i)
		if err != nil {
			return nil, err
		}
		content, err := window(example, origin, shape, policy)
		if err != nil {
			return nil, err
		}
		key := contentKey(content)
		id, found := byContent[key]
		if !found {
			id = len(lib.stamps)
			byContent[key] = id
			lib.stamps = append(lib.stamps, Stamp{voxels: content})
		}
		lib.stamps[id].weight++
		lib.total++
		idAt[i] = id
	}

	lib.adjacency = make([][NumDirections]Bitset, len(lib.stamps))
	for id := range lib.adjacency {
		for dir := 0; dir < NumDirections; dir++ {
			lib.adjacency[id][dir] = NewBitset(len(lib.stamps))
		}
	}

	// Neighbors one stamp pitch apart along each positive axis; the
	// opposite direction follows by symmetry.
	for i := uint32(0); i < posShape.Size(); i++ {
		origin, err := posShape.Delinearize(i)
		if err != nil {
			return nil, err
		}
		for _, dir := range []Direction{PosX, PosY, PosZ} {
			axis := dir.Axis()
			neighbor := origin
			neighbor[axis] += stampSize[axis]
			if neighbor[axis] >= posSize[axis] {
				if policy == BoundaryClamp {
					continue
				}
				neighbor[axis] %= posSize[axis]
			}
			j, err := posShape.Linearize(neighbor)
			if err != nil {
				return nil, err
			}
			a, b := idAt[i], idAt[j]
			lib.adjacency[a][dir].Set(b)
			lib.adjacency[b][dir.Opposite()].Set(a)
		}
	}

	vox.Infof("Built stamp library: %d stamps from %d windows over %s\n",
		len(lib.stamps), posShape.Size(), ext)
	return lib, nil
}

// window samples the stamp-shaped block at the given example-local origin.
func window(example *grid.Cuboid, origin vox.Point3d, shape vox.StridedShape, policy BoundaryPolicy) ([]vox.VoxelID, error) {
	ext := example.Extent()
	srcSize := ext.Size()
	content := make([]vox.VoxelID, shape.Size())
	for i := uint32(0); i < shape.Size(); i++ {
		local, err := shape.Delinearize(i)
		if err != nil {
			return nil, err
		}
		p := origin.Add(local)
		if policy == BoundaryWrap {
			for dim := 0; dim < 3; dim++ {
				p[dim] %= srcSize[dim]
			}
		}
		value, err := example.Read(ext.MinPoint().Add(p))
		if err != nil {
			return nil, err
		}
		content[i] = value
	}
	return content, nil
}

func contentKey(content []vox.VoxelID) string {
	b := make([]byte, len(content))
	for i, v := range content {
		b[i] = byte(v)
	}
	return string(b)
}

// Shape returns the stamp block shape.
func (l *Library) Shape() vox.StridedShape {
	return l.shape
}

// Len returns the number of distinct stamps.
func (l *Library) Len() int {
	return len(l.stamps)
}

// Stamp returns the stamp with the given id.
func (l *Library) Stamp(id int) *Stamp {
	return &l.stamps[id]
}

// Weight returns the occurrence count of the stamp with the given id.
func (l *Library) Weight(id int) uint32 {
	return l.stamps[id].weight
}

// TotalWeight returns the total number of windows observed.
func (l *Library) TotalWeight() uint64 {
	return l.total
}

// Compatible returns the set of stamps observed adjacent to id along dir.
// The returned bitset is shared; callers must not mutate it.
func (l *Library) Compatible(id int, dir Direction) Bitset {
	return l.adjacency[id][dir]
}

// MatchingMask returns the stamps consistent with a partially fixed block:
// empty voxels in the block are wildcards, non-empty voxels must match the
// stamp content exactly.  Used to seed generation domains from pre-painted
// space.
func (l *Library) MatchingMask(block []vox.VoxelID) Bitset {
	mask := NewBitset(len(l.stamps))
	for id := range l.stamps {
		if l.stamps[id].matches(block) {
			mask.Set(id)
		}
	}
	return mask
}

func (s *Stamp) matches(block []vox.VoxelID) bool {
	if len(block) != len(s.voxels) {
		return false
	}
	for i, v := range block {
		if !v.IsEmpty() && v != s.voxels[i] {
			return false
		}
	}
	return true
}
