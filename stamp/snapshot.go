package stamp

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/voxelforge/voxwfc/vox"
)

// Snapshot is the serializable form of a Library for an external store:
// stamp contents, weights, and the adjacency table.  The core performs no
// file I/O itself.
type Snapshot struct {
	// ID identifies this snapshot instance; it changes on every export even
	// when the library content is identical.
	ID string

	StampExtents [3]int32
	Stamps       [][]vox.VoxelID
	Weights      []uint32
	Adjacency    [][NumDirections][]uint64
}

// Snapshot returns the library's serializable state.
func (l *Library) Snapshot() Snapshot {
	e := l.shape.Extents()
	s := Snapshot{
		ID:           uuid.NewString(),
		StampExtents: [3]int32{e[0], e[1], e[2]},
		Stamps:       make([][]vox.VoxelID, len(l.stamps)),
		Weights:      make([]uint32, len(l.stamps)),
		Adjacency:    make([][NumDirections][]uint64, len(l.stamps)),
	}
	for id := range l.stamps {
		s.Stamps[id] = l.stamps[id].Voxels()
		s.Weights[id] = l.stamps[id].weight
		for dir := 0; dir < NumDirections; dir++ {
			s.Adjacency[id][dir] = l.adjacency[id][dir].Clone()
		}
	}
	return s
}

// FromSnapshot reconstitutes a library from its serialized form.
func FromSnapshot(s Snapshot) (*Library, error) {
	shape, err := vox.NewStridedShape(s.StampExtents[0], s.StampExtents[1], s.StampExtents[2])
	if err != nil {
		return nil, err
	}
	n := len(s.Stamps)
	if len(s.Weights) != n || len(s.Adjacency) != n {
		return nil, fmt.Errorf("library snapshot %s is inconsistent: %d stamps, %d weights, %d adjacency rows: %w",
			s.ID, n, len(s.Weights), len(s.Adjacency), vox.ErrStoreIntegrity)
	}
	words := len(NewBitset(n))

	lib := &Library{
		shape:     shape,
		stamps:    make([]Stamp, n),
		adjacency: make([][NumDirections]Bitset, n),
	}
	for id := 0; id < n; id++ {
		if uint32(len(s.Stamps[id])) != shape.Size() {
			return nil, fmt.Errorf("library snapshot %s: stamp %d has %d voxels, shape wants %d: %w",
				s.ID, id, len(s.Stamps[id]), shape.Size(), vox.ErrStoreIntegrity)
		}
		// Build only emits observed stamps, so a weight below 1 marks a
		// corrupted snapshot.  The engine's weighted collapse divides by the
		// domain's total weight and relies on it being positive.
		if s.Weights[id] == 0 {
			return nil, fmt.Errorf("library snapshot %s: stamp %d has zero weight: %w",
				s.ID, id, vox.ErrStoreIntegrity)
		}
		voxels := make([]vox.VoxelID, len(s.Stamps[id]))
		copy(voxels, s.Stamps[id])
		lib.stamps[id] = Stamp{voxels: voxels, weight: s.Weights[id]}
		lib.total += uint64(s.Weights[id])
		for dir := 0; dir < NumDirections; dir++ {
			if len(s.Adjacency[id][dir]) != words {
				return nil, fmt.Errorf("library snapshot %s: stamp %d dir %s adjacency sized %d, want %d words: %w",
					s.ID, id, Direction(dir), len(s.Adjacency[id][dir]), words, vox.ErrStoreIntegrity)
			}
			lib.adjacency[id][dir] = Bitset(s.Adjacency[id][dir]).Clone()
		}
	}
	return lib, nil
}
