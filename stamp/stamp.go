/*
	Package stamp extracts the generation vocabulary from example voxel
	data: fixed-size blocks ("stamps") deduplicated by content, weighted by
	occurrence count, with per-direction adjacency compatibility observed in
	the example.
*/
package stamp

import (
	"math/bits"

	"github.com/voxelforge/voxwfc/vox"
)

// Direction identifies one of the six axis-aligned adjacency directions.
type Direction uint8

const (
	PosX Direction = iota
	NegX
	PosY
	NegY
	PosZ
	NegZ

	// NumDirections is the number of adjacency directions tracked per stamp.
	NumDirections = 6
)

var directionNames = [NumDirections]string{"+x", "-x", "+y", "-y", "+z", "-z"}

func (d Direction) String() string {
	return directionNames[d]
}

// Axis returns the dimension this direction runs along.
func (d Direction) Axis() uint8 {
	return uint8(d) / 2
}

// Sign returns +1 or -1 along the direction's axis.
func (d Direction) Sign() int32 {
	if d&1 == 0 {
		return 1
	}
	return -1
}

// Opposite returns the direction pointing the other way along the same axis.
func (d Direction) Opposite() Direction {
	return d ^ 1
}

// Offset returns the unit offset of this direction.
func (d Direction) Offset() vox.Point3d {
	var p vox.Point3d
	p[d.Axis()] = d.Sign()
	return p
}

// Stamp is an immutable fixed-size block of voxels used as an atomic
// placement unit during generation, with the number of times it occurred in
// the example it was extracted from.
type Stamp struct {
	voxels []vox.VoxelID
	weight uint32
}

// Weight returns the stamp's occurrence count in its source example.
func (s *Stamp) Weight() uint32 {
	return s.weight
}

// Value returns the voxel at a stamp-local linear index.
func (s *Stamp) Value(i uint32) vox.VoxelID {
	return s.voxels[i]
}

// Voxels returns a copy of the stamp's content in linear index order.
func (s *Stamp) Voxels() []vox.VoxelID {
	dup := make([]vox.VoxelID, len(s.voxels))
	copy(dup, s.voxels)
	return dup
}

// Bitset is a fixed-capacity set of stamp ids.  The per-cell domains of the
// generation engine and the adjacency tables of the library share this
// representation so constraint propagation is a few word-wide ANDs.
type Bitset []uint64

// NewBitset returns an empty bitset with capacity for n stamp ids.
func NewBitset(n int) Bitset {
	return make(Bitset, (n+63)/64)
}

// FullBitset returns a bitset with ids 0..n-1 all set.
func FullBitset(n int) Bitset {
	b := NewBitset(n)
	for i := 0; i < n; i++ {
		b.Set(i)
	}
	return b
}

// Set adds id i to the set.
func (b Bitset) Set(i int) {
	b[i>>6] |= 1 << (uint(i) & 63)
}

// Clear removes id i from the set.
func (b Bitset) Clear(i int) {
	b[i>>6] &^= 1 << (uint(i) & 63)
}

// Has returns true if id i is in the set.
func (b Bitset) Has(i int) bool {
	return b[i>>6]&(1<<(uint(i)&63)) != 0
}

// Count returns the number of ids in the set.
func (b Bitset) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// Empty returns true if no id is in the set.
func (b Bitset) Empty() bool {
	for _, w := range b {
		if w != 0 {
			return false
		}
	}
	return true
}

// And intersects the receiver with other in place and reports whether any
// id was removed.
func (b Bitset) And(other Bitset) bool {
	changed := false
	for i := range b {
		next := b[i] & other[i]
		if next != b[i] {
			changed = true
			b[i] = next
		}
	}
	return changed
}

// Or unions other into the receiver in place.
func (b Bitset) Or(other Bitset) {
	for i := range b {
		b[i] |= other[i]
	}
}

// Clone returns an independent copy.
func (b Bitset) Clone() Bitset {
	dup := make(Bitset, len(b))
	copy(dup, b)
	return dup
}

// Equal reports whether two bitsets hold the same ids.
func (b Bitset) Equal(other Bitset) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i] != other[i] {
			return false
		}
	}
	return true
}

// ForEach calls fn for every id in the set in ascending order.
func (b Bitset) ForEach(fn func(i int)) {
	for w, word := range b {
		for word != 0 {
			i := bits.TrailingZeros64(word)
			fn(w<<6 + i)
			word &= word - 1
		}
	}
}

// First returns the lowest id in the set, or -1 if empty.
func (b Bitset) First() int {
	for w, word := range b {
		if word != 0 {
			return w<<6 + bits.TrailingZeros64(word)
		}
	}
	return -1
}
