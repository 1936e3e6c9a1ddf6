/*
	Package wfc implements the constraint-propagation generation engine:
	per-cell domains of admissible stamps, minimum-entropy cell selection,
	weighted collapse, fixed-point propagation, and bounded backtracking.
*/
package wfc

import (
	"math/bits"

	"github.com/voxelforge/voxwfc/stamp"
)

// domain is the set of stamps still admissible for one cell, with the
// entropy of the weighted choice cached until the set shrinks.
type domain struct {
	set   stamp.Bitset
	count int

	entropy      float64
	entropyValid bool
}

func newDomain(set stamp.Bitset) domain {
	return domain{set: set, count: set.Count()}
}

// replace swaps in a new stamp set, invalidating cached state.
func (d *domain) replace(set stamp.Bitset) {
	d.set = set
	d.count = set.Count()
	d.entropyValid = false
}

// intersect removes stamps not in allowed, reporting whether anything was
// removed.  The cached entropy is invalidated only on removal.
func (d *domain) intersect(allowed stamp.Bitset) bool {
	if !d.set.And(allowed) {
		return false
	}
	d.count = d.set.Count()
	d.entropyValid = false
	return true
}

// exclude removes a single stamp from the domain.
func (d *domain) exclude(id int) {
	if d.set.Has(id) {
		d.set.Clear(id)
		d.count--
		d.entropyValid = false
	}
}

// Entropy returns the Shannon entropy of choosing among the remaining
// stamps weighted by occurrence count:
//
//	H = -Σ P_i·log(P_i)  with  P_i = w_i / W
//	  = (Σ w_i·(log W − log w_i)) / W
//
// log is approximated by the integer bit length, which keeps the sum in
// integers; only the final division is floating point.  Losing accuracy at
// low entropies doesn't matter for ordering cells.
func (d *domain) Entropy(lib *stamp.Library) float64 {
	if d.entropyValid {
		return d.entropy
	}
	var total uint64
	d.set.ForEach(func(id int) {
		total += uint64(lib.Weight(id))
	})
	var sum uint64
	if total > 0 {
		logTotal := log2(total)
		d.set.ForEach(func(id int) {
			w := uint64(lib.Weight(id))
			sum += w * uint64(logTotal-log2(w))
		})
		d.entropy = float64(sum) / float64(total)
	} else {
		d.entropy = 0
	}
	d.entropyValid = true
	return d.entropy
}

func log2(v uint64) int {
	return bits.Len64(v) - 1
}
