package wfc

import (
	"fmt"
	"math/rand"

	"github.com/voxelforge/voxwfc/grid"
	"github.com/voxelforge/voxwfc/stamp"
	"github.com/voxelforge/voxwfc/vox"
)

// Outcome is the result of one generation step.
type Outcome int

const (
	// Continue means a cell was collapsed and more undecided cells remain.
	Continue Outcome = iota

	// Done means every cell has exactly one admissible stamp.
	Done

	// Contradiction means propagation emptied a domain and the configured
	// backtracking budget could not recover.  The region remains
	// inspectable for diagnostics.
	Contradiction
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Done:
		return "done"
	case Contradiction:
		return "contradiction"
	default:
		return "unknown outcome"
	}
}

// Params configures one generation region.
type Params struct {
	// Seed initializes the weighted random collapse choices.
	Seed int64

	// BacktrackLimit bounds how many collapses may be undone before the
	// engine reports a terminal contradiction.  Zero disables backtracking:
	// the first contradiction is reported to the caller, who may restart
	// with a new seed.
	BacktrackLimit int
}

// Failure records where and why generation failed, with the domain state
// immediately preceding the failed collapse for diagnostics.
type Failure struct {
	// Cell is the world coordinate of the failed cell's origin.
	Cell vox.Point3d

	// Choice is the stamp whose collapse emptied a neighbor's domain, or -1
	// when the region was contradictory before any collapse.
	Choice int
}

func (f *Failure) Error() string {
	if f.Choice < 0 {
		return fmt.Sprintf("region contradictory at cell %s before any collapse", f.Cell)
	}
	return fmt.Sprintf("collapse of cell %s to stamp %d emptied a domain", f.Cell, f.Choice)
}

// savedDomain is one undo entry: the stamp set a cell held before a
// collapse/propagation pass touched it.
type savedDomain struct {
	cell int
	set  stamp.Bitset
}

// undoFrame captures everything one collapse changed, pushed before each
// collapse and popped on contradiction.  Explicit frames keep the
// backtracking depth bound checkable instead of hiding it in a call stack.
type undoFrame struct {
	cell   int
	choice int
	saved  []savedDomain
}

// Region is one generation pass over a rectangular extent of cells.  Each
// cell is one stamp-sized block; the region owns the cell domains and
// references (does not own) the grid view it commits into.
type Region struct {
	lib  *stamp.Library
	view *grid.View

	cellShape vox.StridedShape // cells per axis
	origin    vox.Point3d      // world coordinate of cell (0,0,0)
	pitch     vox.Point3d      // world size of one cell

	domains   []domain
	undecided int

	rng            *rand.Rand
	backtrackLimit int
	backtracks     int
	undo           []undoFrame

	done    bool
	failure *Failure
}

// NewRegion prepares a generation pass of cells[0]×cells[1]×cells[2]
// stamp-sized cells whose first cell origin is at the view extent's minimum
// corner.  Every cell domain starts as the full stamp set, then is
// constrained by any pre-painted voxels already stored under the region,
// and the constraints are propagated to a fixed point.
func NewRegion(lib *stamp.Library, view *grid.View, cells vox.Point3d, params Params) (*Region, error) {
	cellShape, err := vox.NewStridedShape(cells[0], cells[1], cells[2])
	if err != nil {
		return nil, err
	}
	pitch := lib.Shape().Extents()
	origin := view.Extent().MinPoint()
	last := origin.Add(cells.Mult(pitch)).AddScalar(-1)
	if !view.Extent().Contains(last) {
		return nil, fmt.Errorf("generation region of %s cells at pitch %s exceeds view %s: %w",
			cells, pitch, view.Extent(), vox.ErrOutOfBounds)
	}

	r := &Region{
		lib:            lib,
		view:           view,
		cellShape:      cellShape,
		origin:         origin,
		pitch:          pitch,
		domains:        make([]domain, cellShape.Size()),
		rng:            rand.New(rand.NewSource(params.Seed)),
		backtrackLimit: params.BacktrackLimit,
	}

	seeded, err := r.seedDomains()
	if err != nil {
		return nil, err
	}
	for i := range r.domains {
		if r.domains[i].count > 1 {
			r.undecided++
		}
	}

	// Pre-painted constraints may already decide or doom neighbors.
	if bad, contradiction := r.propagate(seeded, nil); contradiction {
		r.failure = &Failure{Cell: r.cellOrigin(bad), Choice: -1}
	}
	return r, nil
}

// seedDomains initializes every cell to the full stamp set intersected with
// the stamps matching whatever voxels are already stored under the cell.
// Returns the cells that were constrained below the full set.
func (r *Region) seedDomains() ([]int, error) {
	full := stamp.FullBitset(r.lib.Len())
	stampShape := r.lib.Shape()
	block := make([]vox.VoxelID, stampShape.Size())

	var seeded []int
	for c := uint32(0); c < r.cellShape.Size(); c++ {
		painted := false
		base := r.cellOrigin(int(c))
		for i := uint32(0); i < stampShape.Size(); i++ {
			local, err := stampShape.Delinearize(i)
			if err != nil {
				return nil, err
			}
			value, err := r.view.Read(base.Add(local))
			if err != nil {
				return nil, err
			}
			block[i] = value
			if !value.IsEmpty() {
				painted = true
			}
		}
		set := full.Clone()
		if painted {
			set.And(r.lib.MatchingMask(block))
			seeded = append(seeded, int(c))
		}
		r.domains[c] = newDomain(set)
	}
	return seeded, nil
}

// cellOrigin returns the world coordinate of a cell's first voxel.
func (r *Region) cellOrigin(c int) vox.Point3d {
	cell, err := r.cellShape.Delinearize(uint32(c))
	if err != nil {
		// Cell indices originate inside the region; out of range is a bug.
		panic(err)
	}
	return r.origin.Add(cell.Mult(r.pitch))
}

// Undecided returns the number of cells with more than one admissible stamp.
func (r *Region) Undecided() int {
	return r.undecided
}

// Failure returns diagnostics for the most recent contradiction, or nil.
func (r *Region) Failure() *Failure {
	return r.failure
}

// Domain returns a copy of the admissible stamp set of the cell holding the
// given world coordinate, for inspection after a contradiction.
func (r *Region) Domain(p vox.Point3d) (stamp.Bitset, error) {
	local := p.Sub(r.origin)
	var cell vox.Point3d
	for dim := 0; dim < 3; dim++ {
		if local[dim] < 0 {
			return nil, vox.NewOutOfBoundsError(p, r.cellShape.Extents().Mult(r.pitch))
		}
		cell[dim] = local[dim] / r.pitch[dim]
	}
	c, err := r.cellShape.Linearize(cell)
	if err != nil {
		return nil, err
	}
	return r.domains[c].set.Clone(), nil
}

// Step performs one collapse and its constraint propagation.  It returns
// Done once no undecided cells remain, Continue after a successful
// collapse, or Contradiction (with ErrContradiction or ErrBacktrackLimit)
// when the region cannot be completed.  Each call is bounded work; drive it
// in a loop or use Run.
func (r *Region) Step() (Outcome, error) {
	if r.failure != nil {
		return Contradiction, fmt.Errorf("%v: %w", r.failure, vox.ErrContradiction)
	}
	if r.undecided == 0 {
		r.done = true
		return Done, nil
	}

	c := r.selectCell()
	choice := r.choose(&r.domains[c])

	frame := undoFrame{cell: c, choice: choice}
	frame.saved = append(frame.saved, savedDomain{cell: c, set: r.domains[c].set.Clone()})

	single := stamp.NewBitset(r.lib.Len())
	single.Set(choice)
	r.domains[c].replace(single)
	r.undecided--

	bad, contradiction := r.propagate([]int{c}, &frame)
	if contradiction {
		return r.backtrack(frame, bad)
	}
	r.undo = append(r.undo, frame)

	if r.undecided == 0 {
		r.done = true
		return Done, nil
	}
	return Continue, nil
}

// Run drives Step until the region is done or contradictory.
func (r *Region) Run() (Outcome, error) {
	for {
		outcome, err := r.Step()
		if outcome != Continue {
			return outcome, err
		}
	}
}

// selectCell returns the undecided cell with minimum entropy, ties broken
// by lowest linear index so generation is deterministic for a fixed seed.
func (r *Region) selectCell() int {
	best := -1
	bestEntropy := 0.0
	for c := range r.domains {
		if r.domains[c].count <= 1 {
			continue
		}
		e := r.domains[c].Entropy(r.lib)
		if best < 0 || e < bestEntropy {
			best = c
			bestEntropy = e
		}
	}
	return best
}

// choose picks one stamp from a domain at random, weighted by occurrence.
func (r *Region) choose(d *domain) int {
	var total uint64
	d.set.ForEach(func(id int) {
		total += uint64(r.lib.Weight(id))
	})
	pick := r.rng.Int63n(int64(total))
	choice := -1
	d.set.ForEach(func(id int) {
		if choice >= 0 {
			return
		}
		pick -= int64(r.lib.Weight(id))
		if pick < 0 {
			choice = id
		}
	})
	return choice
}

// propagate removes stamps with no compatible support from the neighbors of
// the given cells, transitively, until no further removals occur.  Prior
// domain states of touched cells are recorded into frame (when non-nil) so
// the pass can be undone.  Returns the failing cell and true if a domain
// was emptied.
func (r *Region) propagate(queue []int, frame *undoFrame) (int, bool) {
	saved := make(map[int]bool)
	if frame != nil {
		for _, s := range frame.saved {
			saved[s.cell] = true
		}
	}

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for dir := stamp.Direction(0); dir < stamp.NumDirections; dir++ {
			n, ok := r.neighbor(c, dir)
			if !ok {
				continue
			}
			allowed := stamp.NewBitset(r.lib.Len())
			r.domains[c].set.ForEach(func(id int) {
				allowed.Or(r.lib.Compatible(id, dir))
			})
			if frame != nil && !saved[n] {
				frame.saved = append(frame.saved, savedDomain{cell: n, set: r.domains[n].set.Clone()})
				saved[n] = true
			}
			wasUndecided := r.domains[n].count > 1
			if !r.domains[n].intersect(allowed) {
				continue
			}
			if r.domains[n].count == 0 {
				return n, true
			}
			if wasUndecided && r.domains[n].count == 1 {
				r.undecided--
			}
			queue = append(queue, n)
		}
	}
	return 0, false
}

// neighbor returns the cell index one step along dir, or false at the
// region boundary.
func (r *Region) neighbor(c int, dir stamp.Direction) (int, bool) {
	cell, err := r.cellShape.Delinearize(uint32(c))
	if err != nil {
		panic(err)
	}
	cell = cell.Add(dir.Offset())
	i, err := r.cellShape.Linearize(cell)
	if err != nil {
		return 0, false
	}
	return int(i), true
}

// backtrack undoes the failing collapse and, if the budget allows, earlier
// ones, excluding each undone choice before handing control back to Select.
func (r *Region) backtrack(failed undoFrame, bad int) (Outcome, error) {
	frame := failed
	for {
		if r.backtracks >= r.backtrackLimit {
			r.failure = &Failure{Cell: r.cellOrigin(frame.cell), Choice: frame.choice}
			return Contradiction, fmt.Errorf("%v: %w", r.failure, terminalErr(r.backtrackLimit))
		}
		r.backtracks++
		r.restore(frame)

		// The undone choice is excluded for this search prefix; an earlier
		// restore may legitimately resurrect it.
		r.excludeChoice(frame.cell, frame.choice)
		if r.domains[frame.cell].count > 0 {
			// Propagate the exclusion; it may decide the cell outright.
			exclusionFrame := undoFrame{cell: frame.cell, choice: frame.choice}
			if _, contradiction := r.propagate([]int{frame.cell}, &exclusionFrame); !contradiction {
				return Continue, nil
			}
			r.restore(exclusionFrame)
			// Exclusion itself is contradictory: this prefix is dead too.
		}

		if len(r.undo) == 0 {
			r.failure = &Failure{Cell: r.cellOrigin(frame.cell), Choice: frame.choice}
			return Contradiction, fmt.Errorf("%v: %w", r.failure, vox.ErrContradiction)
		}
		frame = r.undo[len(r.undo)-1]
		r.undo = r.undo[:len(r.undo)-1]
	}
}

// restore rewinds every domain a frame touched.
func (r *Region) restore(frame undoFrame) {
	for _, s := range frame.saved {
		wasUndecided := r.domains[s.cell].count > 1
		r.domains[s.cell].replace(s.set)
		nowUndecided := r.domains[s.cell].count > 1
		if nowUndecided && !wasUndecided {
			r.undecided++
		} else if !nowUndecided && wasUndecided {
			r.undecided--
		}
	}
}

func (r *Region) excludeChoice(c, choice int) {
	wasUndecided := r.domains[c].count > 1
	r.domains[c].exclude(choice)
	if wasUndecided && r.domains[c].count <= 1 {
		r.undecided--
	}
}

func terminalErr(limit int) error {
	if limit == 0 {
		return vox.ErrContradiction
	}
	return vox.ErrBacktrackLimit
}

// Commit writes every collapsed cell's stamp content into the target view
// at the corresponding world coordinates, going through the store's
// copy-on-write path so space outside the generation extent is untouched.
// Only a Done region may be committed.
func (r *Region) Commit() error {
	if !r.done {
		return fmt.Errorf("cannot commit region with %d undecided cells", r.undecided)
	}
	cells := r.cellShape.Extents()
	size := cells.Mult(r.pitch)
	extent, err := vox.NewExtent(r.origin, size)
	if err != nil {
		return err
	}
	out := grid.NewCuboid(extent)

	stampShape := r.lib.Shape()
	for c := uint32(0); c < r.cellShape.Size(); c++ {
		id := r.domains[c].set.First()
		if id < 0 || r.domains[c].count != 1 {
			return fmt.Errorf("cell %s is not collapsed: %w", r.cellOrigin(int(c)), vox.ErrContradiction)
		}
		st := r.lib.Stamp(id)
		base := r.cellOrigin(int(c))
		for i := uint32(0); i < stampShape.Size(); i++ {
			local, err := stampShape.Delinearize(i)
			if err != nil {
				return err
			}
			if err := out.Write(base.Add(local), st.Value(i)); err != nil {
				return err
			}
		}
	}

	if err := r.view.Apply(out); err != nil {
		return err
	}
	vox.Infof("Committed %d cells (%s voxels) at %s\n", r.cellShape.Size(), size, r.origin)
	return nil
}
