/*
	This file defines the error taxonomy shared by the storage and generation
	layers.  Callers discriminate with errors.Is against the sentinels.
*/

package vox

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds marks a coordinate outside a declared shape or extent.
	// The offending operation is rejected; no state is corrupted.
	ErrOutOfBounds = errors.New("coordinate out of bounds")

	// ErrStoreIntegrity marks a stored chunk that failed decompression or
	// its checksum.  Fatal for that chunk; the rest of the store remains
	// usable.
	ErrStoreIntegrity = errors.New("store integrity failure")

	// ErrContradiction marks a generation cell whose domain was emptied by
	// constraint propagation.  Recoverable via bounded backtracking or a
	// full-region restart.
	ErrContradiction = errors.New("constraint contradiction")

	// ErrBacktrackLimit is the terminal contradiction variant: the engine
	// exhausted its configured backtracking depth and the caller should
	// restart with different parameters or seed.
	ErrBacktrackLimit = errors.New("backtrack limit exceeded")
)

// NewOutOfBoundsError returns an ErrOutOfBounds wrapped with the offending
// point and the extent it missed.
func NewOutOfBoundsError(p Point3d, extents Point3d) error {
	return fmt.Errorf("point %s outside extents %s: %w", p, extents, ErrOutOfBounds)
}
