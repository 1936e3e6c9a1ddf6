package vox

import "fmt"

// VoxelID is the payload stored at one voxel position: an index into a
// Palette.  256 materials should be enough for a single generation pass;
// if more are needed, ids should represent categories and a later pass
// specializes them.
type VoxelID uint8

// EmptyVoxel is the reserved id for uninitialized space.  A Palette must
// map it to its default material.
const EmptyVoxel VoxelID = 0

// IsEmpty returns true if the id is the reserved empty value.
func (v VoxelID) IsEmpty() bool {
	return v == EmptyVoxel
}

// Material is a richer descriptor referenced by a VoxelID through a Palette.
type Material struct {
	Name string
	RGBA [4]uint8
}

// Palette maps voxel ids to material descriptors.  Id 0 is always the
// default (empty) material.
type Palette struct {
	materials []Material
}

// NewPalette returns a palette whose id 0 is the given empty material.
func NewPalette(empty Material) *Palette {
	return &Palette{materials: []Material{empty}}
}

// Add registers a material and returns its id.
func (p *Palette) Add(m Material) (VoxelID, error) {
	if len(p.materials) > int(^VoxelID(0)) {
		return 0, fmt.Errorf("palette full: cannot add material %q", m.Name)
	}
	p.materials = append(p.materials, m)
	return VoxelID(len(p.materials) - 1), nil
}

// Material returns the descriptor for an id, or the empty material if the
// id was never registered.
func (p *Palette) Material(id VoxelID) Material {
	if int(id) >= len(p.materials) {
		return p.materials[0]
	}
	return p.materials[id]
}

// Len returns the number of registered materials including the empty one.
func (p *Palette) Len() int {
	return len(p.materials)
}
