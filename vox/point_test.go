package vox

import "testing"

func TestPointArithmetic(t *testing.T) {
	a := Point3d{1, -2, 3}
	b := Point3d{4, 5, -6}

	if got := a.Add(b); got != (Point3d{5, 3, -3}) {
		t.Errorf("Add: got %s", got)
	}
	if got := a.Sub(b); got != (Point3d{-3, -7, 9}) {
		t.Errorf("Sub: got %s", got)
	}
	if got := a.Mult(b); got != (Point3d{4, -10, -18}) {
		t.Errorf("Mult: got %s", got)
	}
	if got := a.Max(b); got != (Point3d{4, 5, 3}) {
		t.Errorf("Max: got %s", got)
	}
	if got := a.Min(b); got != (Point3d{1, -2, -6}) {
		t.Errorf("Min: got %s", got)
	}
	if got := b.Prod(); got != -120 {
		t.Errorf("Prod: got %d", got)
	}
	dup := a.Duplicate()
	dup[0] = 99
	if a[0] != 1 {
		t.Error("Duplicate shares storage with receiver")
	}
}

// Chunk coordinates use floor division so negative world coordinates land
// in the correct chunk instead of being truncated toward the origin.
func TestPointChunking(t *testing.T) {
	size := Point3d{16, 16, 16}
	tests := []struct {
		p     Point3d
		chunk ChunkPoint3d
		local Point3d
	}{
		{Point3d{0, 0, 0}, ChunkPoint3d{0, 0, 0}, Point3d{0, 0, 0}},
		{Point3d{15, 15, 15}, ChunkPoint3d{0, 0, 0}, Point3d{15, 15, 15}},
		{Point3d{16, 0, 0}, ChunkPoint3d{1, 0, 0}, Point3d{0, 0, 0}},
		{Point3d{-1, -1, -1}, ChunkPoint3d{-1, -1, -1}, Point3d{15, 15, 15}},
		{Point3d{-16, 0, 0}, ChunkPoint3d{-1, 0, 0}, Point3d{0, 0, 0}},
		{Point3d{-17, 0, 0}, ChunkPoint3d{-2, 0, 0}, Point3d{15, 0, 0}},
		{Point3d{-33, 40, -5}, ChunkPoint3d{-3, 2, -1}, Point3d{15, 8, 11}},
	}
	for _, tc := range tests {
		if got := tc.p.Chunk(size); got != tc.chunk {
			t.Errorf("Chunk(%s): got %s, want %s", tc.p, got, tc.chunk)
		}
		if got := tc.p.PointInChunk(size); got != tc.local {
			t.Errorf("PointInChunk(%s): got %s, want %s", tc.p, got, tc.local)
		}
	}
}

// Chunk and PointInChunk must be consistent: chunk * size + local == p.
func TestPointChunkingConsistency(t *testing.T) {
	size := Point3d{16, 8, 32}
	for _, p := range []Point3d{
		{-100, -1, -32}, {-17, 7, 0}, {0, 0, 0}, {31, 9, 64}, {-16, -8, -32},
	} {
		c := p.Chunk(size)
		local := p.PointInChunk(size)
		rebuilt := Point3d{
			c[0]*size[0] + local[0],
			c[1]*size[1] + local[1],
			c[2]*size[2] + local[2],
		}
		if rebuilt != p {
			t.Errorf("point %s: chunk %s + local %s rebuilds to %s", p, c, local, rebuilt)
		}
	}
}

func TestChunkPointBounds(t *testing.T) {
	size := Point3d{16, 16, 16}
	cp := ChunkPoint3d{-2, 0, 3}
	if got := cp.MinPoint(size); got != (Point3d{-32, 0, 48}) {
		t.Errorf("MinPoint: got %s", got)
	}
	if got := cp.MaxPoint(size); got != (Point3d{-17, 15, 63}) {
		t.Errorf("MaxPoint: got %s", got)
	}
}

func TestChunkPointLess(t *testing.T) {
	ordered := []ChunkPoint3d{
		{0, 0, -1}, {-5, 2, 0}, {0, 2, 0}, {1, 2, 0}, {0, 3, 0}, {0, 0, 1},
	}
	for i := 0; i+1 < len(ordered); i++ {
		if !ordered[i].Less(ordered[i+1]) {
			t.Errorf("%s should order before %s", ordered[i], ordered[i+1])
		}
		if ordered[i+1].Less(ordered[i]) {
			t.Errorf("%s should not order before %s", ordered[i+1], ordered[i])
		}
	}
}
