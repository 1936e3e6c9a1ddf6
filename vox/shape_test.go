package vox

import (
	"errors"
	"testing"
)

func TestPow2ShapeRoundTrip(t *testing.T) {
	shape := MustPow2Shape(4, 3, 5)
	e := shape.Extents()
	if e != (Point3d{16, 8, 32}) {
		t.Fatalf("bad extents %s", e)
	}
	if shape.Size() != 16*8*32 {
		t.Fatalf("bad size %d", shape.Size())
	}

	var seen = make(map[uint32]bool, shape.Size())
	for z := int32(0); z < e[2]; z++ {
		for y := int32(0); y < e[1]; y++ {
			for x := int32(0); x < e[0]; x++ {
				p := Point3d{x, y, z}
				i, err := shape.Linearize(p)
				if err != nil {
					t.Fatalf("linearize %s: %v", p, err)
				}
				if seen[i] {
					t.Fatalf("index %d assigned twice", i)
				}
				seen[i] = true
				back, err := shape.Delinearize(i)
				if err != nil {
					t.Fatalf("delinearize %d: %v", i, err)
				}
				if back != p {
					t.Errorf("round trip %s -> %d -> %s", p, i, back)
				}
			}
		}
	}
	if uint32(len(seen)) != shape.Size() {
		t.Errorf("only %d of %d indices used", len(seen), shape.Size())
	}
}

func TestStridedShapeRoundTrip(t *testing.T) {
	shape := MustStridedShape(5, 3, 7)
	if shape.Size() != 5*3*7 {
		t.Fatalf("bad size %d", shape.Size())
	}
	for i := uint32(0); i < shape.Size(); i++ {
		p, err := shape.Delinearize(i)
		if err != nil {
			t.Fatalf("delinearize %d: %v", i, err)
		}
		back, err := shape.Linearize(p)
		if err != nil {
			t.Fatalf("linearize %s: %v", p, err)
		}
		if back != i {
			t.Errorf("round trip %d -> %s -> %d", i, p, back)
		}
	}
}

// Shapes with the same extents must agree on the linearization, since
// power-of-two addressing is just the fast path of the same ZYX scheme.
func TestShapeEquivalence(t *testing.T) {
	pow2 := MustPow2Shape(3, 2, 4)
	e := pow2.Extents()
	strided := MustStridedShape(e[0], e[1], e[2])
	for i := uint32(0); i < pow2.Size(); i++ {
		a, err := pow2.Delinearize(i)
		if err != nil {
			t.Fatal(err)
		}
		b, err := strided.Delinearize(i)
		if err != nil {
			t.Fatal(err)
		}
		if a != b {
			t.Fatalf("index %d: pow2 %s vs strided %s", i, a, b)
		}
	}
}

func TestShapeOutOfBounds(t *testing.T) {
	shapes := []Shape{MustPow2Shape(4, 4, 4), MustStridedShape(16, 16, 16)}
	bad := []Point3d{
		{-1, 0, 0},
		{0, -1, 0},
		{0, 0, -1},
		{16, 0, 0},
		{0, 16, 0},
		{0, 0, 16},
	}
	for _, shape := range shapes {
		for _, p := range bad {
			if _, err := shape.Linearize(p); !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("%s: linearize %s: want out of bounds, got %v", shape, p, err)
			}
		}
		if _, err := shape.Delinearize(shape.Size()); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("%s: delinearize size: want out of bounds, got %v", shape, err)
		}
	}
}

func TestBadShapeParams(t *testing.T) {
	if _, err := NewPow2Shape(11, 11, 11); err == nil {
		t.Error("expected error for oversized pow2 shape")
	}
	// Exponent triples summing past 255 wrap in uint8 arithmetic; the guard
	// must sum in a wider type.
	if _, err := NewPow2Shape(128, 128, 30); err == nil {
		t.Error("expected error for exponents that overflow a uint8 sum")
	}
	if _, err := NewStridedShape(0, 4, 4); err == nil {
		t.Error("expected error for zero strided extent")
	}
	if _, err := NewStridedShape(2048, 2048, 2048); err == nil {
		t.Error("expected error for oversized strided shape")
	}
}
