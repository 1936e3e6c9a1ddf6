package vox

import (
	"bytes"
	"errors"
	"testing"
)

func TestSerializeDataRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		[]byte{},
		[]byte("hello, voxel"),
		bytes.Repeat([]byte{0, 0, 0, 7, 7, 7}, 500),
	}
	for _, compress := range []Compression{Uncompressed, Snappy, Gzip} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			for _, payload := range payloads {
				blob, err := SerializeData(payload, compress, checksum)
				if err != nil {
					t.Fatalf("%s/%s: serialize: %v", compress, checksum, err)
				}
				back, err := DeserializeData(blob)
				if err != nil {
					t.Fatalf("%s/%s: deserialize: %v", compress, checksum, err)
				}
				if !bytes.Equal(back, payload) {
					t.Errorf("%s/%s: payload corrupted in round trip", compress, checksum)
				}
			}
		}
	}
}

func TestSerializeDataCompresses(t *testing.T) {
	// A chunk that's mostly one voxel value must shrink under either codec.
	payload := bytes.Repeat([]byte{3}, 16*16*16)
	for _, compress := range []Compression{Snappy, Gzip} {
		blob, err := SerializeData(payload, compress, NoChecksum)
		if err != nil {
			t.Fatal(err)
		}
		if len(blob) >= len(payload) {
			t.Errorf("%s: blob %d bytes not smaller than payload %d bytes", compress, len(blob), len(payload))
		}
	}
}

func TestDeserializeCorruption(t *testing.T) {
	blob, err := SerializeData([]byte("some chunk payload"), Snappy, CRC32)
	if err != nil {
		t.Fatal(err)
	}

	// Flip a payload byte: the checksum must catch it.
	bad := append([]byte(nil), blob...)
	bad[len(bad)-1] ^= 0xff
	if _, err := DeserializeData(bad); !errors.Is(err, ErrStoreIntegrity) {
		t.Errorf("corrupted payload: want integrity error, got %v", err)
	}

	// Truncated header.
	if _, err := DeserializeData(nil); !errors.Is(err, ErrStoreIntegrity) {
		t.Errorf("empty blob: want integrity error, got %v", err)
	}

	// Garbage compression bits in the format byte.
	bad = append([]byte(nil), blob...)
	bad[0] = 0xe0
	if _, err := DeserializeData(bad); !errors.Is(err, ErrStoreIntegrity) {
		t.Errorf("bad format byte: want integrity error, got %v", err)
	}
}

func TestSerializeObjectRoundTrip(t *testing.T) {
	type record struct {
		Name   string
		Points []Point3d
	}
	in := record{Name: "region", Points: []Point3d{{1, 2, 3}, {-4, 5, -6}}}
	blob, err := Serialize(in, Gzip, CRC32)
	if err != nil {
		t.Fatal(err)
	}
	var out record
	if err := Deserialize(blob, &out); err != nil {
		t.Fatal(err)
	}
	if out.Name != in.Name || len(out.Points) != 2 || out.Points[1] != in.Points[1] {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestCompressionByName(t *testing.T) {
	for name, want := range map[string]Compression{
		"":       Uncompressed,
		"none":   Uncompressed,
		"snappy": Snappy,
		"gzip":   Gzip,
	} {
		got, err := CompressionByName(name)
		if err != nil || got != want {
			t.Errorf("CompressionByName(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := CompressionByName("lzma"); err == nil {
		t.Error("expected error for unknown compression name")
	}
}
