/*
	This file supports serialization/deserialization and compression of data.
*/

package vox

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
)

// Compression is the format of compression for storing data.
// NOTE: Should be no more than 8 (3 bits) of compression types.
type Compression uint8

const (
	Uncompressed Compression = 0
	Snappy                   = 1 << iota
	Gzip
)

func (compress Compression) String() string {
	switch compress {
	case Uncompressed:
		return "No compression"
	case Snappy:
		return "Go Snappy compression"
	case Gzip:
		return "Gzip compression"
	default:
		return "Unknown compression"
	}
}

// CompressionByName returns the Compression for a configuration string.
func CompressionByName(name string) (Compression, error) {
	switch name {
	case "", "none":
		return Uncompressed, nil
	case "snappy":
		return Snappy, nil
	case "gzip":
		return Gzip, nil
	default:
		return 0, fmt.Errorf("unknown compression format %q", name)
	}
}

// Checksum is the type of checksum employed for error checking stored data.
// NOTE: Should be no more than 4 (2 bits) of checksum types.
type Checksum uint8

const (
	NoChecksum Checksum = 0
	CRC32               = 1 << iota
)

func (checksum Checksum) String() string {
	switch checksum {
	case NoChecksum:
		return "No checksum"
	case CRC32:
		return "CRC32 checksum"
	default:
		return "Unknown checksum"
	}
}

// SerializationFormat is a single byte combining both compression and checksum methods.
type SerializationFormat uint8

func EncodeSerializationFormat(compress Compression, checksum Checksum) SerializationFormat {
	a := (uint8(compress) & 0x07) << 5
	b := (uint8(checksum) & 0x03) << 3
	return SerializationFormat(a | b)
}

func DecodeSerializationFormat(s SerializationFormat) (compress Compression, checksum Checksum) {
	compress = Compression(uint8(s) >> 5)
	checksum = Checksum((uint8(s) >> 3) & 0x03)
	return
}

// SerializeData serializes a slice of bytes using optional compression, checksum.
func SerializeData(data []byte, compress Compression, checksum Checksum) ([]byte, error) {
	var buffer bytes.Buffer

	// Store the requested compression and checksum.
	format := EncodeSerializationFormat(compress, checksum)
	if err := binary.Write(&buffer, binary.LittleEndian, format); err != nil {
		return nil, err
	}

	var byteData []byte
	switch compress {
	case Uncompressed:
		byteData = data
	case Snappy:
		byteData = snappy.Encode(nil, data)
	case Gzip:
		var gzipBuf bytes.Buffer
		gw := gzip.NewWriter(&gzipBuf)
		if _, err := gw.Write(data); err != nil {
			return nil, err
		}
		if err := gw.Close(); err != nil {
			return nil, err
		}
		byteData = gzipBuf.Bytes()
	default:
		return nil, fmt.Errorf("illegal compression (%s) during serialization", compress)
	}

	switch checksum {
	case NoChecksum:
	case CRC32:
		crcChecksum := crc32.ChecksumIEEE(byteData)
		if err := binary.Write(&buffer, binary.LittleEndian, crcChecksum); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("illegal checksum (%s) during serialization", checksum)
	}

	// The actual data is written last, after any checksum, so we don't have
	// to worry about length when deserializing.
	if _, err := buffer.Write(byteData); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DeserializeData deserializes a slice of bytes using stored compression, checksum.
// Checksum mismatches and codec failures surface as store integrity errors
// since they indicate a corrupted blob.
func DeserializeData(s []byte) ([]byte, error) {
	buffer := bytes.NewBuffer(s)

	var format SerializationFormat
	if err := binary.Read(buffer, binary.LittleEndian, &format); err != nil {
		return nil, fmt.Errorf("truncated serialization header: %w", ErrStoreIntegrity)
	}
	compress, checksum := DecodeSerializationFormat(format)

	var storedCrc32 uint32
	switch checksum {
	case NoChecksum:
	case CRC32:
		if err := binary.Read(buffer, binary.LittleEndian, &storedCrc32); err != nil {
			return nil, fmt.Errorf("truncated checksum: %w", ErrStoreIntegrity)
		}
	default:
		return nil, fmt.Errorf("illegal checksum in stored data: %w", ErrStoreIntegrity)
	}

	cdata := buffer.Bytes()

	switch checksum {
	case CRC32:
		crcChecksum := crc32.ChecksumIEEE(cdata)
		if crcChecksum != storedCrc32 {
			return nil, fmt.Errorf("bad checksum: stored %x got %x: %w", storedCrc32, crcChecksum, ErrStoreIntegrity)
		}
	}

	var data []byte
	switch compress {
	case Uncompressed:
		data = cdata
	case Snappy:
		var err error
		if data, err = snappy.Decode(nil, cdata); err != nil {
			return nil, fmt.Errorf("snappy decode: %v: %w", err, ErrStoreIntegrity)
		}
	case Gzip:
		gr, err := gzip.NewReader(bytes.NewReader(cdata))
		if err != nil {
			return nil, fmt.Errorf("gzip header: %v: %w", err, ErrStoreIntegrity)
		}
		if data, err = io.ReadAll(gr); err != nil {
			return nil, fmt.Errorf("gzip decode: %v: %w", err, ErrStoreIntegrity)
		}
		if err = gr.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %v: %w", err, ErrStoreIntegrity)
		}
	default:
		return nil, fmt.Errorf("illegal compression format (%d) in deserialization: %w", compress, ErrStoreIntegrity)
	}
	return data, nil
}

// Serialize encodes an arbitrary Go object using Gob encoding and optional
// compression, checksum.  For []byte payloads use SerializeData directly
// since Gob adds overhead in both speed and wire size.
func Serialize(object interface{}, compress Compression, checksum Checksum) ([]byte, error) {
	var buffer bytes.Buffer
	enc := gob.NewEncoder(&buffer)
	if err := enc.Encode(object); err != nil {
		return nil, err
	}
	return SerializeData(buffer.Bytes(), compress, checksum)
}

// Deserialize decodes a Go object using Gob encoding.
func Deserialize(s []byte, object interface{}) error {
	data, err := DeserializeData(s)
	if err != nil {
		return err
	}
	dec := gob.NewDecoder(bytes.NewBuffer(data))
	return dec.Decode(object)
}
