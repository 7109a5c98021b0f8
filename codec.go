package packset

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects the algorithm used by Compress.
type CompressionType uint8

const (
	// CompressionNone stores the lane image uncompressed.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses zstd block compression (better ratio).
	CompressionZSTD CompressionType = 2
)

var (
	zstdInit    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func zstdCodecs() (*zstd.Encoder, *zstd.Decoder) {
	zstdInit.Do(func() {
		zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		zstdDecoder, _ = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder
}

// MarshalBinary returns the little-endian lane image of b: the header
// lane first, then the payload lanes. This is the byte-exact in-memory
// layout, so it round-trips through UnmarshalBinary unchanged.
func (b BitSet) MarshalBinary() ([]byte, error) {
	n := int(b.Size()) + 1
	buf := make([]byte, n*wordBytes)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint64(buf[i*wordBytes:], b[i])
	}
	return buf, nil
}

// UnmarshalBinary replaces *b with the bitset encoded in data. The
// header lane is self-describing, so the declared size must match the
// data length exactly.
func (b *BitSet) UnmarshalBinary(data []byte) error {
	if len(data) < wordBytes {
		return fmt.Errorf("packset: %d bytes is too short for a bitset header", len(data))
	}
	size := binary.LittleEndian.Uint32(data[0:4])
	if len(data) != int(size+1)*wordBytes {
		return fmt.Errorf("packset: %d bytes of data, header declares %d lanes", len(data), size+1)
	}
	set := make(BitSet, size+1)
	for i := uint32(0); i <= size; i++ {
		set[i] = binary.LittleEndian.Uint64(data[i*uint32(wordBytes):])
	}
	*b = set
	return nil
}

// WriteTo writes the lane image of b to stream and returns the number of
// bytes written.
func (b BitSet) WriteTo(stream io.Writer) (int64, error) {
	n := int(b.Size()) + 1
	err := binary.Write(stream, binary.LittleEndian, []uint64(b[:n]))
	if err != nil {
		return 0, err
	}
	return int64(n * wordBytes), nil
}

// ReadFrom reads a lane image from stream into b and returns the number
// of bytes read. The header lane is read first to learn the payload
// extent.
func (b *BitSet) ReadFrom(stream io.Reader) (int64, error) {
	var header uint64
	err := binary.Read(stream, binary.LittleEndian, &header)
	if err != nil {
		return 0, err
	}
	size := uint32(header & sizeMask)
	set := make(BitSet, size+1)
	set[0] = header
	err = binary.Read(stream, binary.LittleEndian, []uint64(set[1:]))
	if err != nil {
		return int64(wordBytes), err
	}
	*b = set
	return int64(int(size+1) * wordBytes), nil
}

// MarshalJSON encodes b as a JSON string holding the base64 of its
// binary lane image.
func (b BitSet) MarshalJSON() ([]byte, error) {
	data, err := b.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return json.Marshal(base64.URLEncoding.EncodeToString(data))
}

// UnmarshalJSON decodes the representation produced by MarshalJSON.
func (b *BitSet) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	return b.UnmarshalBinary(raw)
}

// Compressed block format:
// [UncompressedSize uint32][CompressedSize uint32][Type byte][Data...]
// CompressedSize == 0 means the block is stored uncompressed with no type
// byte, either because CompressionNone was requested or because
// compression did not pay.
const blockHeaderSize = 8

// Compress encodes b for storage. The encoded header lane carries
// FlagCompressed regardless of whether the block body ended up
// compressed; Decompress clears it again on the rehydrated set.
func Compress(b BitSet, typ CompressionType) ([]byte, error) {
	raw, err := b.MarshalBinary()
	if err != nil {
		return nil, err
	}
	// Stamp the flag into the encoded image only, not into b itself.
	flagged := binary.LittleEndian.Uint64(raw[0:wordBytes])
	flagged |= uint64(FlagCompressed) << flagsShift
	binary.LittleEndian.PutUint64(raw[0:wordBytes], flagged)

	var compressed []byte
	switch typ {
	case CompressionNone:
	case CompressionLZ4:
		compressed, err = compressLZ4(raw)
		if err != nil {
			return nil, err
		}
	case CompressionZSTD:
		enc, _ := zstdCodecs()
		compressed = enc.EncodeAll(raw, nil)
	default:
		return nil, fmt.Errorf("packset: unknown compression type %d", typ)
	}

	// Store uncompressed when compression does not pay (ratio > 0.9).
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(raw))*0.9 {
		out := make([]byte, blockHeaderSize+len(raw))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(raw)))
		binary.LittleEndian.PutUint32(out[4:], 0)
		copy(out[blockHeaderSize:], raw)
		return out, nil
	}

	out := make([]byte, blockHeaderSize+len(compressed)+1)
	binary.LittleEndian.PutUint32(out[0:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	out[blockHeaderSize] = byte(typ)
	copy(out[blockHeaderSize+1:], compressed)
	return out, nil
}

// Decompress decodes a block produced by Compress and returns the
// rehydrated bitset with FlagCompressed cleared.
func Decompress(data []byte) (BitSet, error) {
	if len(data) < blockHeaderSize {
		return nil, fmt.Errorf("packset: block too small for header")
	}
	rawSize := binary.LittleEndian.Uint32(data[0:])
	compSize := binary.LittleEndian.Uint32(data[4:])

	var raw []byte
	if compSize == 0 {
		if uint32(len(data)) < blockHeaderSize+rawSize {
			return nil, fmt.Errorf("packset: stored block data too small")
		}
		raw = data[blockHeaderSize : blockHeaderSize+rawSize]
	} else {
		if uint32(len(data)) < blockHeaderSize+1+compSize {
			return nil, fmt.Errorf("packset: compressed block data too small")
		}
		typ := CompressionType(data[blockHeaderSize])
		body := data[blockHeaderSize+1 : blockHeaderSize+1+compSize]
		switch typ {
		case CompressionLZ4:
			raw = make([]byte, rawSize)
			n, err := lz4.UncompressBlock(body, raw)
			if err != nil {
				return nil, err
			}
			if uint32(n) != rawSize {
				return nil, fmt.Errorf("packset: decompressed size mismatch")
			}
		case CompressionZSTD:
			_, dec := zstdCodecs()
			decoded, err := dec.DecodeAll(body, make([]byte, 0, rawSize))
			if err != nil {
				return nil, err
			}
			if uint32(len(decoded)) != rawSize {
				return nil, fmt.Errorf("packset: decompressed size mismatch")
			}
			raw = decoded
		default:
			return nil, fmt.Errorf("packset: unknown compression type %d", typ)
		}
	}

	var b BitSet
	if err := b.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	b.ClearFlag(FlagCompressed)
	return b, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return compressed[:n], nil
}
