package packset

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBitSet is a handle to a packed bitset mirrored into redis.
// The set is stored as a redis string: bytes 0-7 are the header lane in
// plain little-endian, the payload bytes follow with the bit order of
// every byte mirrored so that element e is addressable as redis bit
// 64+e (redis numbers bits most-significant-first within a byte).
// Bit operations are executed server-side on the string stored at key.
// For details on redis bitmaps see https://redis.io/docs/data-types/bitmaps/
type RedisBitSet struct {
	size uint32
	key  string
}

// NewRedisBitSet creates an empty redis-backed bitset able to hold
// elements bits, stored under a freshly generated key.
func NewRedisBitSet(elements uint) (*RedisBitSet, error) {
	if elements == 0 {
		return nil, fmt.Errorf("packset: bitset capacity must be at least 1 bit")
	}
	w := reqLanes(elements)
	buf := make([]byte, int(w)*wordBytes)
	binary.LittleEndian.PutUint32(buf[0:4], w-1)
	key := GenerateRandomString(16)
	err := GetRedisClient().Set(context.Background(), key, string(buf), 0).Err()
	if err != nil {
		return nil, err
	}
	return &RedisBitSet{w - 1, key}, nil
}

// SaveRedis mirrors an in-memory bitset into redis under a freshly
// generated key and returns a handle to it.
func SaveRedis(b BitSet) (*RedisBitSet, error) {
	buf := encodeRedisValue(b)
	key := GenerateRandomString(16)
	err := GetRedisClient().Set(context.Background(), key, string(buf), 0).Err()
	if err != nil {
		return nil, err
	}
	return &RedisBitSet{b.Size(), key}, nil
}

// FromRedisKey creates a handle to the bitset stored at key.
func FromRedisKey(key string) (*RedisBitSet, error) {
	val, err := GetRedisClient().Get(context.Background(), key).Result()
	if err != nil {
		return nil, err
	}
	if len(val) < wordBytes {
		return nil, fmt.Errorf("packset: value at key %q too short for a bitset header", key)
	}
	size := binary.LittleEndian.Uint32([]byte(val)[0:4])
	if len(val) != int(size+1)*wordBytes {
		return nil, fmt.Errorf("packset: value at key %q has %d bytes, header declares %d lanes", key, len(val), size+1)
	}
	return &RedisBitSet{size, key}, nil
}

// Load fetches the mirrored bitset back into memory.
func (r *RedisBitSet) Load() (BitSet, error) {
	val, err := GetRedisClient().Get(context.Background(), r.key).Result()
	if err != nil {
		return nil, err
	}
	return decodeRedisValue([]byte(val))
}

// Key returns the redis key the bitset is stored at.
func (r *RedisBitSet) Key() string {
	return r.key
}

// Size returns the number of payload lanes of the mirrored bitset.
func (r *RedisBitSet) Size() uint32 {
	return r.size
}

// Test reports whether bit index is set.
func (r *RedisBitSet) Test(index uint) (bool, error) {
	val, err := GetRedisClient().GetBit(context.Background(), r.key, int64(uint(wordSize)+index)).Result()
	if err != nil {
		return false, err
	}
	return val != 0, nil
}

// TestMulti reports, for each index in indexes, whether that bit is set,
// using a single pipelined round trip.
func (r *RedisBitSet) TestMulti(indexes []uint) ([]bool, error) {
	if len(indexes) == 0 {
		return nil, fmt.Errorf("packset: at least 1 index is required")
	}
	pipe := GetRedisClient().Pipeline()
	ctx := context.Background()
	values := make([]*redis.IntCmd, len(indexes))
	for i := range indexes {
		values[i] = pipe.GetBit(ctx, r.key, int64(uint(wordSize)+indexes[i]))
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]bool, len(values))
	for i := range values {
		result[i] = values[i].Val() != 0
	}
	return result, nil
}

// Set sets bit index.
func (r *RedisBitSet) Set(index uint) error {
	return GetRedisClient().SetBit(context.Background(), r.key, int64(uint(wordSize)+index), 1).Err()
}

// SetMulti sets the bits at every index in indexes using a single
// pipelined round trip.
func (r *RedisBitSet) SetMulti(indexes []uint) error {
	if len(indexes) == 0 {
		return fmt.Errorf("packset: at least 1 index is required")
	}
	pipe := GetRedisClient().Pipeline()
	ctx := context.Background()
	for i := range indexes {
		pipe.SetBit(ctx, r.key, int64(uint(wordSize)+indexes[i]), 1)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Clear clears bit index.
func (r *RedisBitSet) Clear(index uint) error {
	return GetRedisClient().SetBit(context.Background(), r.key, int64(uint(wordSize)+index), 0).Err()
}

// Count returns the number of set bits in the payload, counted
// server-side over the byte range past the header.
func (r *RedisBitSet) Count() (uint, error) {
	bitRange := &redis.BitCount{Start: int64(wordBytes), End: -1}
	val, err := GetRedisClient().BitCount(context.Background(), r.key, bitRange).Result()
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}

// First returns the smallest set element, if any.
func (r *RedisBitSet) First() (uint, bool, error) {
	index, err := GetRedisClient().BitPos(context.Background(), r.key, 1, int64(wordBytes)).Result()
	if err != nil {
		return 0, false, err
	}
	if index < 0 {
		return 0, false, nil
	}
	return uint(index) - uint(wordSize), true, nil
}

// Equal reports whether the payloads of r and other are identical,
// comparing the stored values past the header bytes.
func (r *RedisBitSet) Equal(other *RedisBitSet) (bool, error) {
	aVal, err := GetRedisClient().Get(context.Background(), r.key).Result()
	if err != nil {
		return false, err
	}
	bVal, err := GetRedisClient().Get(context.Background(), other.key).Result()
	if err != nil {
		return false, err
	}
	if len(aVal) < wordBytes || len(bVal) < wordBytes {
		return false, fmt.Errorf("packset: stored value too short for a bitset header")
	}
	return bytes.Equal([]byte(aVal)[wordBytes:], []byte(bVal)[wordBytes:]), nil
}

// And computes the intersection of a and b server-side via BITOP,
// storing the result at dst's key. The destination's size field is
// repaired to a's afterwards; its flag and tag bytes are whatever the
// server-side operation produced.
func (dst *RedisBitSet) And(a, b *RedisBitSet) error {
	ctx := context.Background()
	err := GetRedisClient().BitOpAnd(ctx, dst.key, a.key, b.key).Err()
	if err != nil {
		return err
	}
	return dst.repairSize(ctx, a.size)
}

// Or computes the union of a and b server-side via BITOP, storing the
// result at dst's key. See And for header handling.
func (dst *RedisBitSet) Or(a, b *RedisBitSet) error {
	ctx := context.Background()
	err := GetRedisClient().BitOpOr(ctx, dst.key, a.key, b.key).Err()
	if err != nil {
		return err
	}
	return dst.repairSize(ctx, a.size)
}

// Xor computes the symmetric difference of a and b server-side via
// BITOP, storing the result at dst's key. See And for header handling.
func (dst *RedisBitSet) Xor(a, b *RedisBitSet) error {
	ctx := context.Background()
	err := GetRedisClient().BitOpXor(ctx, dst.key, a.key, b.key).Err()
	if err != nil {
		return err
	}
	return dst.repairSize(ctx, a.size)
}

func (dst *RedisBitSet) repairSize(ctx context.Context, size uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, size)
	err := GetRedisClient().SetRange(ctx, dst.key, 0, string(buf)).Err()
	if err != nil {
		return err
	}
	dst.size = size
	return nil
}

func encodeRedisValue(b BitSet) []byte {
	n := int(b.Size()) + 1
	buf := make([]byte, n*wordBytes)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint64(buf[i*wordBytes:], b[i])
	}
	reverseBitOrderBytes(buf[wordBytes:])
	return buf
}

func decodeRedisValue(val []byte) (BitSet, error) {
	if len(val) < wordBytes {
		return nil, fmt.Errorf("packset: stored value too short for a bitset header")
	}
	size := binary.LittleEndian.Uint32(val[0:4])
	if len(val) != int(size+1)*wordBytes {
		return nil, fmt.Errorf("packset: stored value has %d bytes, header declares %d lanes", len(val), size+1)
	}
	payload := make([]byte, len(val)-wordBytes)
	copy(payload, val[wordBytes:])
	reverseBitOrderBytes(payload)
	b := make(BitSet, size+1)
	b[0] = binary.LittleEndian.Uint64(val[0:wordBytes])
	for i := uint32(1); i <= size; i++ {
		b[i] = binary.LittleEndian.Uint64(payload[(i-1)*uint32(wordBytes):])
	}
	return b, nil
}
