/*
Package packset implements dense, fixed-capacity bitsets whose control
metadata lives inside the bitset's own storage. Lane 0 of every set is a
packed header carrying the payload word count, a flags field and a 16-bit
tag; lanes 1..size hold 64 elements each. One contiguous allocation per
bitset, no reallocation after construction.

Bitsets can be mirrored to redis (see RedisBitSet) and exported in binary,
JSON and compressed forms (see codec.go).
*/
package packset

// Advisory state flags stored in the header. The core operations never
// interpret them; they exist for an external allocator such as Pool.
const (
	FlagActive     uint16 = 0x01
	FlagCompressed uint16 = 0x02
	FlagCanBeFreed uint16 = 0x04
)

// Header field positions within lane 0. On a little-endian machine the
// lane's byte image is bytes 0-3 size, 4-5 flags, 6-7 tag.
const (
	sizeMask   = 0xFFFFFFFF
	flagsShift = 32
	tagShift   = 48
)

// BitSet is a single contiguous array of 64-bit lanes. Lane 0 is the
// header, lanes 1..Size() are payload. Element e lives in lane 1+(e>>6),
// bit e&63 of that lane.
//
// All operations are single-threaded; callers sharing a BitSet across
// goroutines must provide their own synchronization.
type BitSet []uint64

// reqLanes returns the lane count, header included, needed to store
// elements bits. The formula has no zero case; constructors reject
// elements == 0 before calling it.
func reqLanes(elements uint) uint32 {
	return 2 + uint32((elements-1)>>6)
}

// New creates a bitset capable of holding elements bits. All payload bits
// start cleared. Allocation failure aborts the process; there is no
// error-returning variant.
func New(elements uint) BitSet {
	if elements == 0 {
		panic("packset: bitset capacity must be at least 1 bit")
	}
	w := reqLanes(elements)
	b := make(BitSet, w)
	b.setSize(w - 1)
	return b
}

// Null reinitializes b as the empty set of a possibly different capacity.
// The existing storage must already be large enough for the new capacity;
// no reallocation happens here.
func (b BitSet) Null(elements uint) BitSet {
	if elements == 0 {
		panic("packset: bitset capacity must be at least 1 bit")
	}
	w := reqLanes(elements)
	for i := uint32(0); i < w; i++ {
		b[i] = 0
	}
	b.setSize(w - 1)
	return b
}

// Reset empties b at its existing declared capacity. The size field is
// kept; flags and tag are cleared along with the payload.
func (b BitSet) Reset() BitSet {
	w := b.Size()
	for i := uint32(0); i <= w; i++ {
		b[i] = 0
	}
	b.setSize(w)
	return b
}

// Universe makes b the universal set of elements bits: every payload lane
// is filled with ones and the final lane is shifted so exactly the low
// elements bits (in element order) survive. Flags and tag are cleared.
func (b BitSet) Universe(elements uint) BitSet {
	if elements == 0 {
		panic("packset: bitset capacity must be at least 1 bit")
	}
	b[0] = 0
	w := reqLanes(elements) - 1
	for i := uint32(1); i <= w; i++ {
		b[i] = ^uint64(0)
	}
	b[w] >>= 64*uint(w) - elements
	b.setSize(w)
	return b
}

// Clone allocates a fresh bitset exactly matching b's declared size and
// copies everything including the header.
func (b BitSet) Clone() BitSet {
	n := b.Size() + 1
	d := make(BitSet, n)
	copy(d, b[:n])
	return d
}

// Copy copies src's header and payload extent into b and returns b. The
// destination must be at least as large as src's declared size; after the
// copy b's header equals src's header.
func (b BitSet) Copy(src BitSet) BitSet {
	n := src.Size() + 1
	if uint32(len(b)) < n {
		panic("packset: copy destination smaller than source")
	}
	copy(b[:n], src[:n])
	return b
}

// Test reports whether bit index is set. No bounds check against the
// declared capacity; indexing past it is undefined behavior.
func (b BitSet) Test(index uint) bool {
	return b[1+index>>6]&(1<<(index&63)) != 0
}

// Set sets bit index.
func (b BitSet) Set(index uint) {
	b[1+index>>6] |= 1 << (index & 63)
}

// Clear clears bit index.
func (b BitSet) Clear(index uint) {
	b[1+index>>6] &^= 1 << (index & 63)
}

// Size returns the number of payload lanes, not counting the header lane.
func (b BitSet) Size() uint32 {
	return uint32(b[0] & sizeMask)
}

func (b BitSet) setSize(w uint32) {
	b[0] = b[0]&^uint64(sizeMask) | uint64(w)
}

// HasFlag reports whether flag is set in the header.
func (b BitSet) HasFlag(flag uint16) bool {
	return uint16(b[0]>>flagsShift)&flag != 0
}

// SetFlag sets flag in the header.
func (b BitSet) SetFlag(flag uint16) {
	b[0] |= uint64(flag) << flagsShift
}

// ClearFlag clears flag in the header.
func (b BitSet) ClearFlag(flag uint16) {
	b[0] &^= uint64(flag) << flagsShift
}

// Tag returns the header's tag field.
func (b BitSet) Tag() uint16 {
	return uint16(b[0] >> tagShift)
}

// SetTag stores v in the header's tag field.
func (b BitSet) SetTag(v uint16) {
	b[0] = b[0]&^(uint64(0xFFFF)<<tagShift) | uint64(v)<<tagShift
}

// IncTag increments the tag, wrapping per unsigned 16-bit arithmetic.
func (b BitSet) IncTag() {
	b.SetTag(b.Tag() + 1)
}

// DecTag decrements the tag, wrapping per unsigned 16-bit arithmetic.
func (b BitSet) DecTag() {
	b.SetTag(b.Tag() - 1)
}
