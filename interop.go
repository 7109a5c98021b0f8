package packset

import "github.com/bits-and-blooms/bitset"

// Bridges to github.com/bits-and-blooms/bitset, the de facto interchange
// type for dense bitsets in the Go ecosystem. Only the payload crosses
// the bridge; header flags and tag have no counterpart on the other side.

// ToBlooms copies b's payload into a bits-and-blooms bitset of the same
// word extent.
func (b BitSet) ToBlooms() *bitset.BitSet {
	words := make([]uint64, b.Size())
	copy(words, b[1:b.Size()+1])
	return bitset.From(words)
}

// FromBlooms creates a packed bitset from a bits-and-blooms bitset,
// adopting its word extent as the payload size.
func FromBlooms(set *bitset.BitSet) BitSet {
	words := set.Bytes()
	b := make(BitSet, len(words)+1)
	copy(b[1:], words)
	b.setSize(uint32(len(words)))
	return b
}
