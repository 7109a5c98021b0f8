package packset

import "math/bits"

// Relational predicates and cardinality metrics. All iterate the payload
// lanes using a's declared size and assume equal-capacity operands; the
// boolean predicates exit on the first violating lane.

// Equal reports whether all payload lanes of a and b are identical.
// Headers are not compared beyond the iteration bound they provide.
func (a BitSet) Equal(b BitSet) bool {
	for i := a.Size(); i > 0; i-- {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Empty reports whether every payload lane of a is zero.
func (a BitSet) Empty() bool {
	for i := a.Size(); i > 0; i-- {
		if a[i] != 0 {
			return false
		}
	}
	return true
}

// Disjoint reports whether a and b share no elements.
func (a BitSet) Disjoint(b BitSet) bool {
	for i := a.Size(); i > 0; i-- {
		if a[i]&b[i] != 0 {
			return false
		}
	}
	return true
}

// Implies reports whether every element of a is also in b (a ⊆ b).
func (a BitSet) Implies(b BitSet) bool {
	for i := a.Size(); i > 0; i-- {
		if a[i]&^b[i] != 0 {
			return false
		}
	}
	return true
}

// ImpliedBy reports whether every element of b is also in a (b ⊆ a).
func (a BitSet) ImpliedBy(b BitSet) bool {
	for i := a.Size(); i > 0; i-- {
		if ^a[i]&b[i] != 0 {
			return false
		}
	}
	return true
}

// Count returns the total number of set bits across the payload lanes.
func (a BitSet) Count() uint {
	sum := uint(0)
	for i := a.Size(); i > 0; i-- {
		sum += uint(bits.OnesCount64(a[i]))
	}
	return sum
}

// Overlap returns the number of elements a and b have in common, the
// cardinality of their intersection.
func (a BitSet) Overlap(b BitSet) uint {
	sum := uint(0)
	for i := a.Size(); i > 0; i-- {
		sum += uint(bits.OnesCount64(a[i] & b[i]))
	}
	return sum
}

// TagCount stores a's cardinality into the header's tag field so external
// callers can use it as a sort key.
func (a BitSet) TagCount() {
	a.SetTag(uint16(a.Count()))
}
