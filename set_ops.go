package packset

// Set algebra over same-capacity bitsets. Out-of-place forms write into
// the receiver, copying operand a's size field into the receiver's header
// in the same pass; in-place forms iterate over the mutated operand's own
// declared size. No cross-operand capacity checks are performed; operands
// of differing capacity are undefined behavior. Out-of-place receivers
// must not alias their operands; the in-place variants are the only legal
// overlap.

// And stores the intersection of a and b in r and returns r.
func (r BitSet) And(a, b BitSet) BitSet {
	r.setSize(a.Size())
	for i := a.Size(); i > 0; i-- {
		r[i] = a[i] & b[i]
	}
	return r
}

// AndWith intersects a with b in place.
func (a BitSet) AndWith(b BitSet) {
	for i := a.Size(); i > 0; i-- {
		a[i] &= b[i]
	}
}

// Or stores the union of a and b in r and returns r.
func (r BitSet) Or(a, b BitSet) BitSet {
	r.setSize(a.Size())
	for i := a.Size(); i > 0; i-- {
		r[i] = a[i] | b[i]
	}
	return r
}

// OrWith unions b into a in place.
func (a BitSet) OrWith(b BitSet) {
	for i := a.Size(); i > 0; i-- {
		a[i] |= b[i]
	}
}

// Diff stores the relative complement of a and b (elements of a not in b)
// in r and returns r.
func (r BitSet) Diff(a, b BitSet) BitSet {
	r.setSize(a.Size())
	for i := a.Size(); i > 0; i-- {
		r[i] = a[i] &^ b[i]
	}
	return r
}

// DiffWith removes b's elements from a in place.
func (a BitSet) DiffWith(b BitSet) {
	for i := a.Size(); i > 0; i-- {
		a[i] &^= b[i]
	}
}

// DiffFrom stores the relative complement of a and b into b itself:
// b = a &^ b, iterating over a's declared size.
func (b BitSet) DiffFrom(a BitSet) {
	for i := a.Size(); i > 0; i-- {
		b[i] = a[i] &^ b[i]
	}
}

// UnionDiff stores the union of a with the difference of b and c in r:
// r = a | (b &^ c).
func (r BitSet) UnionDiff(a, b, c BitSet) BitSet {
	r.setSize(a.Size())
	for i := a.Size(); i > 0; i-- {
		r[i] = a[i] | (b[i] &^ c[i])
	}
	return r
}

// Mask clears the bits of a that are absent from b, retaining only
// elements present in both. Expressed via the difference idiom
// a &= ^(a &^ b), which is bit-for-bit identical to a &= b.
func (a BitSet) Mask(b BitSet) {
	for i := a.Size(); i > 0; i-- {
		a[i] &= ^(a[i] &^ b[i])
	}
}

// XorAnd intersects r with the symmetric difference of a and b:
// r &= a ^ b. The iteration bound is a's declared size.
func (r BitSet) XorAnd(a, b BitSet) {
	for i := a.Size(); i > 0; i-- {
		r[i] &= a[i] ^ b[i]
	}
}

// Merge stores a branchless per-bit select in r: where c's bit is 1 the
// result takes a's bit, elsewhere b's bit. The formula b^((b^a)&c) is
// bit-for-bit identical to the two-step (a&c)|(b&^c) with fewer
// operations per lane.
func (r BitSet) Merge(a, b, c BitSet) BitSet {
	r.setSize(a.Size())
	for i := a.Size(); i > 0; i-- {
		r[i] = b[i] ^ ((b[i] ^ a[i]) & c[i])
	}
	return r
}
