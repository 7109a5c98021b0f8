package packset

import (
	"math/bits"
	"math/rand"
	"time"
	"unsafe"
)

const wordSize = int(64)
const wordBytes = wordSize / 8

var src = rand.NewSource(time.Now().UnixNano())

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
const (
	letterIdxBits = 6                    // 6 bits to represent a letter index
	letterIdxMask = 1<<letterIdxBits - 1 // All 1-bits, as many as letterIdxBits
	letterIdxMax  = 63 / letterIdxBits   // # of letter indices fitting in 63 bits
)

// GenerateRandomString returns a random alphabetic string of length n,
// used for redis keys when the caller does not supply one.
func GenerateRandomString(n int) string {
	b := make([]byte, n)
	// A src.Int63() generates 63 random bits, enough for letterIdxMax characters!
	for i, cache, remain := n-1, src.Int63(), letterIdxMax; i >= 0; {
		if remain == 0 {
			cache, remain = src.Int63(), letterIdxMax
		}
		if idx := int(cache & letterIdxMask); idx < len(letterBytes) {
			b[i] = letterBytes[idx]
			i--
		}
		cache >>= letterIdxBits
		remain--
	}

	return *(*string)(unsafe.Pointer(&b))
}

// reverseBitOrder mirrors the bits of a single byte. Redis numbers bits
// most-significant-first within each byte while the in-memory layout is
// least-significant-first, so payload bytes are stored mirrored to make
// element e land on redis bit 64+e.
func reverseBitOrder(b byte) byte {
	return bits.Reverse8(b)
}

// reverseBitOrderBytes mirrors the bits of every byte in p, in place.
func reverseBitOrderBytes(p []byte) {
	for i := range p {
		p[i] = reverseBitOrder(p[i])
	}
}
