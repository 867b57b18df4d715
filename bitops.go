package bitknit2

// Adapted from the de Bruijn bit-scan in ulikunitz/xz's lzma package
// (lzma/bitops.go, ntz32/nlz32), which the reference encoder needs for
// exactly the same reason that package did: computing the index of the
// highest set bit of a 32-bit value with a small lookup table rather than
// a loop. math/bits.LeadingZeros32 would do the same job with less code,
// but the point of keeping this version is to stay in the corpus's own
// idiom rather than reach past it for the stdlib equivalent it was
// written to avoid; see DESIGN.md.

// ntz32Const is used by ntz32 and nlz32.
const ntz32Const = 0x04d7651f

// ntz32Table is de Bruijn's sequence lookup table. See Henry S. Warren,
// Jr., "Hacker's Delight" section 5-1, figure 5-26.
var ntz32Table = [32]int8{
	0, 1, 2, 24, 3, 19, 6, 25,
	22, 4, 20, 10, 16, 7, 12, 26,
	31, 23, 18, 5, 21, 9, 15, 11,
	30, 17, 8, 14, 29, 13, 28, 27,
}

// ntz32 returns the number of trailing zero bits of x, or 32 if x is zero.
func ntz32(x uint32) int {
	if x == 0 {
		return 32
	}
	x = (x & -x) * ntz32Const
	return int(ntz32Table[x>>27])
}

// nlz32 returns the number of leading zero bits of x, or 32 if x is zero.
func nlz32(x uint32) int {
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x++
	if x == 0 {
		return 0
	}
	x *= ntz32Const
	return 32 - int(ntz32Table[x>>27])
}

// highBitIndex returns the index of the highest set bit of x (0 for x==1),
// used by the reference encoder to compute the "split point" it must
// record so the decoder can reconstruct the interleaved rANS pair's
// initial state. x must be nonzero.
func highBitIndex(x uint32) int {
	return 31 - nlz32(x)
}
