package bitknit2

// bits is the set of widths an rANS state's arbitrary-precision natural
// number can be stored in. BitKnit2 itself only uses the 32-bit
// configuration (paired with 16-bit stream words); the 64-bit
// configuration exists so RansState can be exercised at the wider width in
// tests, mirroring rans_test.cc's RansStateCdf64/RansPushCdfOffload64.
type bits interface {
	~uint32 | ~uint64
}

// RansState is an arbitrary-precision natural number x, always >= 2^halfBits
// except transiently during a push or pop, implemented as a machine word X
// plus an overflow bitstream of half-width words. halfBits is half the bit
// width of B: 16 for B=uint32 (paired with S=uint16), 32 for B=uint64
// (paired with S=uint32).
type RansState[B bits, S word] struct {
	X        B
	halfBits uint
}

// NewRansState32 returns a fresh 32-bit rANS state paired with a 16-bit
// stream, initialized to the normalization threshold — the value every
// state must return to at the end of a quantum.
func NewRansState32() RansState[uint32, uint16] {
	return RansState[uint32, uint16]{X: 1 << 16, halfBits: 16}
}

// NewRansState64 returns a fresh 64-bit rANS state paired with a 32-bit
// stream. Used only by tests exercising the generic implementation at the
// wider configuration.
func NewRansState64() RansState[uint64, uint32] {
	return RansState[uint64, uint32]{X: 1 << 32, halfBits: 32}
}

// RawRansState32 constructs a 32-bit rANS state from an already-known X,
// used by the decoder when reconstructing the interleaved pair's initial
// values from the stream.
func RawRansState32(x uint32) RansState[uint32, uint16] {
	return RansState[uint32, uint16]{X: x, halfBits: 16}
}

// threshold returns 2^halfBits, the point below which the state must be
// refilled from the stream before another pop.
func (s *RansState[B, S]) threshold() B {
	return B(1) << s.halfBits
}

// offload pushes the bottom halfBits of X onto stream and discards them
// from X.
func (s *RansState[B, S]) offload(stream *Bitstream[S]) error {
	if err := stream.Push(S(s.X & (s.threshold() - 1))); err != nil {
		return err
	}
	s.X >>= s.halfBits
	return nil
}

// maybeRefill pulls one more word from stream into the low bits of X if X
// has dropped below the normalization threshold.
func (s *RansState[B, S]) maybeRefill(stream *Bitstream[S]) error {
	if s.X >= s.threshold() {
		return nil
	}
	w, err := stream.Pop()
	if err != nil {
		return err
	}
	s.X = (s.X << s.halfBits) | B(w)
	return nil
}

// PushBits pushes the low nbits of sym into the state, offloading to
// stream first if the top nbits of X are already occupied. nbits must be
// less than halfBits.
func (s *RansState[B, S]) PushBits(stream *Bitstream[S], sym B, nbits uint) error {
	mask := ^(^B(0) >> nbits)
	if s.X&mask != 0 {
		if err := s.offload(stream); err != nil {
			return err
		}
	}
	s.X = (s.X << nbits) | (sym & ((B(1) << nbits) - 1))
	return nil
}

// PopBits removes and returns the low nbits of the state, refilling from
// stream afterward if needed. nbits must be less than halfBits.
func (s *RansState[B, S]) PopBits(stream *Bitstream[S], nbits uint) (B, error) {
	sym := s.X & ((B(1) << nbits) - 1)
	s.X >>= nbits
	if err := s.maybeRefill(stream); err != nil {
		return 0, err
	}
	return sym, nil
}

// PushCdf encodes sym against cdf, offloading first if required to keep X
// below the point where the division below would carry into bits reserved
// for the CDF's frequency range.
func PushCdf[B bits, S word](s *RansState[B, S], stream *Bitstream[S], sym int, cdf *FrequencyTable[S]) error {
	freq := B(cdf.Frequency(sym))
	mask := ^(^B(0) >> cdf.FreqBits())
	if (s.X/freq)&mask != 0 {
		if err := s.offload(stream); err != nil {
			return err
		}
	}
	s.X = (s.X/freq)<<cdf.FreqBits() + (s.X % freq) + B(cdf.SumBelow(sym))
	return nil
}

// PopCdf decodes a symbol against cdf, refilling from stream afterward if
// needed. cdf.FreqBits() must be less than the state's halfBits.
func PopCdf[B bits, S word](s *RansState[B, S], stream *Bitstream[S], cdf *FrequencyTable[S]) (int, error) {
	code := S(s.X & ((B(1) << cdf.FreqBits()) - 1))
	sym := cdf.FindSymbol(code)
	freq := B(cdf.Frequency(sym))
	s.X = (s.X>>cdf.FreqBits())*freq + B(code) - B(cdf.SumBelow(sym))
	if err := s.maybeRefill(stream); err != nil {
		return 0, err
	}
	return sym, nil
}
