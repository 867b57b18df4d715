// Copyright (C) 2024 Mackenzie Straight. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitknit2

// References:
//   - https://github.com/eiz/libbg3/blob/main/docs/bitknit2.txt
//   - Jarek Duda, "Asymmetric numeral systems", https://arxiv.org/abs/1311.2540
//   - Fabian Giesen, "Interleaved entropy coders", https://arxiv.org/abs/1402.3392
//   - https://fgiesen.wordpress.com/2015/12/21/rans-in-practice/
//   - https://fgiesen.wordpress.com/2016/03/07/repeated-match-offsets-in-bitknit/

import "github.com/eiz/bitknit2/internal/dlog"

const (
	// magicWord begins every BitKnit2 stream.
	magicWord = 0x75B1
	// quantumSize is the number of output bytes each quantum covers,
	// aside from a possibly-shorter final quantum.
	quantumSize = 0x10000
	// ransThreshold32 is the value every 32-bit rANS state must return to
	// at the end of a quantum.
	ransThreshold32 = 1 << 16
)

// Decoder holds everything BitKnit2 preserves across quantum boundaries
// within one decompression: the nine adaptive models, the offset cache, and
// the most recent copy offset used for delta-literal prediction. Only the
// two interleaved rANS states reset every quantum; those live on the stack
// inside decodeCodedQuantum, not on the Decoder.
//
// A Decoder is only safe to use from one goroutine at a time. Independent
// Decoders operating on disjoint buffers may run concurrently.
type Decoder struct {
	commandWord     [4]*Model[uint16, uint32]
	cacheRef        [4]*Model[uint16, uint32]
	copyOffsetModel *Model[uint16, uint32]
	cache           offsetCache
	deltaOffset     int
	logger          dlog.Logger
}

// NewDecoder returns a Decoder with freshly initialized models, offset
// cache, and delta offset — the state BitKnit2 expects at the start of a
// stream.
func NewDecoder() *Decoder {
	d := &Decoder{
		cache:       newOffsetCache(),
		deltaOffset: 1,
	}
	for i := range d.commandWord {
		d.commandWord[i] = NewModel[uint16, uint32](300, 36, 1024, 15, 10)
	}
	for i := range d.cacheRef {
		d.cacheRef[i] = NewModel[uint16, uint32](40, 0, 1024, 15, 10)
	}
	d.copyOffsetModel = NewModel[uint16, uint32](21, 0, 1024, 15, 10)
	return d
}

// SetLogger enables tracing of quantum boundaries and raw-quantum fallbacks
// to l. A nil logger (the default) disables tracing entirely.
func (d *Decoder) SetLogger(l dlog.Logger) { d.logger = l }

// Decode fills dst with exactly len(dst) bytes recovered from compressed,
// a sequence of little-endian 16-bit BitKnit2 words. On any error, the
// contents written to dst so far are unspecified.
//
// A zero-length dst decodes trivially to no bytes, regardless of what (if
// anything) compressed contains — this Decoder need not even consult the
// stream, since there is nothing to produce. Any non-empty dst requires
// compressed to begin with the magic word.
func (d *Decoder) Decode(dst []byte, compressed []uint16) error {
	if len(dst) == 0 {
		return nil
	}
	stream := NewReader(compressed)
	magic, err := stream.Pop()
	if err != nil {
		return newError(BadMagic, "empty compressed stream")
	}
	if magic != magicWord {
		return newError(BadMagic, "got 0x%04x, want 0x%04x", magic, uint16(magicWord))
	}
	cur := 0
	for cur < len(dst) {
		if stream.Remaining() == 0 {
			return newError(Truncated, "%d bytes remaining with no more input", len(dst)-cur)
		}
		dlog.Printf(d.logger, "bitknit2: quantum at offset %d", cur)
		next, err := d.decodeQuantum(dst, cur, stream)
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// decodeQuantum decodes one quantum starting at cur, returning the output
// offset immediately after it. It dispatches to the raw-copy fallback when
// the quantum begins with a zero word, and to the coded path otherwise.
func (d *Decoder) decodeQuantum(dst []byte, cur int, stream *Bitstream[uint16]) (int, error) {
	quantumEnd := (cur &^ (quantumSize - 1)) + quantumSize
	if quantumEnd > len(dst) {
		quantumEnd = len(dst)
	}
	if w, ok := stream.Peek(); ok && w == 0 {
		stream.Pop()
		dlog.Print(d.logger, "bitknit2: raw quantum")
		return decodeRawQuantum(dst, cur, quantumEnd, stream)
	}
	return d.decodeCodedQuantum(dst, cur, quantumEnd, stream)
}

// decodeRawQuantum implements the "copy raw data" fallback: the words
// remaining in the quantum, reinterpreted byte for byte, become output
// directly. The copy is bounded by both the quantum's remaining space and
// the words actually available, exactly mirroring
// min(remaining_words*2, quantum_end-dst_cur) in the reference.
func decodeRawQuantum(dst []byte, cur, quantumEnd int, stream *Bitstream[uint16]) (int, error) {
	copyLen := stream.Remaining() * 2
	if room := quantumEnd - cur; room < copyLen {
		copyLen = room
	}
	words, err := stream.PeekWords((copyLen + 1) / 2)
	if err != nil {
		return 0, err
	}
	writeRawBytes(dst[cur:cur+copyLen], words)
	if err := stream.Advance(copyLen / 2); err != nil {
		return 0, err
	}
	return cur + copyLen, nil
}

// writeRawBytes unpacks words as little-endian bytes into dst. len(dst) may
// be odd, in which case only the low byte of the last needed word is used —
// this only happens decoding the very last, possibly odd-length, quantum of
// a stream.
func writeRawBytes(dst []byte, words []uint16) {
	full := len(dst) / 2
	for i := 0; i < full; i++ {
		w := words[i]
		dst[2*i] = byte(w)
		dst[2*i+1] = byte(w >> 8)
	}
	if len(dst)%2 == 1 {
		dst[len(dst)-1] = byte(words[full])
	}
}

// decodeCodedQuantum reconstructs the interleaved rANS pair and drives the
// command loop until quantumEnd is reached.
func (d *Decoder) decodeCodedQuantum(dst []byte, cur, quantumEnd int, stream *Bitstream[uint16]) (int, error) {
	state1, state2, err := decodeInitialState(stream)
	if err != nil {
		return 0, err
	}
	if cur == 0 {
		b, err := popBits(&state1, &state2, stream, 8)
		if err != nil {
			return 0, err
		}
		dst[0] = byte(b)
		cur = 1
	}
	for cur < quantumEnd {
		modelIdx := cur % 4
		cmd, err := popModel(&state1, &state2, stream, d.commandWord[modelIdx])
		if err != nil {
			return 0, err
		}
		if cmd >= 256 {
			cur, err = d.decodeCopy(dst, cur, cmd, &state1, &state2, stream)
			if err != nil {
				return 0, err
			}
			continue
		}
		dst[cur] = byte(cmd) + dst[cur-d.deltaOffset]
		cur++
	}
	if state1.X != ransThreshold32 || state2.X != ransThreshold32 {
		return 0, newError(StreamCorrupt, "rANS states left at 0x%x/0x%x, want 0x%x", state1.X, state2.X, uint32(ransThreshold32))
	}
	return cur, nil
}

// decodeInitialState reads a quantum's two rANS init words and "unties the
// knot": the two states were packed into one word pair by the encoder so
// that decode doesn't need a third state just to bootstrap, at the cost of
// this slightly fiddly unpacking. See
// https://fgiesen.wordpress.com/2015/12/21/rans-in-practice/ under "tying
// the knot".
func decodeInitialState(stream *Bitstream[uint16]) (state1, state2 RansState[uint32, uint16], err error) {
	w0, err := stream.Pop()
	if err != nil {
		return state1, state2, err
	}
	w1, err := stream.Pop()
	if err != nil {
		return state1, state2, err
	}
	merged := RawRansState32((uint32(w0) << 16) | uint32(w1))
	// pop_bits's own maybe_refill may pull one more word into merged
	// before we use merged.X below — that refill is load-bearing, not
	// incidental, so this must go through the real PopBits rather than a
	// hand-rolled 4-bit extraction.
	splitBits, err := merged.PopBits(stream, 4)
	if err != nil {
		return state1, state2, err
	}
	split := uint(splitBits)

	state1 = RawRansState32(merged.X >> split)
	if err := state1.maybeRefill(stream); err != nil {
		return state1, state2, err
	}

	w2, err := stream.Pop()
	if err != nil {
		return state1, state2, err
	}
	x2 := (merged.X << 16) | uint32(w2)
	x2 &= (uint32(1) << (16 + split)) - 1
	x2 |= uint32(1) << (16 + split)
	state2 = RawRansState32(x2)
	return state1, state2, nil
}

// popBits pops nbits from state1 and swaps state1/state2, so that the next
// pop against either state operates on the other coder — the discipline
// that makes this an interleaved pair rather than two independent coders.
func popBits(state1, state2 *RansState[uint32, uint16], stream *Bitstream[uint16], nbits uint) (uint32, error) {
	v, err := state1.PopBits(stream, nbits)
	if err != nil {
		return 0, err
	}
	*state1, *state2 = *state2, *state1
	return v, nil
}

// popModel pops a symbol against m's current CDF from state1, feeds it back
// into m's adaptive histogram, and swaps state1/state2. The observation
// must be attributed before the swap so it lands on the coder that actually
// produced the symbol.
func popModel(state1, state2 *RansState[uint32, uint16], stream *Bitstream[uint16], m *Model[uint16, uint32]) (int, error) {
	sym, err := PopCdf(state1, stream, m.CDF())
	if err != nil {
		return 0, err
	}
	m.Observe(sym)
	*state1, *state2 = *state2, *state1
	return sym, nil
}

// decodeCopy decodes one LZ back-reference command, whose length class was
// already known from cmd, and performs the copy in place. It returns the
// output offset immediately after the copied bytes.
func (d *Decoder) decodeCopy(dst []byte, cur, cmd int, state1, state2 *RansState[uint32, uint16], stream *Bitstream[uint16]) (int, error) {
	modelIdx := cur % 4

	var copyLength int
	if cmd < 288 {
		// Min copy length 2 gives this variant a max of 33.
		copyLength = cmd - 254
	} else {
		lengthBits := uint(cmd - 287)
		extra, err := popBits(state1, state2, stream, lengthBits)
		if err != nil {
			return 0, err
		}
		// Min extension length 1 gives this a min copy length of
		// 34: (1 << 1) + 32.
		copyLength = (1 << lengthBits) + int(extra) + 32
	}

	cacheRef, err := popModel(state1, state2, stream, d.cacheRef[modelIdx])
	if err != nil {
		return 0, err
	}

	var copyOffset int
	if cacheRef < 8 {
		copyOffset = int(d.cache.Hit(uint32(cacheRef)))
	} else {
		ell, err := popModel(state1, state2, stream, d.copyOffsetModel)
		if err != nil {
			return 0, err
		}
		bits, err := popBits(state1, state2, stream, uint(ell%16))
		if err != nil {
			return 0, err
		}
		if ell >= 16 {
			w, err := stream.Pop()
			if err != nil {
				return 0, err
			}
			bits = (bits << 16) | uint32(w)
		}
		// (32<<ell)==32 for ell==0, deliberately, so that ell==0
		// paired with cacheRef in [8,40) covers offsets in [1,32].
		// Do not "simplify" this to (1<<ell)-shaped arithmetic.
		copyOffset = (32 << uint(ell)) + (int(bits) << 5) - 32 + (cacheRef - 7)
		d.cache.Insert(uint32(copyOffset))
	}

	if copyOffset < 1 || copyOffset > cur {
		return 0, newError(InvalidCopy, "offset %d out of range [1,%d]", copyOffset, cur)
	}
	if copyLength > len(dst)-cur {
		return 0, newError(InvalidCopy, "length %d exceeds %d bytes remaining", copyLength, len(dst)-cur)
	}

	d.deltaOffset = copyOffset
	// Overlapping copies (copyLength > copyOffset) are legal and common
	// — an RLE-style run referencing bytes this same loop is still
	// producing — so this must stay a byte-by-byte forward copy, never
	// a bulk copy() call.
	for i := 0; i < copyLength; i++ {
		dst[cur] = dst[cur-copyOffset]
		cur++
	}
	return cur, nil
}
