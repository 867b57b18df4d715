// Copyright (C) 2024 Mackenzie Straight. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitknit2

// Encoder is a reference BitKnit2 producer used to build test fixtures and
// validate round-trip properties against Decoder. It is not tuned for
// output size or speed and is not the format's canonical encoder — a real
// producer is free to make different match-finding and modeling choices as
// long as it obeys the same command vocabulary. It carries the same
// persistent state Decoder does, so a stream built one Encode call at a
// time round-trips through a single matching Decoder.
type Encoder struct {
	commandWord     [4]*Model[uint16, uint32]
	cacheRef        [4]*Model[uint16, uint32]
	copyOffsetModel *Model[uint16, uint32]
	cache           offsetCache
	deltaOffset     int
}

// NewEncoder returns an Encoder with freshly initialized models, matching
// the state a fresh Decoder starts with.
func NewEncoder() *Encoder {
	e := &Encoder{
		cache:       newOffsetCache(),
		deltaOffset: 1,
	}
	for i := range e.commandWord {
		e.commandWord[i] = NewModel[uint16, uint32](300, 36, 1024, 15, 10)
	}
	for i := range e.cacheRef {
		e.cacheRef[i] = NewModel[uint16, uint32](40, 0, 1024, 15, 10)
	}
	e.copyOffsetModel = NewModel[uint16, uint32](21, 0, 1024, 15, 10)
	return e
}

// Encode compresses src into a BitKnit2 stream a Decoder can expand back to
// exactly src. A zero-length src encodes to a zero-length stream, mirroring
// Decode's treatment of a zero-length destination.
func (e *Encoder) Encode(src []byte) ([]uint16, error) {
	if len(src) == 0 {
		return nil, nil
	}
	mf := newMatchFinder(src)
	out := []uint16{magicWord}
	cur := 0
	for cur < len(src) {
		quantumEnd := (cur &^ (quantumSize - 1)) + quantumSize
		if quantumEnd > len(src) {
			quantumEnd = len(src)
		}
		words, next, err := e.encodeQuantum(src, cur, quantumEnd, mf)
		if err != nil {
			return nil, err
		}
		out = append(out, words...)
		cur = next
	}
	return out, nil
}

// encOpKind distinguishes an rANS-coded pop (which alternates the
// interleaved pair) from a raw bit extraction of the same kind.
type encOpKind int

const (
	opModel encOpKind = iota
	opBits
)

// encOp is a snapshot of one rANS-coded event: enough information to push
// it without needing live access to the model that produced it, since by
// the time events are replayed in reverse the model has moved on to a
// later distribution.
type encOp struct {
	kind     encOpKind
	symbol   uint32
	freq     uint32
	sumBelow uint32
	freqBits uint
	nbits    uint
	value    uint32
}

// encEvent is either an rANS op (participates in the interleaved pair's
// alternation) or a word written directly to the stream outside the rANS
// coders entirely, matching the copy-offset command's optional raw high
// word.
type encEvent struct {
	raw  bool
	word uint16
	op   encOp
}

// modelEvent snapshots m's current distribution for symbol, advances m the
// same way Decoder's popModel would, and returns the event needed to push
// symbol later. Calling this in forward temporal order keeps Encoder's
// adaptive models in lockstep with the Decoder that will read the result.
func modelEvent(m *Model[uint16, uint32], symbol int) encEvent {
	cdf := m.CDF()
	ev := encEvent{op: encOp{
		kind:     opModel,
		symbol:   uint32(symbol),
		freq:     uint32(cdf.Frequency(symbol)),
		sumBelow: uint32(cdf.SumBelow(symbol)),
		freqBits: cdf.FreqBits(),
	}}
	m.Observe(symbol)
	return ev
}

// encodeQuantum builds one quantum's worth of commands, plays them forward
// to keep the adaptive models and offset cache synchronized with a
// decoder, then pushes the resulting events in reverse to produce the
// quantum's words. It always emits the coded form; unlike Decoder, this
// Encoder never needs the raw-quantum escape, since the coded path
// round-trips correctly regardless of how compressible the input is.
func (e *Encoder) encodeQuantum(src []byte, cur, quantumEnd int, mf *matchFinder) ([]uint16, int, error) {
	var events []encEvent
	if cur == 0 {
		events = append(events, encEvent{op: encOp{kind: opBits, nbits: 8, value: uint32(src[0])}})
		mf.insert(0)
		cur = 1
	}
	for cur < quantumEnd {
		modelIdx := cur % 4
		if offset, length := mf.findMatch(cur, quantumEnd); length >= minUseMatch {
			events = append(events, e.copyEvents(offset, length, modelIdx)...)
			for i := 0; i < length; i++ {
				mf.insert(cur + i)
			}
			cur += length
			continue
		}
		predicted := src[cur-e.deltaOffset]
		cmd := int(src[cur] - predicted)
		events = append(events, modelEvent(e.commandWord[modelIdx], cmd))
		mf.insert(cur)
		cur++
	}

	buf := make([]uint16, len(events)+8)
	writer := NewWriter(buf)
	a, b, err := pushEvents(events, writer)
	if err != nil {
		return nil, 0, err
	}
	knot := packInitialState(a, b)
	words := make([]uint16, 0, len(knot)+len(writer.Written()))
	words = append(words, knot[:]...)
	words = append(words, writer.Written()...)
	return words, cur, nil
}

// copyEvents builds the events for one LZ back-reference of length bytes
// at offset, updating the offset cache and delta offset exactly as
// Decoder's decodeCopy would.
func (e *Encoder) copyEvents(offset, length, modelIdx int) []encEvent {
	var events []encEvent

	if length <= 33 {
		cmd := length + 254
		events = append(events, modelEvent(e.commandWord[modelIdx], cmd))
	} else {
		lengthBits := uint(1)
		for length > 2*(int(1)<<lengthBits)-1+32 {
			lengthBits++
		}
		extra := uint32(length - 32 - (int(1) << lengthBits))
		cmd := int(287 + lengthBits)
		events = append(events, modelEvent(e.commandWord[modelIdx], cmd))
		events = append(events, encEvent{op: encOp{kind: opBits, nbits: lengthBits, value: extra}})
	}

	events = append(events, e.offsetEvents(offset, modelIdx)...)
	e.deltaOffset = offset
	return events
}

// offsetEvents builds the cache-reference and, if the offset misses the
// cache, copy-offset events for one copy command, mutating the offset
// cache the same way decodeCopy does.
func (e *Encoder) offsetEvents(offset, modelIdx int) []encEvent {
	var events []encEvent
	for i := uint32(0); i < 8; i++ {
		if int(e.cache.Entry(i)) == offset {
			events = append(events, modelEvent(e.cacheRef[modelIdx], int(i)))
			e.cache.Hit(i)
			return events
		}
	}

	ell := 0
	for offset > 64*(int(1)<<uint(ell))-32 {
		ell++
	}
	base := 32*(int(1)<<uint(ell)) - 32
	r := offset - base
	bits := uint32(r-1) / 32
	delta := uint32(r-1)%32 + 1
	cacheRef := int(delta) + 7

	events = append(events, modelEvent(e.cacheRef[modelIdx], cacheRef))
	events = append(events, modelEvent(e.copyOffsetModel, ell))
	nbits := uint(ell % 16)
	if ell >= 16 {
		coded := bits >> 16
		raw := uint16(bits & 0xFFFF)
		events = append(events, encEvent{op: encOp{kind: opBits, nbits: nbits, value: coded}})
		events = append(events, encEvent{raw: true, word: raw})
	} else {
		events = append(events, encEvent{op: encOp{kind: opBits, nbits: nbits, value: bits}})
	}
	e.cache.Insert(uint32(offset))
	return events
}

// pushSymbol applies the inverse of PopCdf using op's captured
// frequency/cumulative-sum snapshot rather than a live FrequencyTable,
// since by push time the model that produced the snapshot has moved on.
func pushSymbol(s *RansState[uint32, uint16], stream *Bitstream[uint16], op encOp) error {
	mask := ^(^uint32(0) >> op.freqBits)
	if (s.X/op.freq)&mask != 0 {
		if err := s.offload(stream); err != nil {
			return err
		}
	}
	s.X = (s.X/op.freq)<<op.freqBits + (s.X % op.freq) + op.sumBelow
	return nil
}

// pushEvents replays events onto a fresh interleaved rANS pair in reverse
// temporal order, returning the pair's final values. Pushing in reverse
// undoes Decoder's pop-then-swap discipline exactly: op i in forward order
// always acted on whichever chain was named "state1" at that point, then
// swapped; walking backward from two states both at the normalization
// threshold (Decoder's end-of-quantum invariant) reconstructs the two
// values Decoder's decodeInitialState must produce to begin the quantum.
func pushEvents(events []encEvent, writer *Bitstream[uint16]) (a, b uint32, err error) {
	s1, s2 := NewRansState32(), NewRansState32()
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.raw {
			if err := writer.Push(ev.word); err != nil {
				return 0, 0, err
			}
			continue
		}
		newS1 := s2
		switch ev.op.kind {
		case opModel:
			if err := pushSymbol(&newS1, writer, ev.op); err != nil {
				return 0, 0, err
			}
		case opBits:
			if err := newS1.PushBits(writer, ev.op.value, ev.op.nbits); err != nil {
				return 0, 0, err
			}
		}
		s1, s2 = newS1, s1
	}
	return s1.X, s2.X, nil
}

// packInitialState is the exact inverse of decodeInitialState: given the
// pair of states a quantum's commands must start from, it produces the
// five words that unpack back to them, deliberately arranging for both of
// decodeInitialState's conditional refills to fire so the packing needs no
// case analysis of its own. See decodeInitialState for the unpacking this
// mirrors.
func packInitialState(a, b uint32) [5]uint16 {
	split := uint(highBitIndex(b) - 16)

	q := a >> 16
	r1 := uint16(a & 0xFFFF)

	t := (b >> 16) & ((uint32(1) << split) - 1)
	w2 := uint16(b & 0xFFFF)

	m1 := (q << split) | t
	rMerged := uint16(m1 & 0xFFFF)
	m1pre := m1 >> 16
	m0 := (m1pre << 4) | uint32(split)
	w0 := uint16(m0 >> 16)
	w1 := uint16(m0 & 0xFFFF)

	return [5]uint16{w0, w1, rMerged, r1, w2}
}

// minUseMatch is the shortest match this Encoder will spend a copy command
// on. BitKnit2 can represent matches as short as 2 bytes, but below this
// length a copy command's overhead (cache reference or offset bits) rarely
// pays for itself against two literal commands.
const minUseMatch = 3

// maxMatchLen is the longest length the command word vocabulary can
// represent: vocabSize 300 gives command values up to 299, and 299-287=12
// length-extension bits cover (1<<12)+(1<<12-1)+32.
const maxMatchLen = 8223

// matchFinder is a whole-buffer hash chain: head maps a 4-byte prefix hash
// to the most recent position sharing it, and prev threads each position
// back to the previous one with the same hash. Adapted from the chained
// hashing in ulikunitz/xz's lzma.hashTable, simplified to index a buffer
// that is entirely known up front instead of a streaming dictionary.
type matchFinder struct {
	src  []byte
	head []int32
	prev []int32
}

const (
	matchHashBits = 16
	matchChainLen = 32
)

func newMatchFinder(src []byte) *matchFinder {
	head := make([]int32, 1<<matchHashBits)
	for i := range head {
		head[i] = -1
	}
	return &matchFinder{src: src, head: head, prev: make([]int32, len(src))}
}

func hash4(b []byte) uint32 {
	v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return (v * 2654435761) >> (32 - matchHashBits)
}

// insert records pos in the hash chain for the 4 bytes starting there. It
// is a no-op near the end of the buffer, where no 4-byte prefix exists.
func (m *matchFinder) insert(pos int) {
	if pos+4 > len(m.src) {
		return
	}
	h := hash4(m.src[pos : pos+4])
	m.prev[pos] = m.head[h]
	m.head[h] = int32(pos)
}

// findMatch returns the longest match found for the 4 bytes at pos among
// the most recent matchChainLen candidates sharing its hash, without
// reading at or beyond limit. It returns length 0 if no candidate reaches
// minUseMatch.
func (m *matchFinder) findMatch(pos, limit int) (offset, length int) {
	if pos+4 > len(m.src) {
		return 0, 0
	}
	h := hash4(m.src[pos : pos+4])
	cand := m.head[h]
	bestLen := 0
	bestOffset := 0
	for chain := 0; cand >= 0 && chain < matchChainLen; chain++ {
		l := matchLength(m.src, int(cand), pos, limit)
		if l > bestLen {
			bestLen = l
			bestOffset = pos - int(cand)
		}
		cand = m.prev[cand]
	}
	if bestLen < minUseMatch {
		return 0, 0
	}
	return bestOffset, bestLen
}

// matchLength returns how many bytes starting at a and b agree, up to
// limit-b bytes and maxMatchLen. a < b is expected; the comparison reads
// forward from the source buffer itself rather than a growing output, so
// it correctly measures runs where b-a < the match length (the overlapping
// copies decodeCopy must reproduce byte by byte).
func matchLength(src []byte, a, b, limit int) int {
	max := limit - b
	if max > maxMatchLen {
		max = maxMatchLen
	}
	n := 0
	for n < max && src[a+n] == src[b+n] {
		n++
	}
	return n
}
