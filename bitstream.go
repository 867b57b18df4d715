package bitknit2

// word is the set of fixed-width unsigned integer types a bitstream can be
// built from. BitKnit2 itself only ever uses uint16 words, but the
// bitstream, frequency table, and rANS state below are written generically —
// mirroring the C++ reference's templates — so the same code can be
// exercised at the wider width in tests, the way rans_test.cc's
// RansStateCdf64 test does against the narrower production configuration.
type word interface {
	~uint16 | ~uint32
}

// Bitstream is a fixed-capacity, bounds-checked stack of words. It has a
// fixed begin, a movable cur, and a fixed end, with the invariant
// begin <= cur <= end always holding. Reading (Pop) advances cur towards
// end; writing (Push) walks cur back towards begin. This asymmetric,
// LIFO-at-one-end shape is what lets the rANS coder push its
// highest-order digits first during encode and read them back in the
// opposite order during decode without any extra bookkeeping.
type Bitstream[T word] struct {
	buf   []T
	begin int
	cur   int
	end   int
}

// NewReader returns a Bitstream that reads buf front to back: begin == cur
// == 0, end == len(buf).
func NewReader[T word](buf []T) *Bitstream[T] {
	return &Bitstream[T]{buf: buf, begin: 0, cur: 0, end: len(buf)}
}

// NewWriter returns a Bitstream that fills buf back to front: begin == 0,
// cur == end == len(buf). Each Push decrements cur, so the written words
// end up packed against the end of buf, occupying buf[cur:] once writing
// stops.
func NewWriter[T word](buf []T) *Bitstream[T] {
	return &Bitstream[T]{buf: buf, begin: 0, cur: len(buf), end: len(buf)}
}

// Push stores w at the new cur, walking cur one step towards begin. It
// fails with ErrBufferOverflow if the buffer's begin has already been
// reached.
func (b *Bitstream[T]) Push(w T) error {
	if b.cur == b.begin {
		return ErrBufferOverflow
	}
	b.cur--
	b.buf[b.cur] = w
	return nil
}

// Pop returns *cur and advances cur one step towards end. It fails with
// ErrBufferUnderflow if end has already been reached.
func (b *Bitstream[T]) Pop() (T, error) {
	if b.cur == b.end {
		var zero T
		return zero, ErrBufferUnderflow
	}
	w := b.buf[b.cur]
	b.cur++
	return w, nil
}

// Peek returns the next word Pop would return without consuming it. ok is
// false if the buffer is exhausted.
func (b *Bitstream[T]) Peek() (w T, ok bool) {
	if b.cur == b.end {
		return w, false
	}
	return b.buf[b.cur], true
}

// Remaining returns the number of words left to Pop.
func (b *Bitstream[T]) Remaining() int {
	return b.end - b.cur
}

// Written returns the words that have been Pushed so far, in the order a
// Bitstream reading them front-to-back would Pop them: the most recently
// pushed word first is at buf[cur], matching a fresh NewReader over the
// same slice.
func (b *Bitstream[T]) Written() []T {
	return b.buf[b.cur:b.end]
}

// Cur exposes the current cursor position as an index into the underlying
// buffer.
func (b *Bitstream[T]) Cur() int { return b.cur }

// PeekWords returns the next n words without consuming them. It fails with
// ErrBufferUnderflow if fewer than n words remain. Used by the raw-quantum
// fallback, which reads a byte count that may not be a whole number of
// words and must leave the cursor exactly where the reference implementation
// does (see writeRawBytes).
func (b *Bitstream[T]) PeekWords(n int) ([]T, error) {
	if b.end-b.cur < n {
		return nil, ErrBufferUnderflow
	}
	return b.buf[b.cur : b.cur+n], nil
}

// Advance moves cur forward by n words without returning them. It fails
// with ErrBufferUnderflow if fewer than n words remain.
func (b *Bitstream[T]) Advance(n int) error {
	if b.end-b.cur < n {
		return ErrBufferUnderflow
	}
	b.cur += n
	return nil
}
