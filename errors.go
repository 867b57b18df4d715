// Copyright (C) 2024 Mackenzie Straight. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitknit2

import "fmt"

// Code identifies the class of failure a bitknit2 operation reported.
type Code int

const (
	// BadMagic means the compressed stream did not begin with the
	// BitKnit2 magic word.
	BadMagic Code = iota
	// Truncated means the compressed stream ended before the output
	// buffer was filled.
	Truncated
	// UnsupportedFeature is reserved for stream flags this decoder does
	// not implement, such as byte-swapped words.
	UnsupportedFeature
	// StreamCorrupt means an rANS state failed to return to its expected
	// value at the end of a quantum.
	StreamCorrupt
	// InvalidCopy means a decoded copy offset or length fell outside the
	// bytes produced so far, or outside the remaining output.
	InvalidCopy
	// BufferOverflow means a push ran off the beginning of a bitstream
	// buffer.
	BufferOverflow
	// BufferUnderflow means a pop ran off the end of a bitstream buffer.
	BufferUnderflow
)

func (c Code) String() string {
	switch c {
	case BadMagic:
		return "bad magic"
	case Truncated:
		return "truncated stream"
	case UnsupportedFeature:
		return "unsupported feature"
	case StreamCorrupt:
		return "stream corrupt"
	case InvalidCopy:
		return "invalid copy"
	case BufferOverflow:
		return "buffer overflow"
	case BufferUnderflow:
		return "buffer underflow"
	default:
		return "unknown error"
	}
}

// Error reports a bitknit2 decode failure. Code identifies the class of
// failure so callers can distinguish "this isn't a BitKnit2 stream at all"
// from "this stream is corrupt" without string matching.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return "bitknit2: " + e.Code.String()
	}
	return fmt.Sprintf("bitknit2: %s: %s", e.Code, e.Msg)
}

// Is reports whether target is a sentinel for the same Code, so that
// errors.Is(err, bitknit2.ErrStreamCorrupt) works regardless of the message
// attached to a particular failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code Code, format string, args ...interface{}) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Sentinel values usable with errors.Is. Only the Code is compared.
var (
	ErrBadMagic           error = &Error{Code: BadMagic}
	ErrTruncated          error = &Error{Code: Truncated}
	ErrUnsupportedFeature error = &Error{Code: UnsupportedFeature}
	ErrStreamCorrupt      error = &Error{Code: StreamCorrupt}
	ErrInvalidCopy        error = &Error{Code: InvalidCopy}
	ErrBufferOverflow     error = &Error{Code: BufferOverflow}
	ErrBufferUnderflow    error = &Error{Code: BufferUnderflow}
)
