// Copyright (C) 2024 Mackenzie Straight. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bitknit2 implements the BitKnit2 entropy-coded compression format
// used inside the granny binary asset container. It provides a Decoder for
// expanding compressed streams to a caller-supplied buffer of known length,
// and an Encoder used by this package's own tests to build round-trip
// fixtures.
//
// A stream is a sequence of little-endian 16-bit words beginning with the
// magic word 0x75B1, followed by one or more 64KiB quanta. Each quantum is
// either a raw copy of up to 32768 words or an interleaved-rANS-coded
// sequence of literal and LZ77 copy commands. See Decoder.Decode.
package bitknit2
