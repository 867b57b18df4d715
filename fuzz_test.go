package bitknit2

import (
	"bytes"
	"testing"
)

// FuzzRoundTrip checks that whatever Encoder produces, Decoder recovers
// exactly, across arbitrary input bytes and lengths.
func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("a"))
	f.Add(bytes.Repeat([]byte("ab"), 100000))
	f.Add(bytes.Repeat([]byte{0}, 200000))
	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1<<20 {
			t.Skip()
		}
		compressed, err := NewEncoder().Encode(data)
		if err != nil {
			t.Fatalf("Encode error %s", err)
		}
		got := make([]byte, len(data))
		if err := NewDecoder().Decode(got, compressed); err != nil {
			t.Fatalf("Decode error %s (data len %d)", err, len(data))
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("round trip mismatch, data len %d", len(data))
		}
	})
}

// FuzzDecode feeds arbitrary, almost certainly malformed, word streams
// through Decode. It never expects success; it only requires Decode to
// fail cleanly rather than panic or read/write outside dst, since
// compressed input reaches this decoder from untrusted asset files.
func FuzzDecode(f *testing.F) {
	seed, err := NewEncoder().Encode([]byte("some reasonably compressible seed input, repeated. "))
	if err != nil {
		f.Fatalf("Encode error %s", err)
	}
	seedBytes := make([]byte, 2*len(seed))
	for i, w := range seed {
		seedBytes[2*i] = byte(w)
		seedBytes[2*i+1] = byte(w >> 8)
	}
	f.Add(20, seedBytes)
	f.Add(0, []byte{})
	f.Add(5, []byte{0xB1, 0x75})
	f.Fuzz(func(t *testing.T, dstLen int, raw []byte) {
		if dstLen < 0 || dstLen > 1<<16 {
			t.Skip()
		}
		words := make([]uint16, len(raw)/2)
		for i := range words {
			words[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
		}
		dst := make([]byte, dstLen)
		_ = NewDecoder().Decode(dst, words)
	})
}
