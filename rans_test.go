package bitknit2

import "testing"

func TestRansPushPopBits(t *testing.T) {
	buf := make([]uint16, 64)
	w := NewWriter(buf)
	s := NewRansState32()
	values := []uint32{1, 0, 15, 8, 3, 15, 15, 2}
	for i := len(values) - 1; i >= 0; i-- {
		if err := s.PushBits(w, values[i], 4); err != nil {
			t.Fatalf("PushBits(%d) error %s", values[i], err)
		}
	}
	r := NewReader(w.Written())
	s2 := RawRansState32(s.X)
	for _, want := range values {
		got, err := s2.PopBits(r, 4)
		if err != nil {
			t.Fatalf("PopBits error %s", err)
		}
		if got != want {
			t.Errorf("PopBits() = %d, want %d", got, want)
		}
	}
}

func TestRansPushPopCdf(t *testing.T) {
	buf := make([]uint16, 256)
	w := NewWriter(buf)
	tbl := NewFrequencyTable[uint16](4, 8, 0)
	sums := tbl.Sums()
	sums[0], sums[1], sums[2], sums[3], sums[4] = 0, 100, 150, 200, 256
	tbl.RebuildLookup()

	symbols := []int{0, 0, 1, 2, 3, 0, 1, 3, 3, 2, 0}
	s := NewRansState32()
	for i := len(symbols) - 1; i >= 0; i-- {
		if err := PushCdf(&s, w, symbols[i], tbl); err != nil {
			t.Fatalf("PushCdf(%d) error %s", symbols[i], err)
		}
	}
	r := NewReader(w.Written())
	s2 := RawRansState32(s.X)
	for _, want := range symbols {
		got, err := PopCdf(&s2, r, tbl)
		if err != nil {
			t.Fatalf("PopCdf error %s", err)
		}
		if got != want {
			t.Errorf("PopCdf() = %d, want %d", got, want)
		}
	}
}

func TestRansStateWide64Configuration(t *testing.T) {
	buf := make([]uint32, 32)
	w := NewWriter(buf)
	s := NewRansState64()
	values := []uint64{1, 0, 63, 40, 12}
	for i := len(values) - 1; i >= 0; i-- {
		if err := s.PushBits(w, values[i], 6); err != nil {
			t.Fatalf("PushBits(%d) error %s", values[i], err)
		}
	}
	r := NewReader(w.Written())
	s2 := RansState[uint64, uint32]{X: s.X, halfBits: 32}
	for _, want := range values {
		got, err := s2.PopBits(r, 6)
		if err != nil {
			t.Fatalf("PopBits error %s", err)
		}
		if got != want {
			t.Errorf("PopBits() = %d, want %d", got, want)
		}
	}
}
