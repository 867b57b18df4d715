package bitknit2

import "testing"

func fillUniform(t *FrequencyTable[uint16]) {
	sums := t.Sums()
	total := uint16(1) << t.FreqBits()
	n := t.VocabSize()
	for i := 0; i <= n; i++ {
		sums[i] = uint16(int(total) * i / n)
	}
	t.RebuildLookup()
}

func TestFrequencyTableUniform(t *testing.T) {
	tbl := NewFrequencyTable[uint16](8, 12, 0)
	fillUniform(tbl)
	for s := 0; s < tbl.VocabSize(); s++ {
		if f := tbl.Frequency(s); f != uint16(1<<12)/8 {
			t.Errorf("Frequency(%d) = %d, want %d", s, f, uint16(1<<12)/8)
		}
	}
	total := uint16(1) << 12
	for code := uint16(0); code < total; code += 37 {
		sym := tbl.FindSymbol(code)
		if code < tbl.SumBelow(sym) || code >= tbl.SumBelow(sym)+tbl.Frequency(sym) {
			t.Fatalf("FindSymbol(%d) = %d, out of its own range [%d, %d)", code, sym, tbl.SumBelow(sym), tbl.SumBelow(sym)+tbl.Frequency(sym))
		}
	}
}

func TestFrequencyTableWithLookup(t *testing.T) {
	slow := NewFrequencyTable[uint16](8, 12, 0)
	fast := NewFrequencyTable[uint16](8, 12, 5)
	fillUniform(slow)
	fillUniform(fast)
	total := uint16(1) << 12
	for code := uint16(0); code < total; code++ {
		if a, b := slow.FindSymbol(code), fast.FindSymbol(code); a != b {
			t.Fatalf("FindSymbol(%d): binary search = %d, lookup-accelerated = %d", code, a, b)
		}
	}
}

func TestFrequencyTableSkewed(t *testing.T) {
	tbl := NewFrequencyTable[uint16](4, 8, 3)
	sums := tbl.Sums()
	sums[0], sums[1], sums[2], sums[3], sums[4] = 0, 1, 2, 3, 1<<8
	tbl.RebuildLookup()
	if f := tbl.Frequency(3); f != (1<<8)-3 {
		t.Errorf("Frequency(3) = %d, want %d", f, (1<<8)-3)
	}
	for code := uint16(0); code < 1<<8; code++ {
		sym := tbl.FindSymbol(code)
		if code < tbl.SumBelow(sym) || code >= tbl.SumBelow(sym)+tbl.Frequency(sym) {
			t.Fatalf("FindSymbol(%d) = %d, outside its range", code, sym)
		}
	}
}
