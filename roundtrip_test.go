package bitknit2

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/eiz/bitknit2/internal/corpus"
	"github.com/kr/pretty"
	"github.com/ulikunitz/zdata"
)

// corpusSampleSize caps how much of each Silesia file this test feeds
// through the reference Encoder. The unoptimized whole-buffer hash chain in
// matchFinder is O(file size * matchChainLen); the full corpus is hundreds
// of megabytes, so this samples enough of each file to cross several
// quantum boundaries without making the suite impractically slow.
const corpusSampleSize = 3*quantumSize + 12345

func TestSilesiaRoundTrip(t *testing.T) {
	files, err := corpus.Files(zdata.Silesia)
	if err != nil {
		t.Fatalf("corpus.Files(zdata.Silesia) error %s", err)
	}
	if len(files) == 0 {
		t.Fatal("corpus.Files(zdata.Silesia) returned no files")
	}
	for _, f := range files {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			data := f.Data
			if len(data) > corpusSampleSize {
				data = data[:corpusSampleSize]
			}
			want := sha256.Sum256(data)

			compressed, err := NewEncoder().Encode(data)
			if err != nil {
				t.Fatalf("%s: Encode error %s", f.Name, err)
			}
			got := make([]byte, len(data))
			if err := NewDecoder().Decode(got, compressed); err != nil {
				t.Fatalf("%s: Decode error %s", f.Name, err)
			}
			gotSum := sha256.Sum256(got)
			if gotSum != want {
				i := 0
				for i < len(got) && i < len(data) && got[i] == data[i] {
					i++
				}
				hi := i + 32
				if hi > len(data) {
					hi = len(data)
				}
				diff := pretty.Diff(data[i:hi], got[i:hi])
				t.Fatalf("%s: round trip mismatch at byte %d of %d:\n%s", f.Name, i, len(data), pretty.Sprint(diff))
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("%s: sha256 matched but bytes.Equal did not (impossible without a hash collision)", f.Name)
			}
		})
	}
}
