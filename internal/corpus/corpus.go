// Package corpus adapts the retrieved zdata corpora into plain byte
// slices for use as realistic (non-synthetic) round-trip test input.
//
// Adapted from ulikunitz/xz's internal/tuning/corpus.go, which walks an
// fs.FS such as zdata.Silesia into a flat list of files for compression
// benchmarking; this package needs the same walk, minus the XZ-specific
// compression-ratio measurement that file also did.
package corpus

import (
	"io/fs"
)

// File is one file pulled out of a corpus fs.FS.
type File struct {
	Name string
	Data []byte
}

// Files walks every regular file in fsys and returns its contents.
func Files(fsys fs.FS) (files []File, err error) {
	err = fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		files = append(files, File{Name: path, Data: data})
		return nil
	})
	return files, err
}

// Size returns the total byte length of files.
func Size(files []File) int64 {
	var n int64
	for _, f := range files {
		n += int64(len(f.Data))
	}
	return n
}
