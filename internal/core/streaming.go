package core

// streaming.go prepares a CSV source for the csv reader:
//
//   - a UTF-8 BOM is dropped; a UTF-16 BOM switches decoding to UTF-16
//   - ill-formed UTF-8 is replaced with U+FFFD
//   - raw source bytes are counted for the batch result

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// SourceReader is a decoded view of a CSV source.
type SourceReader struct {
	io.Reader
	counter *countingReader
}

// WrapSource applies BOM handling and UTF-8 repair to r.
func WrapSource(r io.Reader) *SourceReader {
	counter := &countingReader{reader: r}
	decoder := transform.Chain(
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		runes.ReplaceIllFormed(),
	)
	return &SourceReader{
		Reader:  transform.NewReader(counter, decoder),
		counter: counter,
	}
}

// BytesRead returns the number of raw bytes consumed from the source.
func (s *SourceReader) BytesRead() int64 {
	return s.counter.n
}

type countingReader struct {
	reader io.Reader
	n      int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.n += int64(n)
	return n, err
}
