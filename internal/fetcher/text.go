package fetcher

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Supported input encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1251 = "windows-1251"
)

// textFile decodes an input file to UTF-8 while reading.
type textFile struct {
	io.Reader
	f *os.File
}

func (t *textFile) Close() error {
	return t.f.Close()
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// OpenText opens path for reading and decodes it from the named encoding
// to UTF-8. An empty name means UTF-8; a leading byte-order mark is dropped.
// UTF-8 input is passed through unchanged, so invalid byte sequences reach
// the caller as-is and can be told apart from a literal U+FFFD.
func OpenText(path, enc string) (io.ReadCloser, error) {
	dec, err := decoderFor(enc)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}

	if dec == nil {
		br := bufio.NewReader(f)
		if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
			_, _ = br.Discard(len(utf8BOM))
		}
		return &textFile{Reader: br, f: f}, nil
	}
	return &textFile{Reader: transform.NewReader(f, dec.NewDecoder()), f: f}, nil
}

// decoderFor returns the decoder for enc; nil means the input is UTF-8.
func decoderFor(enc string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251, nil
	default:
		return nil, eris.Errorf("fetcher: unsupported encoding %q", enc)
	}
}
