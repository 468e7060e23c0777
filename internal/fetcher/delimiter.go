package fetcher

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/rotisserie/eris"
)

// DelimiterSampleSize is how much of a file DetectDelimiter looks at.
const DelimiterSampleSize = 8 * 1024

// candidateDelimiters is ordered: on equal counts the earlier one wins.
var candidateDelimiters = []rune{';', ',', '\t'}

// DetectDelimiter returns the candidate delimiter occurring most often in
// sample. A sample with none of them yields ';'.
func DetectDelimiter(sample []byte) rune {
	best := candidateDelimiters[0]
	bestCount := 0
	for _, d := range candidateDelimiters {
		n := bytes.Count(sample, []byte(string(d)))
		if n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// SniffDelimiter peeks at the head of br without consuming it and runs
// DetectDelimiter on up to DelimiterSampleSize bytes.
func SniffDelimiter(br *bufio.Reader) (rune, error) {
	sample, err := br.Peek(DelimiterSampleSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, eris.Wrap(err, "fetcher: sniff delimiter")
	}
	return DetectDelimiter(sample), nil
}
