package fetcher

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   rune
	}{
		{"semicolons win", strings.Repeat(";", 10) + ",,", ';'},
		{"commas win", "a,b,c;d", ','},
		{"tabs win", "a\tb\tc\td,e", '\t'},
		{"empty defaults to semicolon", "", ';'},
		{"no candidates", "abc def", ';'},
		{"tie prefers semicolon", "a;b,c", ';'},
		{"tie prefers comma over tab", "a,b\tc", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter([]byte(tt.sample)))
		})
	}
}

func TestSniffDelimiter_DoesNotConsume(t *testing.T) {
	br := bufio.NewReaderSize(strings.NewReader("a;b;c\n1;2;3\n"), DelimiterSampleSize)
	d, err := SniffDelimiter(br)
	require.NoError(t, err)
	assert.Equal(t, ';', d)

	line, err := br.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "a;b;c\n", line)
}

func TestSniffDelimiter_OnlyLooksAtSample(t *testing.T) {
	head := strings.Repeat("x,", DelimiterSampleSize/2)
	tail := strings.Repeat(";", DelimiterSampleSize*2)
	br := bufio.NewReaderSize(strings.NewReader(head+tail), DelimiterSampleSize)
	d, err := SniffDelimiter(br)
	require.NoError(t, err)
	assert.Equal(t, ',', d)
}
