package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_Basic(t *testing.T) {
	input := "a,b,c\n1,2,3\n4,5,6\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0].Fields)
	assert.Equal(t, []string{"1", "2", "3"}, rows[1].Fields)
	assert.Equal(t, 3, rows[2].Line)
}

func TestReadCSV_SemicolonQuoted(t *testing.T) {
	input := "\"ID\";\"Location\"\n\"1\";\"ул. Тверская; д. 1\"\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{
		Delimiter: ';',
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "ул. Тверская; д. 1"}, rows[1].Fields)
}

func TestReadCSV_VariableFieldCount(t *testing.T) {
	input := "a,b,c\n1\n4,5,6,7\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1"}, rows[1].Fields)
	assert.Len(t, rows[2].Fields, 4)
}

func TestReadCSV_ParseErrorDoesNotAbort(t *testing.T) {
	input := "a,b\nx\"y,z\n1,2\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Error(t, rows[1].Err)
	assert.Nil(t, rows[1].Fields)
	assert.Equal(t, 2, rows[1].Line)
	assert.Equal(t, []string{"1", "2"}, rows[2].Fields)
}

func TestReadCSV_LazyQuotes(t *testing.T) {
	input := "a,b\nx\"y,z\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{LazyQuotes: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NoError(t, rows[1].Err)
	assert.Equal(t, []string{"x\"y", "z"}, rows[1].Fields)
}

func TestReadCSV_Comment(t *testing.T) {
	input := "# comment\na,b\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{Comment: '#'})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a", "b"}, rows[0].Fields)
}

func TestReadCSV_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadCSV(ctx, strings.NewReader("a,b\n"), CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}
