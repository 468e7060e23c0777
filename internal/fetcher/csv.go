// Package fetcher opens and reads the delimited-text and spreadsheet
// exports the complaint parser consumes.
package fetcher

import (
	"context"
	"encoding/csv"
	"errors"
	"io"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the quote-aware CSV reader.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
}

// CSVRow is one record read by ReadCSV. Err is set, and Fields is nil,
// when the record could not be parsed; reading continues after it.
type CSVRow struct {
	Line   int
	Fields []string
	Err    error
}

// ReadCSV reads every record from r. Per-record parse errors are reported
// on the row; only I/O failures and cancellation abort the read.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([]CSVRow, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields

	var rows []CSVRow
	for {
		if ctx.Err() != nil {
			return rows, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}

		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return rows, eris.Wrap(err, "csv: read row")
			}
			rows = append(rows, CSVRow{Line: parseErr.StartLine, Err: eris.Wrap(err, "csv: parse row")})
			continue
		}

		line, _ := reader.FieldPos(0)
		rows = append(rows, CSVRow{Line: line, Fields: record})
	}
}
