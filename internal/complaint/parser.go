// Package complaint reads municipal noise-complaint exports into
// structured records.
package complaint

import (
	"bufio"
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gradient-spp/noisemap/internal/fetcher"
	"github.com/gradient-spp/noisemap/internal/model"
)

const (
	// headerLines is the number of header rows: the column names followed by
	// a localized duplicate that is skipped.
	headerLines = 2

	// minQuotedFields is the narrowest row the quote-aware reader accepts.
	minQuotedFields = 8

	maxLineBytes = 1024 * 1024

	// sampleRecords is how many parsed records are echoed at debug level.
	sampleRecords = 5
)

// ParseOptions configures a Parser.
type ParseOptions struct {
	Delimiter rune   // 0 = detect from the file head
	Encoding  string // see fetcher.OpenText
}

// Parser turns complaint exports into a ParseReport.
type Parser struct {
	opts ParseOptions
}

// NewParser creates a Parser with the given options.
func NewParser(opts ParseOptions) *Parser {
	return &Parser{opts: opts}
}

// Parse reads path with the strategy suited to it. Spreadsheets go through
// ParseXLSX. Delimited text goes through ParseSplit and, when that yields no
// records, through ParseQuoted. A report with zero records is not an error;
// callers decide whether an empty input is fatal.
func (p *Parser) Parse(ctx context.Context, path string) (*model.ParseReport, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return p.ParseXLSX(ctx, path)
	}

	report, splitErr := p.ParseSplit(ctx, path)
	if splitErr == nil && len(report.Records()) > 0 {
		return report, nil
	}

	zap.L().Warn("complaint: no records from split parser, retrying with quoted reader",
		zap.String("path", path),
		zap.Error(splitErr),
	)

	quoted, quotedErr := p.ParseQuoted(ctx, path)
	if quotedErr != nil {
		if splitErr != nil {
			return nil, eris.Wrapf(quotedErr, "complaint: both parsers failed (split: %v)", splitErr)
		}
		// The split pass read the file; its empty report is the answer.
		return report, nil
	}
	return quoted, nil
}

// ParseSplit is the primary strategy: every line is split on the delimiter
// without quote awareness.
func (p *Parser) ParseSplit(ctx context.Context, path string) (*model.ParseReport, error) {
	rc, err := fetcher.OpenText(path, p.opts.Encoding)
	if err != nil {
		return nil, eris.Wrap(err, "complaint: split")
	}
	defer rc.Close() //nolint:errcheck

	br := bufio.NewReaderSize(rc, fetcher.DelimiterSampleSize)
	delim, err := p.delimiter(br)
	if err != nil {
		return nil, err
	}

	report := &model.ParseReport{Path: path, Strategy: model.StrategySplit, Delimiter: delim}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var cols columns
	lineNum := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "complaint: split cancelled")
		}
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case lineNum == 1:
			report.Header = splitHeader(line, delim)
			cols = newColumns(report.Header)
			warnMissingColumns(path, cols)
			continue
		case lineNum <= headerLines:
			continue
		}

		report.Rows = append(report.Rows, splitRow(cols, line, delim, lineNum))
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "complaint: split read line %d", lineNum+1)
	}

	logReport(report)
	return report, nil
}

func splitRow(cols columns, line string, delim rune, lineNum int) model.RowResult {
	if strings.TrimSpace(line) == "" {
		return model.RowResult{Line: lineNum, Skip: model.SkipBlankLine}
	}
	if !utf8.ValidString(line) {
		return model.RowResult{
			Line: lineNum,
			Skip: model.SkipMalformedRow,
			Err:  eris.Errorf("complaint: line %d has undecodable bytes", lineNum),
		}
	}

	rec := cols.record(strings.Split(line, string(delim)))
	if rec == nil {
		return model.RowResult{Line: lineNum, Skip: model.SkipMissingAddress}
	}
	return model.RowResult{Line: lineNum, Record: rec}
}

// ParseQuoted is the fallback strategy: a quote-aware CSV reader that
// tolerates delimiters inside quoted fields.
func (p *Parser) ParseQuoted(ctx context.Context, path string) (*model.ParseReport, error) {
	rc, err := fetcher.OpenText(path, p.opts.Encoding)
	if err != nil {
		return nil, eris.Wrap(err, "complaint: quoted")
	}
	defer rc.Close() //nolint:errcheck

	br := bufio.NewReaderSize(rc, fetcher.DelimiterSampleSize)
	delim, err := p.delimiter(br)
	if err != nil {
		return nil, err
	}

	rows, err := fetcher.ReadCSV(ctx, br, fetcher.CSVOptions{Delimiter: delim, LazyQuotes: true})
	if err != nil {
		return nil, eris.Wrap(err, "complaint: quoted")
	}

	report := &model.ParseReport{Path: path, Strategy: model.StrategyQuoted, Delimiter: delim}
	if len(rows) == 0 {
		return report, nil
	}
	if rows[0].Err != nil {
		return nil, eris.Wrap(rows[0].Err, "complaint: quoted header")
	}

	report.Header = cleanAll(rows[0].Fields)
	cols := newColumns(report.Header)
	warnMissingColumns(path, cols)

	for i, row := range rows {
		if i < headerLines {
			continue
		}
		switch {
		case row.Err != nil:
			report.Rows = append(report.Rows, model.RowResult{Line: row.Line, Skip: model.SkipMalformedRow, Err: row.Err})
		case len(row.Fields) < minQuotedFields:
			report.Rows = append(report.Rows, model.RowResult{Line: row.Line, Skip: model.SkipShortRow})
		default:
			report.Rows = append(report.Rows, recordRow(cols, row.Fields, row.Line))
		}
	}

	logReport(report)
	return report, nil
}

// ParseXLSX reads the first sheet of a spreadsheet export laid out like the
// delimited one: two header rows, then data.
func (p *Parser) ParseXLSX(_ context.Context, path string) (*model.ParseReport, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "complaint: xlsx")
	}

	report := &model.ParseReport{Path: path, Strategy: model.StrategyXLSX}
	if len(rows) == 0 {
		return report, nil
	}

	report.Header = cleanAll(rows[0])
	cols := newColumns(report.Header)
	warnMissingColumns(path, cols)

	for i, fields := range rows {
		if i < headerLines {
			continue
		}
		lineNum := i + 1
		if isBlank(fields) {
			report.Rows = append(report.Rows, model.RowResult{Line: lineNum, Skip: model.SkipBlankLine})
			continue
		}
		report.Rows = append(report.Rows, recordRow(cols, fields, lineNum))
	}

	logReport(report)
	return report, nil
}

func recordRow(cols columns, fields []string, lineNum int) model.RowResult {
	rec := cols.record(fields)
	if rec == nil {
		return model.RowResult{Line: lineNum, Skip: model.SkipMissingAddress}
	}
	return model.RowResult{Line: lineNum, Record: rec}
}

func (p *Parser) delimiter(br *bufio.Reader) (rune, error) {
	if p.opts.Delimiter != 0 {
		return p.opts.Delimiter, nil
	}
	d, err := fetcher.SniffDelimiter(br)
	if err != nil {
		return 0, eris.Wrap(err, "complaint: detect delimiter")
	}
	return d, nil
}

func cleanAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = cleanField(f)
	}
	return out
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func warnMissingColumns(path string, cols columns) {
	if !cols.has(model.ColumnLocation) {
		zap.L().Warn("complaint: header has no address column, every row will be skipped",
			zap.String("path", path),
			zap.String("column", model.ColumnLocation),
		)
	}
}

func logReport(report *model.ParseReport) {
	records := 0
	for _, row := range report.Rows {
		if row.Record != nil {
			if records < sampleRecords {
				zap.L().Debug("complaint: sample record",
					zap.Int("line", row.Line),
					zap.String("address", row.Record.Address),
					zap.String("date", row.Record.Date),
					zap.String("category", row.Record.NoiseCategory),
					zap.Bool("has_coordinates", row.Record.HasCoordinates()),
				)
			}
			records++
			continue
		}
		if row.Skip == model.SkipMalformedRow {
			zap.L().Warn("complaint: malformed row skipped", zap.Int("line", row.Line), zap.Error(row.Err))
		}
	}

	zap.L().Info("complaint: parsed",
		zap.String("path", report.Path),
		zap.String("strategy", string(report.Strategy)),
		zap.String("delimiter", string(report.Delimiter)),
		zap.Int("rows", len(report.Rows)),
		zap.Int("records", records),
		zap.Any("skipped", report.SkipCounts()),
	)
}
