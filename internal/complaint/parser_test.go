package complaint

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/gradient-spp/noisemap/internal/model"
)

const testHeader = `"ID";"Date";"Location";"District";"AdmArea";"NoiseCategory";"Results";"Longitude_WGS84";"Latitude_WGS84"`
const testHeaderRU = `"Код";"Дата";"Адрес";"Район";"Округ";"Категория";"Результат";"Долгота";"Широта"`

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "noise.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestParseSplit_Basic(t *testing.T) {
	path := writeCSV(t,
		testHeader,
		testHeaderRU,
		`"1";"2024-05-01";"ул. Тверская, д. 1";"Тверской";"ЦАО";"[автотранспорт]";"выявлены превышения";"37.61";"55.76"`,
		`"2";"2024-05-02";"Арбат, д. 5";"Арбат";"ЦАО";"";"";"";""`,
	)

	report, err := NewParser(ParseOptions{}).ParseSplit(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, model.StrategySplit, report.Strategy)
	assert.Equal(t, ';', report.Delimiter)
	assert.Equal(t, "Location", report.Header[2])

	records := report.Records()
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "2024-05-01", first.Date)
	assert.Equal(t, "ул. Тверская, д. 1", first.Address)
	assert.Equal(t, "Тверской", first.District)
	assert.Equal(t, "ЦАО", first.AdmArea)
	assert.Equal(t, "[автотранспорт]", first.NoiseCategory)
	assert.Equal(t, "выявлены превышения", first.Results)
	require.True(t, first.HasCoordinates())
	assert.InDelta(t, 37.61, *first.Longitude, 1e-9)
	assert.InDelta(t, 55.76, *first.Latitude, 1e-9)

	assert.False(t, records[1].HasCoordinates())
	assert.Equal(t, 4, report.Rows[1].Line)
}

func TestParseSplit_ShortRowDefaultsToEmpty(t *testing.T) {
	path := writeCSV(t,
		testHeader,
		testHeaderRU,
		`"7";"2024-01-01";"Ленинский проспект, д. 10"`,
	)

	report, err := NewParser(ParseOptions{}).ParseSplit(context.Background(), path)
	require.NoError(t, err)

	records := report.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Ленинский проспект, д. 10", records[0].Address)
	assert.Empty(t, records[0].Results)
	assert.Nil(t, records[0].Latitude)
}

func TestParseSplit_SkipsMissingAddressAndBlankLines(t *testing.T) {
	path := writeCSV(t,
		testHeader,
		testHeaderRU,
		`"1";"2024-01-01";"";"";"";"";"";"";""`,
		``,
		`"2";"2024-01-02";"Арбат, д. 5";"";"";"";"";"";""`,
		"\"3\";\"2024-01-03\";\"bad \xff\";\"\";\"\";\"\";\"\";\"\";\"\"",
	)

	report, err := NewParser(ParseOptions{}).ParseSplit(context.Background(), path)
	require.NoError(t, err)

	assert.Len(t, report.Records(), 1)
	counts := report.SkipCounts()
	assert.Equal(t, 1, counts[model.SkipMissingAddress])
	assert.Equal(t, 1, counts[model.SkipBlankLine])
	assert.Equal(t, 1, counts[model.SkipMalformedRow])

	skipped := report.Skipped()
	require.Len(t, skipped, 2)
	assert.Equal(t, 3, skipped[0].Line)
	assert.Error(t, skipped[1].Err)
}

func TestParseSplit_ReplacementCharacterIsNotMalformed(t *testing.T) {
	path := writeCSV(t,
		testHeader,
		testHeaderRU,
		`"1";"2024-01-01";"Арбат, д. 5 �";"";"";"";"";"";""`,
		"\"2\";\"2024-01-02\";\"bad \xff\";\"\";\"\";\"\";\"\";\"\";\"\"",
	)

	report, err := NewParser(ParseOptions{}).ParseSplit(context.Background(), path)
	require.NoError(t, err)

	records := report.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Арбат, д. 5 \uFFFD", records[0].Address)

	skipped := report.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, 4, skipped[0].Line)
	assert.Equal(t, model.SkipMalformedRow, skipped[0].Skip)
}

func TestParseSplit_CommaDelimitedCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.csv")
	content := "ID,Date,Location,Results\r\nКод,Дата,Адрес,Результат\r\n1,2024-03-01,Арбат 5,не выявлены\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	report, err := NewParser(ParseOptions{}).ParseSplit(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, ',', report.Delimiter)

	records := report.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Арбат 5", records[0].Address)
	assert.Equal(t, "не выявлены", records[0].Results)
}

func TestParseSplit_ExplicitDelimiter(t *testing.T) {
	path := writeCSV(t,
		"ID|Location",
		"Код|Адрес",
		"1|Арбат, д. 5",
	)

	report, err := NewParser(ParseOptions{Delimiter: '|'}).ParseSplit(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, report.Records(), 1)
	assert.Equal(t, "Арбат, д. 5", report.Records()[0].Address)
}

func TestParseSplit_BOMHeader(t *testing.T) {
	path := writeCSV(t,
		"\ufeff"+testHeader,
		testHeaderRU,
		`"42";"2024-01-01";"Арбат, д. 5";"";"";"";"";"";""`,
	)

	report, err := NewParser(ParseOptions{}).ParseSplit(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, report.Records(), 1)
	assert.Equal(t, "42", report.Records()[0].ID)
}

func TestParseSplit_MissingFile(t *testing.T) {
	_, err := NewParser(ParseOptions{}).ParseSplit(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

// quotedOnlyRow parses to an empty address when split naively: the quoted
// ID carries the delimiter.
const quotedOnlyRow = `"1;";"Новый Арбат, д. 15";"2024-02-02";"Арбат";"ЦАО";"[музыка]";"превышения нормативов";"37.59";"55.75"`

func TestParseQuoted_HandlesDelimiterInsideQuotes(t *testing.T) {
	path := writeCSV(t,
		`"ID";"Location";"Date";"District";"AdmArea";"NoiseCategory";"Results";"Longitude_WGS84";"Latitude_WGS84"`,
		testHeaderRU,
		quotedOnlyRow,
		`"2";"Тверская, д. 3"`,
	)

	report, err := NewParser(ParseOptions{}).ParseQuoted(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, model.StrategyQuoted, report.Strategy)

	records := report.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "1;", records[0].ID)
	assert.Equal(t, "Новый Арбат, д. 15", records[0].Address)
	assert.Equal(t, 1, report.SkipCounts()[model.SkipShortRow])
}

func TestParse_FallsBackToQuoted(t *testing.T) {
	path := writeCSV(t,
		`"ID";"Location";"Date";"District";"AdmArea";"NoiseCategory";"Results";"Longitude_WGS84";"Latitude_WGS84"`,
		testHeaderRU,
		quotedOnlyRow,
	)

	parser := NewParser(ParseOptions{})

	split, err := parser.ParseSplit(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, split.Records())

	report, err := parser.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, model.StrategyQuoted, report.Strategy)
	require.Len(t, report.Records(), 1)
	assert.Equal(t, "Новый Арбат, д. 15", report.Records()[0].Address)
}

func TestParse_PrefersSplit(t *testing.T) {
	path := writeCSV(t,
		testHeader,
		testHeaderRU,
		`"1";"2024-05-01";"Арбат, д. 5";"";"";"";"";"";""`,
	)

	report, err := NewParser(ParseOptions{}).Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, model.StrategySplit, report.Strategy)
	assert.Len(t, report.Records(), 1)
}

func TestParse_ZeroRecordsIsNotAnError(t *testing.T) {
	path := writeCSV(t, testHeader, testHeaderRU)

	report, err := NewParser(ParseOptions{}).Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, report.Records())
}

func TestParse_MissingFile(t *testing.T) {
	_, err := NewParser(ParseOptions{}).Parse(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both parsers failed")
}

func TestParse_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("data")
	require.NoError(t, err)
	for _, rowData := range [][]string{
		{"ID", "Date", "Location", "District", "AdmArea", "NoiseCategory", "Results", "Longitude_WGS84", "Latitude_WGS84"},
		{"Код", "Дата", "Адрес", "Район", "Округ", "Категория", "Результат", "Долгота", "Широта"},
		{"1", "2024-05-01", "Арбат, д. 5", "", "", "", "не выявлены", "37.59", "55.75"},
		{"2", "2024-05-02", "", "", "", "", "", "", ""},
	} {
		row := sheet.AddRow()
		for _, v := range rowData {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "noise.xlsx")
	require.NoError(t, f.Save(path))

	report, err := NewParser(ParseOptions{}).Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, model.StrategyXLSX, report.Strategy)

	records := report.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Арбат, д. 5", records[0].Address)
	require.True(t, records[0].HasCoordinates())
	assert.InDelta(t, 55.75, *records[0].Latitude, 1e-9)
	assert.Equal(t, 1, report.SkipCounts()[model.SkipMissingAddress])
}
