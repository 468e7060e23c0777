package model

// Source column names of the municipal noise-complaint export.
const (
	ColumnID            = "ID"
	ColumnDate          = "Date"
	ColumnLocation      = "Location"
	ColumnDistrict      = "District"
	ColumnAdmArea       = "AdmArea"
	ColumnNoiseCategory = "NoiseCategory"
	ColumnResults       = "Results"
	ColumnLongitude     = "Longitude_WGS84"
	ColumnLatitude      = "Latitude_WGS84"
)

// ComplaintRecord is one parsed noise complaint.
type ComplaintRecord struct {
	ID            string   `json:"id"`
	Date          string   `json:"date"`    // raw, compared lexically
	Address       string   `json:"address"` // grouping key, never empty
	District      string   `json:"district,omitempty"`
	AdmArea       string   `json:"adm_area,omitempty"`
	NoiseCategory string   `json:"noise_category,omitempty"`
	Results       string   `json:"results,omitempty"` // free-text inspection outcome
	Longitude     *float64 `json:"longitude,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
}

// HasCoordinates reports whether both coordinates were present and parsed.
func (r ComplaintRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// SkipReason explains why a source row produced no record.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipBlankLine      SkipReason = "blank_line"
	SkipMissingAddress SkipReason = "missing_address"
	SkipMalformedRow   SkipReason = "malformed_row" // unparseable or invalid UTF-8
	SkipShortRow       SkipReason = "short_row"
)

// ParseStrategy names the reader that produced a ParseReport.
type ParseStrategy string

const (
	StrategySplit  ParseStrategy = "split"
	StrategyQuoted ParseStrategy = "quoted"
	StrategyXLSX   ParseStrategy = "xlsx"
)

// RowResult is the outcome of parsing a single source row: either a record
// or a skip reason (with the underlying error for malformed rows).
type RowResult struct {
	Line   int              `json:"line"`
	Record *ComplaintRecord `json:"record,omitempty"`
	Skip   SkipReason       `json:"skip,omitempty"`
	Err    error            `json:"-"`
}

// ParseReport collects every row outcome of one parsing pass.
type ParseReport struct {
	Path      string        `json:"path"`
	Strategy  ParseStrategy `json:"strategy"`
	Delimiter rune          `json:"delimiter"`
	Header    []string      `json:"header"`
	Rows      []RowResult   `json:"rows"`
}

// Records returns the successfully parsed records in file order.
func (p *ParseReport) Records() []ComplaintRecord {
	if p == nil {
		return nil
	}
	out := make([]ComplaintRecord, 0, len(p.Rows))
	for _, row := range p.Rows {
		if row.Record != nil {
			out = append(out, *row.Record)
		}
	}
	return out
}

// Skipped returns the rows that did not produce a record. Blank lines are
// not included.
func (p *ParseReport) Skipped() []RowResult {
	if p == nil {
		return nil
	}
	var out []RowResult
	for _, row := range p.Rows {
		if row.Record == nil && row.Skip != SkipBlankLine {
			out = append(out, row)
		}
	}
	return out
}

// SkipCounts tallies skipped rows by reason.
func (p *ParseReport) SkipCounts() map[SkipReason]int {
	counts := make(map[SkipReason]int)
	if p == nil {
		return counts
	}
	for _, row := range p.Rows {
		if row.Record == nil && row.Skip != SkipNone {
			counts[row.Skip]++
		}
	}
	return counts
}
