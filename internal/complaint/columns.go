package complaint

import (
	"strings"

	"github.com/gradient-spp/noisemap/internal/model"
)

// columns maps header names to field positions.
type columns map[string]int

func newColumns(header []string) columns {
	c := make(columns, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		c[cleanField(name)] = i
	}
	return c
}

// has reports whether the header carries the named column.
func (c columns) has(name string) bool {
	_, ok := c[name]
	return ok
}

// get returns the cleaned value of the named column, or "" when the column
// is unknown or the row is too short to reach it.
func (c columns) get(fields []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return cleanField(fields[i])
}

// record maps a row onto a ComplaintRecord. It returns nil when the row has
// no address.
func (c columns) record(fields []string) *model.ComplaintRecord {
	address := c.get(fields, model.ColumnLocation)
	if address == "" {
		return nil
	}
	return &model.ComplaintRecord{
		ID:            c.get(fields, model.ColumnID),
		Date:          c.get(fields, model.ColumnDate),
		Address:       address,
		District:      c.get(fields, model.ColumnDistrict),
		AdmArea:       c.get(fields, model.ColumnAdmArea),
		NoiseCategory: c.get(fields, model.ColumnNoiseCategory),
		Results:       c.get(fields, model.ColumnResults),
		Longitude:     ParseCoordinate(c.get(fields, model.ColumnLongitude)),
		Latitude:      ParseCoordinate(c.get(fields, model.ColumnLatitude)),
	}
}

// cleanField strips surrounding whitespace and double quotes.
func cleanField(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
}

// splitHeader splits a raw header line and cleans every name.
func splitHeader(line string, delim rune) []string {
	parts := strings.Split(line, string(delim))
	for i := range parts {
		parts[i] = cleanField(parts[i])
	}
	return parts
}
