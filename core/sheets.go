package core

import (
	"context"
	"strconv"
)

// Reserved column headers identifying a response. Literal values from the
// source spreadsheets' locale; do not translate.
const (
	TimestampHeader = "Horodateur"
	EmailHeader     = "Adresse e-mail"
)

type (
	// Row is one response row, mapping a column header to its raw cell
	// value (a string or a number, depending on the provider).
	Row map[string]interface{}

	Worksheet struct {
		ID    int64
		Title string
	}

	// SheetFile is an open handle on one external spreadsheet.
	SheetFile interface {
		Name() string
		TimeZone() string
		Worksheets() []Worksheet
		Records(ctx context.Context, ws Worksheet) ([]Row, error)
	}

	// SheetService is the network boundary to the spreadsheet provider.
	SheetService interface {
		GetFile(ctx context.Context, fileID string) (SheetFile, error)
	}
)

// Cell renders the raw value under header as a string. Numeric cells render
// without a decimal part when they hold an integral value.
func (r Row) Cell(header string) string {
	switch v := r[header].(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Headers returns the set of column headers present in any of the rows.
func RowHeaders(rows []Row) map[string]struct{} {
	headers := make(map[string]struct{})
	for _, row := range rows {
		for h := range row {
			headers[h] = struct{}{}
		}
	}
	return headers
}
