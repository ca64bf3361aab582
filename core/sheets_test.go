package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRow_Cell(t *testing.T) {
	row := Row{
		"int":      4,
		"int64":    int64(5),
		"integral": 6.0,
		"decimal":  6.5,
		"text":     "Data Analyst",
		"nil":      nil,
		"bool":     true,
	}

	tests := []struct {
		header string
		want   string
	}{
		{header: "int", want: "4"},
		{header: "int64", want: "5"},
		{header: "integral", want: "6"},
		{header: "decimal", want: "6.5"},
		{header: "text", want: "Data Analyst"},
		{header: "nil", want: ""},
		{header: "bool", want: ""},
		{header: "missing", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, row.Cell(tt.header))
		})
	}
}

func TestRowHeaders(t *testing.T) {
	rows := []Row{
		{TimestampHeader: "01/03/2020 10:00:00", "Note": 4},
		{EmailHeader: "a@test.cd"},
	}
	headers := RowHeaders(rows)
	assert.Len(t, headers, 3)
	assert.Contains(t, headers, TimestampHeader)
	assert.Contains(t, headers, EmailHeader)
	assert.Contains(t, headers, "Note")
}
