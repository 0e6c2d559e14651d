package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	closeColumn = "close"
	dateColumn  = "date"
	timeColumn  = "time"
	asOfLayout  = "2006-01-02 15:04:05"
)

// ParseQuote reads a header row plus exactly one data row and takes the price
// from the "Close" column. AsOf comes from the Date and Time columns when both
// parse, otherwise fallbackAsOf is used.
func ParseQuote(sym Symbol, raw string, fallbackAsOf time.Time) (Quote, error) {
	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := readRows(r)
	if err != nil {
		return Quote{}, err
	}
	if len(records) < 2 {
		return Quote{}, fmt.Errorf("%w: expected header and data row, got %d line(s)", ErrMalformedUpstreamData, len(records))
	}
	if len(records) > 2 {
		return Quote{}, fmt.Errorf("%w: expected one data row, got %d", ErrMalformedUpstreamData, len(records)-1)
	}
	header, row := records[0], records[1]

	closeIdx := columnIndex(header, closeColumn)
	if closeIdx < 0 {
		return Quote{}, fmt.Errorf("%w: %q column missing", ErrMalformedUpstreamData, "Close")
	}
	if closeIdx >= len(row) {
		return Quote{}, fmt.Errorf("%w: data row has %d field(s), close is column %d", ErrMalformedUpstreamData, len(row), closeIdx+1)
	}

	value := strings.TrimSpace(row[closeIdx])
	price, err := decimal.NewFromString(value)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: close value %q is not a number", ErrMalformedUpstreamData, value)
	}

	return NewQuote(sym, price, asOf(header, row, fallbackAsOf))
}

// readRows reads every record and rejects blank lines ahead of a record,
// which csv.Reader would otherwise skip silently. Trailing blank lines are fine.
func readRows(r *csv.Reader) ([][]string, error) {
	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv: %v", ErrMalformedUpstreamData, err)
		}
		if line, _ := r.FieldPos(0); line != len(records)+1 {
			return nil, fmt.Errorf("%w: blank line before line %d", ErrMalformedUpstreamData, line)
		}
		records = append(records, rec)
	}
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func asOf(header, row []string, fallback time.Time) time.Time {
	di, ti := columnIndex(header, dateColumn), columnIndex(header, timeColumn)
	if di < 0 || ti < 0 || di >= len(row) || ti >= len(row) {
		return fallback
	}
	t, err := time.ParseInLocation(asOfLayout, strings.TrimSpace(row[di])+" "+strings.TrimSpace(row[ti]), time.UTC)
	if err != nil {
		return fallback
	}
	return t
}
