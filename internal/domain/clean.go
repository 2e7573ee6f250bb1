package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DropReason explains why a raw record did not survive cleaning.
type DropReason string

const (
	DropNone         DropReason = ""
	DropAggregate    DropReason = "aggregate_row"
	DropMissingField DropReason = "missing_field"
	DropInvalidDate  DropReason = "invalid_date"
	DropInvalidNum   DropReason = "invalid_number"
	DropOutOfRange   DropReason = "out_of_range"
)

// DropReasons lists every non-empty reason in the order checks are applied.
var DropReasons = []DropReason{DropAggregate, DropMissingField, DropInvalidDate, DropInvalidNum, DropOutOfRange}

// dateLayouts are the date formats seen in exports of the dataset.
var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"2006.01.02",
	"20060102",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// missingTokens are cell values that mean "no value".
var missingTokens = map[string]struct{}{
	"":      {},
	"-":     {},
	"NA":    {},
	"NaN":   {},
	"nan":   {},
	"<nil>": {},
}

// CleanReading converts a raw record into a Reading. The second return value
// is DropNone when the record is usable; otherwise it names the first check
// that failed. Aggregate rows are rejected before anything else is examined.
func CleanReading(raw RawRecord) (Reading, DropReason) {
	if IsAggregate(raw) {
		return Reading{}, DropAggregate
	}

	date, district, pm10, pm25 := normalizeCell(raw.Date), normalizeCell(raw.District), normalizeCell(raw.PM10), normalizeCell(raw.PM25)
	if isMissing(date) || isMissing(district) || isMissing(pm10) || isMissing(pm25) {
		return Reading{}, DropMissingField
	}

	d, ok := parseDate(date)
	if !ok {
		return Reading{}, DropInvalidDate
	}

	v10, ok10 := parseNumber(pm10)
	v25, ok25 := parseNumber(pm25)
	if !ok10 || !ok25 {
		return Reading{}, DropInvalidNum
	}

	if v10 < MinPM10 || v10 > MaxPM10 {
		return Reading{}, DropOutOfRange
	}

	return Reading{Date: d, District: district, PM10: v10, PM25: v25}, DropNone
}

// IsAggregate reports whether a record is a city-wide summary row. The
// marker is looked for in the district column and, as some exports put it
// there, in the date column.
func IsAggregate(raw RawRecord) bool {
	return strings.Contains(raw.District, AggregateMarker) || strings.Contains(raw.Date, AggregateMarker)
}

func normalizeCell(s string) string {
	return strings.TrimSpace(s)
}

func isMissing(s string) bool {
	_, ok := missingTokens[s]
	return ok
}

// parseDate accepts any of dateLayouts and keeps only the calendar date, in UTC.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseNumber parses a finite decimal number. NaN and infinities are rejected.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
