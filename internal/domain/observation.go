package domain

import "time"

// Source column headers in the city export.
const (
	ColumnDate     = "날짜"
	ColumnDistrict = "측정소명"
	ColumnPM10     = "미세먼지"
	ColumnPM25     = "초미세먼지"
)

// Canonical column names after projection.
const (
	FieldDate     = "date"
	FieldDistrict = "district"
	FieldPM10     = "pm10"
	FieldPM25     = "pm25"
	FieldMonth    = "month"
	FieldDay      = "day"
	FieldSeason   = "season"
	FieldGrade    = "pm_grade"
)

// SourceColumns lists the required input headers in projection order.
var SourceColumns = []string{ColumnDate, ColumnDistrict, ColumnPM10, ColumnPM25}

// CanonicalColumns are the names SourceColumns are renamed to.
var CanonicalColumns = []string{FieldDate, FieldDistrict, FieldPM10, FieldPM25}

// OutputColumns is the header of the cleaned output table.
var OutputColumns = []string{FieldDate, FieldDistrict, FieldPM10, FieldPM25, FieldMonth, FieldDay, FieldSeason}

// AggregateMarker labels city-wide summary rows in the export.
const AggregateMarker = "전체"

// Valid PM10 range; anything outside is a sensor error.
const (
	MinPM10 = 0.0
	MaxPM10 = 300.0
)

// RawRecord is one row of the projected source table, all fields as text.
type RawRecord struct {
	Date     string
	District string
	PM10     string
	PM25     string
}

// Reading is a cleaned measurement before feature derivation.
type Reading struct {
	Date     time.Time
	District string
	PM10     float64
	PM25     float64
}

// Observation is a cleaned measurement with its derived calendar and grade
// attributes. Values are never modified after Derive returns them.
type Observation struct {
	Date     time.Time `json:"date"`
	District string    `json:"district" validate:"required"`
	PM10     float64   `json:"pm10" validate:"gte=0,lte=300"`
	PM25     float64   `json:"pm25"`
	Month    int       `json:"month" validate:"min=1,max=12"`
	Day      int       `json:"day" validate:"min=1,max=31"`
	Season   Season    `json:"season" validate:"oneof=spring summer fall winter"`
	Grade    Grade     `json:"pm_grade" validate:"oneof=good normal bad worse"`
}

// Key identifies an observation by date and district.
func (o Observation) Key() string {
	return o.Date.Format(DateLayout) + "|" + o.District
}

// DateLayout is the canonical date format for output files and messages.
const DateLayout = "2006-01-02"
