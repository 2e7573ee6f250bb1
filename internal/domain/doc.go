// Package domain models daily district air-quality measurements for a city.
//
// # Data Source
//
// Measurements come from a yearly export of the city's air-quality monitoring
// network: one row per (date, district) with Korean column headers. The
// export is a spreadsheet, usually re-saved as CSV.
//
//	날짜       date of the measurement, e.g. "2019-01-15"
//	측정소명   station / district name, e.g. "종로구"
//	미세먼지   PM10 in µg/m³
//	초미세먼지 PM2.5 in µg/m³
//
// # Data Conventions
//
// Aggregate rows:
//
//	The export interleaves city-wide rows labelled "전체" ("all"). They are
//	not districts and are always excluded, whatever their other fields hold.
//
// Missing and malformed values:
//
//	Blank cells, "-" and non-numeric strings are treated as missing. A row
//	with any missing required field is dropped, never repaired.
//
// Sensor errors:
//
//	PM10 outside [0, 300] is treated as a sensor fault and the row dropped.
//
// # Derived attributes
//
// Season (from month):
//
//	spring: Mar–May | summer: Jun–Aug | fall: Sep–Nov | winter: Dec–Feb
//
// PM10 grade (inclusive upper bounds):
//
//	good: ≤30 | normal: ≤80 | bad: ≤150 | worse: >150
//
// Both mappings are lookup tables (see [seasonTable] and [gradeTable]) so
// the business constants live in one place.
package domain
