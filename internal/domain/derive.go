package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Derive adds the calendar and grade attributes to a cleaned reading.
func Derive(r Reading) Observation {
	return Observation{
		Date:     r.Date,
		District: r.District,
		PM10:     r.PM10,
		PM25:     r.PM25,
		Month:    int(r.Date.Month()),
		Day:      r.Date.Day(),
		Season:   SeasonOf(r.Date.Month()),
		Grade:    GradeOf(r.PM10),
	}
}

// DeriveAll derives every reading, preserving order.
func DeriveAll(readings []Reading) []Observation {
	out := make([]Observation, len(readings))
	for i, r := range readings {
		out[i] = Derive(r)
	}
	return out
}

var validate = validator.New()

// Validate checks the field invariants of a cleaned observation and that its
// derived attributes agree with date and PM10.
func (o Observation) Validate() error {
	if o.Date.IsZero() {
		return fmt.Errorf("observation %q: date is required", o.District)
	}
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("observation %s: %w", o.Key(), err)
	}
	if want := SeasonOf(o.Date.Month()); o.Season != want {
		return fmt.Errorf("observation %s: season %q, want %q", o.Key(), o.Season, want)
	}
	if want := GradeOf(o.PM10); o.Grade != want {
		return fmt.Errorf("observation %s: grade %q, want %q", o.Key(), o.Grade, want)
	}
	if o.Month != int(o.Date.Month()) || o.Day != o.Date.Day() {
		return fmt.Errorf("observation %s: month/day %d/%d disagree with date", o.Key(), o.Month, o.Day)
	}
	return nil
}
