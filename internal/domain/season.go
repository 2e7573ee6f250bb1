package domain

import "time"

// Season is a three-month calendar bucket.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
	Winter Season = "winter"
)

// Seasons lists every season in calendar display order.
var Seasons = []Season{Spring, Summer, Fall, Winter}

// seasonTable maps months to seasons. Months not listed fall to Winter.
var seasonTable = []struct {
	season Season
	months []time.Month
}{
	{Spring, []time.Month{time.March, time.April, time.May}},
	{Summer, []time.Month{time.June, time.July, time.August}},
	{Fall, []time.Month{time.September, time.October, time.November}},
}

// SeasonOf returns the season of a month. Total over all inputs: anything
// outside the spring/summer/fall months is Winter.
func SeasonOf(m time.Month) Season {
	for _, row := range seasonTable {
		for _, month := range row.months {
			if month == m {
				return row.season
			}
		}
	}
	return Winter
}

// Index returns the display position of s, or len(Seasons) if unknown.
func (s Season) Index() int {
	for i, v := range Seasons {
		if v == s {
			return i
		}
	}
	return len(Seasons)
}
