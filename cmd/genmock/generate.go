package main

import (
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

var districts = []string{
	"강남구", "강동구", "강북구", "강서구", "관악구", "광진구", "구로구", "금천구",
	"노원구", "도봉구", "동대문구", "동작구", "마포구", "서대문구", "서초구", "성동구",
	"성북구", "송파구", "양천구", "영등포구", "용산구", "은평구", "종로구", "중구", "중랑구",
}

// seasonBaseline is the typical PM10 level per season.
var seasonBaseline = map[domain.Season]float64{
	domain.Spring: 70,
	domain.Summer: 25,
	domain.Fall:   35,
	domain.Winter: 55,
}

var header = []string{domain.ColumnDate, domain.ColumnDistrict, "아황산가스", "일산화탄소", "오존", "이산화질소", domain.ColumnPM10, domain.ColumnPM25}

type genStats struct {
	valid, aggregate, blank, outOfRange, badDate int
}

// generate returns the export rows, header first. Each day has one row per
// district followed by a city-wide aggregate row.
func generate(year int, seed uint64) ([][]string, genStats) {
	rng := rand.New(rand.NewPCG(seed, uint64(year)))
	records := [][]string{header}
	var stats genStats

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() == year; d = d.AddDate(0, 0, 1) {
		base := seasonBaseline[domain.SeasonOf(d.Month())]
		date := d.Format(domain.DateLayout)
		var sum float64

		for _, district := range districts {
			pm10 := math.Max(3, math.Round(base+rng.NormFloat64()*base*0.45))
			pm25 := math.Max(1, math.Round(pm10*(0.45+rng.Float64()*0.2)))
			sum += pm10

			pm10Cell := fmtNum(pm10)
			dateCell := date
			switch roll := rng.Float64(); {
			case roll < 0.01:
				pm10Cell = ""
				stats.blank++
			case roll < 0.015:
				pm10Cell = fmtNum(301 + math.Round(rng.Float64()*400))
				stats.outOfRange++
			case roll < 0.017:
				dateCell = d.Format("2006") + "-13-" + d.Format("02")
				stats.badDate++
			default:
				stats.valid++
			}
			records = append(records, row(dateCell, district, pm10Cell, fmtNum(pm25), rng))
		}

		mean := math.Round(sum / float64(len(districts)))
		records = append(records, row(date, domain.AggregateMarker, fmtNum(mean), fmtNum(math.Round(mean*0.55)), rng))
		stats.aggregate++
	}
	return records, stats
}

func row(date, district, pm10, pm25 string, rng *rand.Rand) []string {
	return []string{
		date,
		district,
		strconv.FormatFloat(0.002+rng.Float64()*0.004, 'f', 3, 64),
		strconv.FormatFloat(0.3+rng.Float64()*0.6, 'f', 1, 64),
		strconv.FormatFloat(0.005+rng.Float64()*0.05, 'f', 3, 64),
		strconv.FormatFloat(0.01+rng.Float64()*0.04, 'f', 3, 64),
		pm10,
		pm25,
	}
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
