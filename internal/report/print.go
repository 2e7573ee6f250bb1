package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// Print writes the human-readable report in the pipeline's step order:
// overall mean, peak, district ranking, season means, grade shares and the
// good-share ranking.
func Print(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	p := func(format string, args ...any) {
		fmt.Fprintf(tw, format, args...)
	}

	p("Annual mean PM10: %.2f ug/m^3\n", r.MeanPM10)

	if r.Peak != nil {
		p("PM10 maximum %g ug/m^3 on %s in %s\n", r.Peak.PM10, r.Peak.Date.Format(domain.DateLayout), r.Peak.District)
	} else {
		p("PM10 maximum: no observations\n")
	}

	p("\nTop %d districts by mean PM10:\n", TopN)
	p("district\tavg_pm10\n")
	for _, d := range r.TopDistricts() {
		p("%s\t%.2f\n", d.District, d.MeanPM10)
	}

	p("\nMean PM10/PM2.5 by season:\n")
	p("season\tavg_pm10\tavg_pm25\n")
	for _, s := range r.Seasons {
		p("%s\t%.2f\t%.2f\n", s.Season, s.MeanPM10, s.MeanPM25)
	}

	p("\nPM10 grade counts and shares:\n")
	p("pm_grade\tn\tpct\n")
	for _, g := range r.Grades {
		p("%s\t%d\t%.2f\n", g.Grade, g.Count, g.Pct)
	}

	p("\nTop %d districts by good share:\n", TopN)
	p("district\tn\ttotal\tpct\n")
	for _, g := range r.TopGoodRatios() {
		p("%s\t%d\t%d\t%.2f\n", g.District, g.Good, g.Total, g.Pct)
	}

	return tw.Flush()
}
