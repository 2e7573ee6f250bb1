// Command validate reloads a cleaned output table and checks it against the
// guarantees the pipeline makes: exact column set, every row inside the
// valid PM10 range with no missing fields, month/day/season agreeing with the
// date, and no aggregate rows. With --source it also re-cleans the source
// table and checks that output and source agree row for row.
//
// Usage:
//
//	go run ./cmd/validate --output 201906_output.csv --source 서울대기오염_2019.csv
package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/alecthomas/kong"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/tabular"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
)

type cli struct {
	Output   string `help:"Cleaned output CSV to check." default:"201906_output.csv"`
	Source   string `help:"Source table to reconcile against (optional)."`
	Encoding string `help:"Source encoding." enum:"utf-8,euc-kr" default:"utf-8"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	var c cli
	kong.Parse(&c, kong.Name("validate"), kong.Description("Check a cleaned air-quality table."))
	os.Exit(run(c))
}

func run(c cli) int {
	fmt.Println("=== Air Quality Output Validation ===")
	fmt.Println()

	obs, header, err := tabular.ReadObservations(c.Output)
	phases := []*phase{validateColumns(header)}
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load output: %v\n", err)
		if header == nil {
			return 1
		}
		phases[0].errorf("reload: %v", err)
		return report(phases, 0)
	}

	phases = append(phases, validateRows(obs))

	if c.Source != "" {
		readings, err := cleanSource(c.Source, c.Encoding)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load source: %v\n", err)
			return 1
		}
		phases = append(phases, validateReconciliation(obs, readings))
	}

	return report(phases, len(obs))
}

func report(phases []*phase, rows int) int {
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d\n", rows)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func cleanSource(path, encoding string) ([]domain.Reading, error) {
	if encoding == "" {
		encoding = config.EncodingUTF8
	}
	df, err := tabular.NewLoader(path, encoding).Load()
	if err != nil {
		return nil, err
	}
	readings, _, err := pipeline.Clean(df)
	return readings, err
}

// ── Phase 1: Columns ──

func validateColumns(header []string) *phase {
	p := &phase{name: "Phase 1: Output columns"}
	if !slices.Equal(header, domain.OutputColumns) {
		p.errorf("header = %v, want %v", header, domain.OutputColumns)
	}
	return p
}

// ── Phase 2: Row invariants ──

func validateRows(obs []domain.Observation) *phase {
	p := &phase{name: "Phase 2: Row invariants"}
	for i, o := range obs {
		line := i + 2
		if err := o.Validate(); err != nil {
			p.errorf("line %d: %v", line, err)
		}
		if domain.IsAggregate(domain.RawRecord{Date: o.Date.Format(domain.DateLayout), District: o.District}) {
			p.errorf("line %d: aggregate row %q", line, o.District)
		}
	}
	return p
}

// ── Phase 3: Source reconciliation ──

func validateReconciliation(obs []domain.Observation, readings []domain.Reading) *phase {
	p := &phase{name: "Phase 3: Source reconciliation"}
	if len(obs) != len(readings) {
		p.errorf("output has %d rows, cleaned source has %d", len(obs), len(readings))
		return p
	}
	for i, r := range readings {
		want := domain.Derive(r)
		got := obs[i]
		if got.Key() != want.Key() {
			p.errorf("line %d: key %s, source %s", i+2, got.Key(), want.Key())
			continue
		}
		if got.PM10 != want.PM10 || got.PM25 != want.PM25 {
			p.errorf("line %d: pm10/pm25 %g/%g, source %g/%g", i+2, got.PM10, got.PM25, want.PM10, want.PM25)
		}
		if got.Season != want.Season || got.Month != want.Month || got.Day != want.Day {
			p.errorf("line %d: derived columns differ from source", i+2)
		}
	}
	return p
}
