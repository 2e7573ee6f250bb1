// Command genmock writes a deterministic synthetic year of district
// air-quality readings in the layout of the city export, including the
// city-wide aggregate rows, blank cells and sensor errors the cleaner has to
// drop.
//
// Usage:
//
//	go run ./cmd/genmock --out data/mock/서울대기오염_2019.csv --year 2019 --seed 7
//	go run ./cmd/genmock --out data/mock/서울대기오염_2019.xlsx
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

type cli struct {
	Out  string `help:"Output path; .xlsx writes a workbook, anything else CSV." default:"data/mock/서울대기오염_2019.csv"`
	Year int    `help:"Calendar year to generate." default:"2019"`
	Seed uint64 `help:"Random seed." default:"7"`
}

func main() {
	var c cli
	kong.Parse(&c, kong.Name("genmock"), kong.Description("Generate a synthetic district air-quality export."))

	if err := run(c); err != nil {
		log.Fatal(err)
	}
}

func run(c cli) error {
	records, stats := generate(c.Year, c.Seed)

	if err := os.MkdirAll(filepath.Dir(c.Out), 0o755); err != nil {
		return err
	}

	var err error
	if strings.EqualFold(filepath.Ext(c.Out), ".xlsx") {
		err = writeXLSX(c.Out, records)
	} else {
		err = writeCSV(c.Out, records)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", c.Out, err)
	}

	log.Printf("wrote %s: %d rows", c.Out, len(records)-1)
	log.Printf("valid: %d, aggregate: %d, blank: %d, out of range: %d, bad date: %d",
		stats.valid, stats.aggregate, stats.blank, stats.outOfRange, stats.badDate)
	return nil
}

func writeCSV(path string, records [][]string) error {
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return df.Err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := df.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeXLSX(path string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
