// Package tabular reads the source export into a dataframe and writes the
// cleaned observation table back out.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// Loader reads a source table from disk.
// It implements pipeline.Extractor.
type Loader struct {
	path     string
	encoding string
}

// NewLoader creates a Loader for a .csv or .xlsx file. encoding applies to
// CSV input only; spreadsheets are always UTF-8 internally.
func NewLoader(path, encoding string) *Loader {
	return &Loader{path: path, encoding: encoding}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.path }

// Load reads the whole file into a dataframe with every column typed as
// string. Rows are not validated; ragged rows are padded or truncated to the
// header width.
func (l *Loader) Load() (dataframe.DataFrame, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(l.path)
	default:
		rows, err = readCSV(l.path, l.encoding)
	}
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return toDataFrame(rows)
}

func readCSV(path, encoding string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(decoder(f, encoding))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return rows, nil
}

// decoder wraps r so it yields UTF-8. A leading UTF-8 BOM is dropped.
func decoder(r io.Reader, encoding string) io.Reader {
	if strings.EqualFold(encoding, config.EncodingEUCKR) {
		return transform.NewReader(r, korean.EUCKR.NewDecoder())
	}
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// readXLSX returns the formatted cell values of the first sheet.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func toDataFrame(rows [][]string) (dataframe.DataFrame, error) {
	if len(rows) == 0 {
		return dataframe.DataFrame{}, errors.New("input has no header row")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	records := make([][]string, 0, len(rows))
	records = append(records, header)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		records = append(records, fitRow(row, len(header)))
	}

	if len(records) == 1 {
		return emptyFrame(header), nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("build dataframe: %w", df.Err)
	}
	return df, nil
}

// emptyFrame builds a zero-row dataframe carrying the given headers.
func emptyFrame(header []string) dataframe.DataFrame {
	cols := make([]series.Series, len(header))
	for i, name := range header {
		cols[i] = series.New([]string{}, series.String, name)
	}
	return dataframe.New(cols...)
}

func fitRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// RequireColumns checks that df carries every header in want.
func RequireColumns(df dataframe.DataFrame, want []string) error {
	return domain.RequireColumns(df.Names(), want)
}
