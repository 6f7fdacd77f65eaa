// Package provider loads tabular datasets from concrete file formats.
//
// The core pipeline consumes abstract datasets; this package is the
// tabular-data provider collaborator, turning CSV and XLSX files into
// dataset values. Cells load as text (empty cells as null); numeric
// coercion is a downstream concern because inbound schemas are not
// guaranteed.
package provider

import (
	"path/filepath"
	"strconv"
	"strings"

	"order-costing-service/internal/classify"
	"order-costing-service/internal/dataset"
	"order-costing-service/pkg/errors"
)

// Loader yields a dataset from one concrete source.
type Loader interface {
	Load(path string) (*dataset.Dataset, error)
}

// Config holds options shared by the file loaders.
type Config struct {
	HasHeader bool
	Delimiter rune
	TrimCells bool
}

// DefaultConfig returns comma-delimited parsing with a header row.
func DefaultConfig() *Config {
	return &Config{
		HasHeader: true,
		Delimiter: ',',
		TrimCells: true,
	}
}

// LoadFile dispatches on the file extension. CSV and XLSX are supported;
// anything else is a parse error, not a panic or a guess.
func LoadFile(path string, config *Config) (*dataset.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVLoader(config).Load(path)
	case ".xlsx", ".xlsm":
		return NewExcelLoader(config).Load(path)
	default:
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, nil)
	}
}

// LoadCatalogFile loads a catalog table and strips header-echo rows: some
// marketplace exports repeat the header line inside the data, leaving rows
// whose SKU cell holds the column name itself.
func LoadCatalogFile(path string, config *Config, keywords *classify.KeywordConfig) (*dataset.Dataset, error) {
	df, err := LoadFile(path, config)
	if err != nil {
		return nil, err
	}
	return DropHeaderEchoes(df, keywords), nil
}

// DropHeaderEchoes removes rows whose first SKU-classified cell equals its
// own column name.
func DropHeaderEchoes(df *dataset.Dataset, keywords *classify.KeywordConfig) *dataset.Dataset {
	column, ok := classify.Classify(df.Columns(), keywords).First(classify.RoleSKU)
	if !ok {
		return df
	}
	return df.Filter(func(row int) bool {
		return strings.TrimSpace(df.Value(row, column).Text()) != column
	})
}

// buildDataset assembles a dataset from raw string records. The first record
// supplies column names when hasHeader is set; otherwise columns are named
// column_1..column_N. Ragged records are padded with nulls; empty cells load
// as null.
func buildDataset(records [][]string, config *Config) (*dataset.Dataset, error) {
	if len(records) == 0 {
		return dataset.Empty(), nil
	}

	width := 0
	for _, record := range records {
		if len(record) > width {
			width = len(record)
		}
	}

	var columns []string
	body := records
	if config.HasHeader {
		columns = headerNames(records[0], width, config)
		body = records[1:]
	} else {
		for i := 0; i < width; i++ {
			columns = append(columns, syntheticName(i))
		}
	}

	df, err := dataset.New(columns)
	if err != nil {
		return nil, err
	}

	for _, record := range body {
		cells := make([]dataset.Value, width)
		for i := 0; i < width; i++ {
			var raw string
			if i < len(record) {
				raw = record[i]
			}
			if config.TrimCells {
				raw = strings.TrimSpace(raw)
			}
			if raw == "" {
				cells[i] = dataset.Null()
			} else {
				cells[i] = dataset.String(raw)
			}
		}
		if err := df.AppendRow(cells); err != nil {
			return nil, err
		}
	}
	return df, nil
}

// headerNames cleans the header record, filling blanks with synthetic names
// and uniquifying duplicates so the dataset constructor accepts them. The
// first occurrence of a name keeps it; later occurrences get a counted
// suffix that skips names already taken, so a literal "a_2" next to two
// "a" columns survives untouched (header "a, a, a_2").
func headerNames(header []string, width int, config *Config) []string {
	cleaned := make([]string, width)
	firstAt := make(map[string]int, width)
	used := make(map[string]bool, width)
	for i := 0; i < width; i++ {
		var name string
		if i < len(header) {
			name = header[i]
		}
		if config.TrimCells {
			name = strings.TrimSpace(name)
		}
		if name == "" {
			name = syntheticName(i)
		}
		cleaned[i] = name
		if _, ok := firstAt[name]; !ok {
			firstAt[name] = i
			used[name] = true
		}
	}

	names := make([]string, 0, width)
	for i, name := range cleaned {
		if firstAt[name] != i {
			base := name
			for suffix := 2; ; suffix++ {
				name = base + "_" + strconv.Itoa(suffix)
				if !used[name] {
					break
				}
			}
			used[name] = true
		}
		names = append(names, name)
	}
	return names
}

func syntheticName(i int) string {
	return "column_" + strconv.Itoa(i+1)
}
