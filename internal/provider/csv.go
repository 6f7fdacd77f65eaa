package provider

import (
	"encoding/csv"
	"io"
	"os"
	"unicode/utf8"

	"order-costing-service/internal/dataset"
	"order-costing-service/pkg/errors"
	"order-costing-service/pkg/logger"
)

// CSVLoader loads comma-separated (or custom-delimited) files.
type CSVLoader struct {
	config *Config
	logger logger.Logger
}

// NewCSVLoader creates a CSVLoader. A nil config selects the defaults.
func NewCSVLoader(config *Config) *CSVLoader {
	if config == nil {
		config = DefaultConfig()
	}
	return &CSVLoader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("csv_loader"),
	}
}

// Load reads the whole file into a dataset. The file handle is released on
// every path; a failed load never yields a partial dataset.
func (l *CSVLoader) Load(path string) (*dataset.Dataset, error) {
	l.logger.WithField("path", path).Debug("Loading CSV file")

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = l.config.Delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidFormat, path, err)
		}
		for _, field := range record {
			if !utf8.ValidString(field) {
				return nil, errors.ParseError(errors.CodeEncodingError, path, nil)
			}
		}
		records = append(records, record)
	}

	df, err := buildDataset(records, l.config)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, err)
	}

	l.logger.WithFields(logger.Fields{
		"path":    path,
		"rows":    df.NumRows(),
		"columns": df.NumColumns(),
	}).Info("Loaded CSV file")
	return df, nil
}
