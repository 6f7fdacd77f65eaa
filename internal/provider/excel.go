package provider

import (
	"github.com/xuri/excelize/v2"

	"order-costing-service/internal/dataset"
	"order-costing-service/pkg/errors"
	"order-costing-service/pkg/logger"
)

// ExcelLoader loads XLSX workbooks. Data is read from the first sheet; the
// first row supplies column names when configured.
type ExcelLoader struct {
	config *Config
	logger logger.Logger
}

// NewExcelLoader creates an ExcelLoader. A nil config selects the defaults.
func NewExcelLoader(config *Config) *ExcelLoader {
	if config == nil {
		config = DefaultConfig()
	}
	return &ExcelLoader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("excel_loader"),
	}
}

// Load reads the first sheet of the workbook into a dataset. The workbook
// handle is released on every path.
func (l *ExcelLoader) Load(path string) (*dataset.Dataset, error) {
	l.logger.WithField("path", path).Debug("Loading XLSX workbook")

	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ParseError(errors.CodeEmptySheet, path, nil)
	}

	records, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, err)
	}
	if len(records) == 0 {
		return nil, errors.ParseError(errors.CodeEmptySheet, path, nil)
	}

	df, err := buildDataset(records, l.config)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, err)
	}

	l.logger.WithFields(logger.Fields{
		"path":    path,
		"sheet":   sheets[0],
		"rows":    df.NumRows(),
		"columns": df.NumColumns(),
	}).Info("Loaded XLSX workbook")
	return df, nil
}
