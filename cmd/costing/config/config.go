// Package config assembles component configurations from CLI flags and the
// optional config file.
package config

import (
	"fmt"

	"order-costing-service/internal/classify"
	"order-costing-service/internal/provider"
	"order-costing-service/internal/reporter"

	"github.com/spf13/viper"
)

// CreateKeywordConfig builds the classification keyword tables: the built-in
// defaults, extended by any "keywords.<role>" lists in the config file. Extra
// keywords are appended, never replacing the defaults, so a partial override
// cannot silently disable a role.
func CreateKeywordConfig() (*classify.KeywordConfig, error) {
	keywords := classify.DefaultKeywordConfig()

	for role := range keywords.Keywords {
		key := fmt.Sprintf("keywords.%s", role)
		if extra := viper.GetStringSlice(key); len(extra) > 0 {
			keywords.Keywords[role] = append(keywords.Keywords[role], extra...)
		}
	}

	if err := keywords.Validate(); err != nil {
		return nil, fmt.Errorf("invalid keyword config: %w", err)
	}
	return keywords, nil
}

// CreateProviderConfig builds the dataset loader configuration.
func CreateProviderConfig(delimiter string, noHeader bool) (*provider.Config, error) {
	config := provider.DefaultConfig()

	if delimiter != "" {
		runes := []rune(delimiter)
		if len(runes) != 1 {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
		}
		config.Delimiter = runes[0]
	}
	config.HasHeader = !noHeader

	return config, nil
}

// CreateReportConfig builds the report configuration for the given output
// format.
func CreateReportConfig(format string) (*reporter.Config, error) {
	config := reporter.DefaultConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
	case "xlsx":
		config.Format = reporter.FormatXLSX
	default:
		return nil, fmt.Errorf("invalid output format %q, valid formats: console, json, csv, xlsx", format)
	}

	return config, nil
}
