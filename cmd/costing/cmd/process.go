package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"order-costing-service/cmd/costing/config"
	"order-costing-service/internal/pipeline"
	"order-costing-service/internal/provider"
	"order-costing-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the process command
var (
	catalogFile  string
	ordersFile   string
	shops        []string
	outputFormat string
	outputFile   string
	delimiter    string
	noHeader     bool
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Reconcile an order ledger against a product catalog",
	Long: `Process cleans the order ledger, matches rows to catalog entries over
inferred SKU columns, computes unit cost, total cost, profit and margin,
deduplicates the result and reports summary statistics.

This command requires:
- A product catalog file (CSV or XLSX)
- An order ledger file (CSV or XLSX)

Examples:
  # Basic processing with a console summary
  costing process --catalog-file catalog.xlsx --orders-file orders.xlsx

  # Restrict to selected shops, write the analysis record as JSON
  costing process --catalog-file catalog.csv --orders-file orders.csv \
    --shops "Shop A,Shop B" --output-format json --output-file analysis.json

  # Export the processed dataset as an XLSX workbook
  costing process --catalog-file catalog.xlsx --orders-file orders.xlsx \
    --output-format xlsx --output-file processed.xlsx`,

	PreRunE: validateProcessFlags,
	RunE:    runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	// Required flags
	processCmd.Flags().StringVarP(&catalogFile, "catalog-file", "c", "", "path to product catalog file (required)")
	processCmd.Flags().StringVarP(&ordersFile, "orders-file", "i", "", "path to order ledger file (required)")

	// Filtering flags
	processCmd.Flags().StringSliceVar(&shops, "shops", []string{}, "comma-separated shop names to include (default: all)")

	// Output flags
	processCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv, xlsx")
	processCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout; required for xlsx)")

	// Input parsing flags
	processCmd.Flags().StringVar(&delimiter, "delimiter", "", "CSV field delimiter (default: comma)")
	processCmd.Flags().BoolVar(&noHeader, "no-header", false, "input files have no header row")

	// Mark required flags
	processCmd.MarkFlagRequired("catalog-file")
	processCmd.MarkFlagRequired("orders-file")

	// Bind flags to viper
	viper.BindPFlag("catalog-file", processCmd.Flags().Lookup("catalog-file"))
	viper.BindPFlag("orders-file", processCmd.Flags().Lookup("orders-file"))
	viper.BindPFlag("shops", processCmd.Flags().Lookup("shops"))
	viper.BindPFlag("output-format", processCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", processCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("delimiter", processCmd.Flags().Lookup("delimiter"))
	viper.BindPFlag("no-header", processCmd.Flags().Lookup("no-header"))
}

func validateProcessFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	catalogFile = viper.GetString("catalog-file")
	ordersFile = viper.GetString("orders-file")
	shops = viper.GetStringSlice("shops")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	delimiter = viper.GetString("delimiter")
	noHeader = viper.GetBool("no-header")

	if catalogFile == "" {
		return fmt.Errorf("catalog-file is required")
	}
	if ordersFile == "" {
		return fmt.Errorf("orders-file is required")
	}

	if err := validateFileExists(catalogFile, "catalog file"); err != nil {
		return err
	}
	if err := validateFileExists(ordersFile, "orders file"); err != nil {
		return err
	}

	if _, err := config.CreateReportConfig(outputFormat); err != nil {
		return err
	}

	if outputFormat == "xlsx" && outputFile == "" {
		return fmt.Errorf("output-file is required for xlsx output")
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Catalog file: %s\n", catalogFile)
		fmt.Fprintf(os.Stderr, "Orders file: %s\n", ordersFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
	}

	keywords, err := config.CreateKeywordConfig()
	if err != nil {
		return err
	}

	providerConfig, err := config.CreateProviderConfig(delimiter, noHeader)
	if err != nil {
		return err
	}

	catalog, err := provider.LoadCatalogFile(catalogFile, providerConfig, keywords)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	orders, err := provider.LoadFile(ordersFile, providerConfig)
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}

	processor := pipeline.NewProcessor(keywords)
	result := processor.Run(&pipeline.Request{
		Catalog:       catalog,
		Orders:        orders,
		SelectedShops: shops,
	})

	reportConfig, err := config.CreateReportConfig(outputFormat)
	if err != nil {
		return err
	}
	generator, err := reporter.NewGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	if outputFormat == "xlsx" {
		return generator.ExportXLSX(result.Processed, result.Analysis, outputFile)
	}

	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := generator.Generate(result.Processed, result.Analysis, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") && result.Analysis.ProcessingInfo != nil {
		info := result.Analysis.ProcessingInfo
		fmt.Fprintf(os.Stderr, "\nProcessed %d of %d order rows (%d matched).\n",
			info.CleanedRows, info.OriginalRows, info.MatchedRows)
	}

	return nil
}
