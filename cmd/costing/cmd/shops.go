package cmd

import (
	"fmt"

	"order-costing-service/cmd/costing/config"
	"order-costing-service/internal/pipeline"
	"order-costing-service/internal/provider"

	"github.com/spf13/cobra"
)

var shopsOrdersFile string

// shopsCmd lists the distinct shop names found in an order ledger.
var shopsCmd = &cobra.Command{
	Use:   "shops",
	Short: "List the shop names present in an order ledger",
	Long: `Shops inspects an order ledger file, locates its shop column by
name inference and prints the distinct shop values it contains. Use the
result to build a --shops filter for the process command.

Example:
  costing shops --orders-file orders.xlsx`,

	PreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFileExists(shopsOrdersFile, "orders file")
	},
	RunE: runShops,
}

func init() {
	rootCmd.AddCommand(shopsCmd)

	shopsCmd.Flags().StringVarP(&shopsOrdersFile, "orders-file", "i", "", "path to order ledger file (required)")
	shopsCmd.MarkFlagRequired("orders-file")
}

func runShops(cmd *cobra.Command, args []string) error {
	keywords, err := config.CreateKeywordConfig()
	if err != nil {
		return err
	}

	providerConfig, err := config.CreateProviderConfig("", false)
	if err != nil {
		return err
	}

	orders, err := provider.LoadFile(shopsOrdersFile, providerConfig)
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}

	names := pipeline.AvailableShops(orders, keywords)
	if len(names) == 0 {
		fmt.Println("No shop column found in the order ledger.")
		return nil
	}

	fmt.Printf("Found %d shop(s):\n", len(names))
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	return nil
}
