package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pergola-quoter/internal/export"
)

var catalogXLSX string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the loaded products and their price axes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat := stack.Catalog.Current()
		renderCatalog(cmd.OutOrStdout(), cat)
		if catalogXLSX == "" {
			return nil
		}
		b, err := export.NewService(nil).CatalogXLSX(cat)
		if err != nil {
			return fmt.Errorf("export catalog: %w", err)
		}
		if err := os.WriteFile(catalogXLSX, b, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "written %s\n", catalogXLSX)
		return nil
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogXLSX, "xlsx", "", "also write the price matrices to this workbook")
	rootCmd.AddCommand(catalogCmd)
}
