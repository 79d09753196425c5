package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pergola-quoter/internal/export"
)

var (
	exportOut   string
	exportItems []string
)

var exportCmd = &cobra.Command{
	Use:   "export [order text]",
	Short: "Price an order and write the quote as an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := quoteFrom(cmd, args, exportItems)
		if err != nil {
			return err
		}
		b, err := export.NewService(nil).QuoteXLSX(res)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := os.WriteFile(exportOut, b, 0o644); err != nil {
			return err
		}
		renderResult(cmd.OutOrStdout(), res)
		fmt.Fprintf(cmd.OutOrStdout(), "written %s\n", exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "nabidka.xlsx", "output workbook")
	exportCmd.Flags().StringArrayVarP(&exportItems, "item", "i", nil, "explicit item, repeatable")
	rootCmd.AddCommand(exportCmd)
}
