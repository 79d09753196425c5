package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pergola-quoter/internal/llm"
	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
	"github.com/joseph-ayodele/pergola-quoter/internal/pipeline"
)

var priceItems []string

var priceCmd = &cobra.Command{
	Use:   "price [order text]",
	Short: "Price a free-text order or explicit items",
	Long: `Price a free-text order through the language model, or skip extraction by passing
items as --item "product;width_mm[;height_mm[;place]]".`,
	Example: `  quote price "pergola Deluxe 4,2 x 2,3 m, montáž Brno"
  quote price --item "Pergola Deluxe;4200;2300;Brno" --item "Screen;3000"`,
	RunE: runPrice,
}

func init() {
	priceCmd.Flags().StringArrayVarP(&priceItems, "item", "i", nil, "explicit item, repeatable")
	rootCmd.AddCommand(priceCmd)
}

func runPrice(cmd *cobra.Command, args []string) error {
	res, err := quoteFrom(cmd, args, priceItems)
	if err != nil {
		return err
	}
	renderResult(cmd.OutOrStdout(), res)
	return nil
}

// quoteFrom runs the explicit items when given, otherwise the joined text arguments.
func quoteFrom(cmd *cobra.Command, args, items []string) (pipeline.Result, error) {
	if len(items) > 0 {
		reqs := make([]llm.LineRequest, 0, len(items))
		for _, raw := range items {
			r, err := parseItem(raw)
			if err != nil {
				return pipeline.Result{}, err
			}
			reqs = append(reqs, r)
		}
		return stack.Processor.QuoteItems(cmd.Context(), reqs), nil
	}
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return pipeline.Result{}, fmt.Errorf("order text or --item is required")
	}
	return stack.Processor.Quote(cmd.Context(), text)
}

func parseItem(raw string) (llm.LineRequest, error) {
	parts := strings.Split(raw, ";")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		return llm.LineRequest{}, fmt.Errorf("item %q: want product;width_mm[;height_mm[;place]]", raw)
	}
	r := llm.LineRequest{Product: strings.TrimSpace(parts[0])}
	w, ok := matrix.Normalize(strings.TrimSpace(parts[1]))
	if !ok || w <= 0 {
		return llm.LineRequest{}, fmt.Errorf("item %q: width %q is not a positive number", raw, parts[1])
	}
	r.Width = w
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		h, ok := matrix.Normalize(strings.TrimSpace(parts[2]))
		if !ok || h <= 0 {
			return llm.LineRequest{}, fmt.Errorf("item %q: height %q is not a positive number", raw, parts[2])
		}
		r.Height = &h
	}
	if len(parts) > 3 {
		r.Place = strings.TrimSpace(strings.Join(parts[3:], ";"))
	}
	return r, nil
}
