package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/vinyltrader/internal/api/request"
	"github.com/mcoot/vinyltrader/internal/api/response"
)

func newMarketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Store listings and prices",
	}

	cmd.AddCommand(newMarketListingsCmd())
	cmd.AddCommand(newMarketQuoteCmd())

	return cmd
}

func newMarketListingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listings <game-id> <store-id>",
		Short: "Show what a store has in its crates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.Listing

			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/v1/games/%s/stores/%s/listings", args[0], args[1]), &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
}

func newMarketQuoteCmd() *cobra.Command {
	var side string

	cmd := &cobra.Command{
		Use:   "quote <store-id> <product-id> <condition>",
		Short: "Price one copy without trading",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := cfg.RequirePlayer()
			if err != nil {
				return err
			}

			req := request.QuoteRequest{
				PlayerID:  playerID,
				StoreID:   args[0],
				ProductID: args[1],
				Condition: args[2],
				Side:      side,
			}
			var result response.Quote

			if err := client.Post(cmd.Context(), "/api/v1/quotes", req, &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&side, "side", "buy", "Quote side: buy or sell")
	return cmd
}
