package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mcoot/vinyltrader/internal/api/request"
	"github.com/mcoot/vinyltrader/internal/api/response"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player actions (acting player from --player or VINYL_PLAYER)",
	}

	cmd.AddCommand(newPlayerGetCmd())
	cmd.AddCommand(newPlayerBuyCmd())
	cmd.AddCommand(newPlayerSellCmd())
	cmd.AddCommand(newPlayerTravelCmd())
	cmd.AddCommand(newPlayerEndTurnCmd())
	cmd.AddCommand(newPlayerLoanCmd("borrow", "Borrow cash"))
	cmd.AddCommand(newPlayerLoanCmd("repay", "Repay part of the loan"))

	return cmd
}

// playerPath builds /api/v1/players/{id}/suffix for the acting player
func playerPath(suffix string) (string, error) {
	playerID, err := cfg.RequirePlayer()
	if err != nil {
		return "", err
	}
	if suffix == "" {
		return fmt.Sprintf("/api/v1/players/%s", playerID), nil
	}
	return fmt.Sprintf("/api/v1/players/%s/%s", playerID, suffix), nil
}

func parseExpected(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func newPlayerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show cash, location, crate and actions left",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := playerPath("")
			if err != nil {
				return err
			}

			var result response.PlayerState

			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
}

func newPlayerBuyCmd() *cobra.Command {
	var expect string
	var allowOverflow bool

	cmd := &cobra.Command{
		Use:   "buy <store-id> <product-id> <condition>",
		Short: "Buy one copy",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := playerPath("buy")
			if err != nil {
				return err
			}
			expected, err := parseExpected(expect)
			if err != nil {
				return err
			}

			req := request.BuyRequest{
				StoreID:       args[0],
				ProductID:     args[1],
				Condition:     args[2],
				ExpectedPrice: expected,
				AllowOverflow: allowOverflow,
			}
			var result response.BuyResponse

			if err := client.Post(cmd.Context(), path, req, &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&expect, "expect", "", "Refuse unless the price is exactly this")
	cmd.Flags().BoolVar(&allowOverflow, "allow-overflow", false, "Borrow actions from the next hour if needed")
	return cmd
}

func newPlayerSellCmd() *cobra.Command {
	var expect string
	var allowOverflow bool

	cmd := &cobra.Command{
		Use:   "sell <item-id> <store-id>",
		Short: "Sell one copy from your crate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := playerPath("sell")
			if err != nil {
				return err
			}
			expected, err := parseExpected(expect)
			if err != nil {
				return err
			}

			req := request.SellRequest{
				ItemID:        args[0],
				StoreID:       args[1],
				ExpectedPrice: expected,
				AllowOverflow: allowOverflow,
			}
			var result response.SellResponse

			if err := client.Post(cmd.Context(), path, req, &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&expect, "expect", "", "Refuse unless the price is exactly this")
	cmd.Flags().BoolVar(&allowOverflow, "allow-overflow", false, "Borrow actions from the next hour if needed")
	return cmd
}

func newPlayerTravelCmd() *cobra.Command {
	var allowOverflow bool

	cmd := &cobra.Command{
		Use:   "travel <region-id>",
		Short: "Travel to another borough",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := playerPath("travel")
			if err != nil {
				return err
			}

			req := request.TravelRequest{RegionID: args[0], AllowOverflow: allowOverflow}
			var result response.TravelResponse

			if err := client.Post(cmd.Context(), path, req, &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&allowOverflow, "allow-overflow", false, "Borrow actions from the next hour if needed")
	return cmd
}

func newPlayerEndTurnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end-turn",
		Short: "Finish your hour",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := playerPath("end-turn")
			if err != nil {
				return err
			}

			var result response.TurnResult

			if err := client.Post(cmd.Context(), path, nil, &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
}

func newPlayerLoanCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <amount>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := playerPath("loan/" + action)
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}

			req := request.LoanRequest{Amount: amount}
			var result response.Player

			if err := client.Post(cmd.Context(), path, req, &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
}
