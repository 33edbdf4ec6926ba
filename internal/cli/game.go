package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/vinyltrader/internal/api/request"
	"github.com/mcoot/vinyltrader/internal/api/response"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameJoinCmd())
	cmd.AddCommand(newGameStartCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameLeaveCmd())
	cmd.AddCommand(newGameStandingsCmd())

	return cmd
}

func newGameCreateCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "create <display-name>",
		Short: "Create a game and join it as host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.CreateGameRequest{DisplayName: args[0], MaxHours: hours}
			var result response.CreateGameResponse

			if err := client.Post(cmd.Context(), "/api/v1/games", req, &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 0, "Game length in hours (default from server rules)")
	return cmd
}

func newGameJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <game-id> <display-name>",
		Short: "Join a game",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.JoinGameRequest{DisplayName: args[1]}
			var result response.Player

			if err := client.Post(cmd.Context(), fmt.Sprintf("/api/v1/games/%s/players", args[0]), req, &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
}

func newGameStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <game-id>",
		Short: "Start the game (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := cfg.RequirePlayer()
			if err != nil {
				return err
			}

			req := request.StartGameRequest{PlayerID: playerID}
			var result response.Game

			if err := client.Post(cmd.Context(), fmt.Sprintf("/api/v1/games/%s/start", args[0]), req, &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id>",
		Short: "Show a game and its players",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.GameOverview

			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/v1/games/%s", args[0]), &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
}

func newGameLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <game-id>",
		Short: "Leave a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := cfg.RequirePlayer()
			if err != nil {
				return err
			}

			var result response.TurnResult

			if err := client.Delete(cmd.Context(), fmt.Sprintf("/api/v1/games/%s/players/%s", args[0], playerID), &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
}

func newGameStandingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "standings <game-id>",
		Short: "Rank players by net worth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.Standing

			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/v1/games/%s/standings", args[0]), &result); err != nil {
				return err
			}

			NewOutput(cmd).Print(result)
			return nil
		},
	}
}
