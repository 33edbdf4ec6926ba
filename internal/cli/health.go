package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// HealthResult is the health response plus what the client measured
type HealthResult struct {
	Status  string `json:"status"`
	Server  string `json:"server"`
	Latency string `json:"latency"`
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up and how quickly it answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			start := time.Now()
			if err := client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}
			result.Server = cfg.ServerURL
			result.Latency = time.Since(start).Round(time.Millisecond).String()

			NewOutput(cmd).Print(result)
			return nil
		},
	}
}
