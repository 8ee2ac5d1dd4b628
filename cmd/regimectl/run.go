package main

import (
	"RegimeNews/internal/domain/models"

	"github.com/spf13/cobra"
)

func runCmd(g *globalFlags) *cobra.Command {
	var req models.RunRequest
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fit regimes for a ticker and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			g.nRegimes = req.NRegimes
			if g.strict && !cmd.Flags().Changed("n_regimes") {
				g.nRegimes = 3
			}
			req.NRegimes = 0

			r, cleanup, err := g.runners()
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := r.Pipeline.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	addRunFlags(cmd, &req, 4)
	return cmd
}

func addRunFlags(cmd *cobra.Command, req *models.RunRequest, defaultK int) {
	f := cmd.Flags()
	f.StringVar(&req.Ticker, "ticker", "", "ticker symbol")
	f.StringVar(&req.Start, "start", "2015-01-01", "history start date (YYYY-MM-DD)")
	f.StringVar(&req.End, "end", "", "history end date (YYYY-MM-DD), empty for today")
	f.BoolVar(&req.Offline, "offline", false, "use cached prices only")
	f.IntVar(&req.NRegimes, "n_regimes", defaultK, "number of regimes")
	_ = cmd.MarkFlagRequired("ticker")
}
