package main

import (
	"RegimeNews/internal/domain/models"
	"RegimeNews/pkg/util"

	"github.com/spf13/cobra"
)

func overlayCmd(g *globalFlags) *cobra.Command {
	var (
		req     models.OverlayRequest
		symbols string
	)
	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Run the pipeline with the event risk overlay and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			g.nRegimes = req.NRegimes
			req.NRegimes = 0
			req.Symbols = util.SplitList(symbols)

			r, cleanup, err := g.runners()
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := r.Overlay.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	addRunFlags(cmd, &req.RunRequest, 3)
	f := cmd.Flags()
	f.StringVar(&symbols, "symbols", "", "comma-separated portfolio symbols")
	f.StringVar(&req.WindowStart, "window_start", "", "event window start (YYYY-MM-DD)")
	f.StringVar(&req.WindowEnd, "window_end", "", "event window end (YYYY-MM-DD)")
	f.IntVar(&req.Importance, "macro_importance", 0, "only macro events with this importance (1-3)")
	return cmd
}
