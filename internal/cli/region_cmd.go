package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"regioniq/internal/geo"
)

type regionView struct {
	Input    string `json:"input"`
	Internal string `json:"internal"`
	Public   string `json:"public"`
	Level    string `json:"level"`
	Table    string `json:"table"`
}

func newRegionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "region <code>...",
		Short: "Translate region codes between vocabularies",
		Long:  "Prints the store code, public code, level and store view for each region code.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views := make([]regionView, 0, len(args))
			for _, code := range args {
				internal := geo.ToInternal(geo.Normalize(code))
				level := geo.InferLevel(internal)
				views = append(views, regionView{
					Input:    code,
					Internal: internal,
					Public:   geo.ToPublic(internal),
					Level:    level.String(),
					Table:    level.Table(),
				})
			}

			out := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				return printJSON(out, views)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INPUT\tINTERNAL\tPUBLIC\tLEVEL\tTABLE")
			for _, v := range views {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.Input, v.Internal, v.Public, v.Level, v.Table)
			}
			return tw.Flush()
		},
	}
}
