package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"regioniq/internal/observations"
	"regioniq/internal/observations/handler"
	"regioniq/internal/store"
	dErrors "regioniq/pkg/domain-errors"
)

type estimateResult struct {
	EstimatedRecords int  `json:"estimated_records"`
	MaxRecords       int  `json:"max_records"`
	Limit            int  `json:"limit"`
	Cursor           *int `json:"cursor,omitempty"`
}

func newEstimateCmd() *cobra.Command {
	policy := observations.DefaultCostPolicy()

	cmd := &cobra.Command{
		Use:   "estimate <query.json>",
		Short: "Validate a query and estimate its record count",
		Long: "Reads a query request body (or a bare query array) from a file, or stdin when the path is '-', " +
			"and applies the same validation and cost gate the API applies before touching the store.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			req, err := decodeRequest(raw)
			if err != nil {
				return err
			}

			cfg := observations.DefaultConfig(observations.Lifecycle{})
			cfg.Cost = policy
			engine := observations.New(store.Unconfigured{Reason: "offline estimate"}, cfg)
			estimated, err := engine.Check(req.Query)
			if err != nil {
				return err
			}

			res := estimateResult{
				EstimatedRecords: estimated,
				MaxRecords:       policy.MaxRecords,
				Limit:            *req.Limit,
				Cursor:           req.Cursor,
			}
			out := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				return printJSON(out, res)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "ESTIMATED RECORDS\t%d\n", res.EstimatedRecords)
			fmt.Fprintf(tw, "MAX RECORDS\t%d\n", res.MaxRecords)
			fmt.Fprintf(tw, "LIMIT\t%d\n", res.Limit)
			if res.Cursor != nil {
				fmt.Fprintf(tw, "CURSOR\t%d\n", *res.Cursor)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&policy.MaxRecords, "max-records", policy.MaxRecords, "Estimated record ceiling")
	cmd.Flags().IntVar(&policy.WorstCaseMetrics, "worst-case-metrics", policy.WorstCaseMetrics, "Metric count assumed for an unbounded metric selection")
	cmd.Flags().IntVar(&policy.WorstCaseRegions, "worst-case-regions", policy.WorstCaseRegions, "Region count assumed for an unbounded region selection")
	cmd.Flags().IntVar(&policy.WorstCaseYears, "worst-case-years", policy.WorstCaseYears, "Year count assumed when time_period is absent")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query: %w", err)
	}
	return data, nil
}

// decodeRequest accepts a full request body or a bare query array.
func decodeRequest(raw []byte) (*handler.QueryRequest, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		raw = append(append([]byte(`{"query":`), raw...), '}')
	}
	var req handler.QueryRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "Invalid request payload.")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
