package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/jobkpi/internal/config"
	"github.com/AngelCh415/jobkpi/internal/ingest"
	"github.com/AngelCh415/jobkpi/internal/kpi"
	"github.com/AngelCh415/jobkpi/internal/report"
	"github.com/AngelCh415/jobkpi/internal/store"
)

type reportOptions struct {
	opportunities string
	lineItems     string
	technician    string
	week          string
	schema        string
}

func newRootCmd() *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:           "kpireport",
		Short:         "Print job KPIs from an opportunities report and a line items report",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.opportunities, "opportunities", "", "Opportunities workbook (.xlsx or .xls) (required)")
	cmd.Flags().StringVar(&opts.lineItems, "line-items", "", "Line items workbook (.xlsx or .xls) (required)")
	cmd.Flags().StringVar(&opts.technician, "technician", kpi.All, "Technician name, or all")
	cmd.Flags().StringVar(&opts.week, "week", kpi.All, "Week ID such as 2024-W05, or all")
	cmd.Flags().StringVar(&opts.schema, "schema", "", "YAML file with column aliases")

	_ = cmd.MarkFlagRequired("opportunities")
	_ = cmd.MarkFlagRequired("line-items")
	return cmd
}

func runReport(ctx context.Context, opts reportOptions) error {
	cfg := config.FromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var schemas ingest.Schemas
	if opts.schema != "" {
		s, err := ingest.LoadSchemas(opts.schema)
		if err != nil {
			return err
		}
		schemas = s
	}

	st := store.NewSessionStore()
	etl := ingest.NewETL(ingest.NewHTTPClient(cfg.HTTPTimeout), st, logger, cfg, schemas)

	inputs := []struct {
		kind ingest.Kind
		path string
	}{
		{ingest.Opportunities, opts.opportunities},
		{ingest.LineItems, opts.lineItems},
	}
	for _, in := range inputs {
		f, err := os.Open(in.path)
		if err != nil {
			return &ingest.FileReadError{Err: err}
		}
		_, err = etl.Process(ctx, f, in.kind)
		f.Close()
		if err != nil {
			return err
		}
	}

	filter := kpi.Filter{Technician: opts.technician, Week: opts.week}.Normalized()
	report.Render(os.Stdout, filter, st.Load().Dashboard(filter))
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
