package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/retainhq/retain/internal/config"
	"github.com/retainhq/retain/internal/database"
	"github.com/retainhq/retain/internal/domain"
	"github.com/retainhq/retain/internal/export"
	"github.com/retainhq/retain/internal/store"
)

// exportPageSize matches the store's maximum query limit.
const exportPageSize = 500

type exportFlags struct {
	out       string
	format    string
	columns   []string
	segment   string
	search    string
	industry  []string
	healthMin int
	healthMax int
	arrMin    float64
	arrMax    float64
	sortField string
	direction string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render customers to a CSV or PDF file",
		Long: `Export reads the database directly, so it works without a running
server. The record set comes either from a saved segment (--segment) or
from the filter flags; the two cannot be combined.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "output file (default customers.<format>)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "csv", "output format: csv or pdf")
	cmd.Flags().StringSliceVar(&flags.columns, "columns", nil, "columns to export, in order (default all)")
	cmd.Flags().StringVar(&flags.segment, "segment", "", "export a saved segment by ID")
	cmd.Flags().StringVar(&flags.search, "search", "", "match names and industries")
	cmd.Flags().StringSliceVar(&flags.industry, "industry", nil, "restrict to industries (repeatable)")
	cmd.Flags().IntVar(&flags.healthMin, "health-min", -1, "minimum health score")
	cmd.Flags().IntVar(&flags.healthMax, "health-max", -1, "maximum health score")
	cmd.Flags().Float64Var(&flags.arrMin, "arr-min", -1, "minimum ARR")
	cmd.Flags().Float64Var(&flags.arrMax, "arr-max", -1, "maximum ARR")
	cmd.Flags().StringVar(&flags.sortField, "sort", string(domain.SortByName), "sort column")
	cmd.Flags().StringVar(&flags.direction, "direction", "asc", "sort direction: asc or desc")

	return cmd
}

func runExport(ctx context.Context, flags exportFlags) error {
	if flags.format != "csv" && flags.format != "pdf" {
		return fmt.Errorf("unknown format %q (want csv or pdf)", flags.format)
	}
	columns := flags.columns
	if len(columns) == 0 {
		columns = domain.ExportFields
	}
	for _, col := range columns {
		if !domain.ValidExportField(col) {
			return fmt.Errorf("unknown column %q (known: %s)", col, strings.Join(domain.ExportFields, ", "))
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	s := store.New(db)

	q, title, err := exportQuery(ctx, s, flags)
	if err != nil {
		return err
	}

	records, err := gatherAll(ctx, s, q)
	if err != nil {
		return fmt.Errorf("query customers: %w", err)
	}

	rows := make([][]string, 0, len(records))
	for _, c := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i], err = domain.FieldValue(*c, col)
			if err != nil {
				return err
			}
		}
		rows = append(rows, row)
	}

	var data []byte
	if flags.format == "pdf" {
		data, err = export.PDF(title, columns, rows)
	} else {
		data, err = export.CSV(columns, rows)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", flags.format, err)
	}

	out := flags.out
	if out == "" {
		out = "customers." + flags.format
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	slog.Info("exported customers", "records", len(rows), "file", out)
	return nil
}

// exportQuery builds the customer query from a saved segment or from the
// filter flags, plus a document title for PDF output.
func exportQuery(ctx context.Context, s *store.Store, flags exportFlags) (domain.Query, string, error) {
	if flags.segment != "" {
		if filtersSet(flags) {
			return domain.Query{}, "", fmt.Errorf("--segment cannot be combined with filter flags")
		}
		seg, err := s.Segments.Get(ctx, flags.segment)
		if err != nil {
			return domain.Query{}, "", fmt.Errorf("load segment %s: %w", flags.segment, err)
		}
		return domain.Query{Filter: seg.Filter, Sort: seg.Sort}, seg.Name, nil
	}

	filter := domain.Filter{
		Search:     flags.search,
		Industries: flags.industry,
	}
	if flags.healthMin >= 0 {
		filter.HealthMin = &flags.healthMin
	}
	if flags.healthMax >= 0 {
		filter.HealthMax = &flags.healthMax
	}
	if flags.arrMin >= 0 {
		filter.ARRMin = &flags.arrMin
	}
	if flags.arrMax >= 0 {
		filter.ARRMax = &flags.arrMax
	}

	var direction string
	switch strings.ToLower(flags.direction) {
	case "asc", "ascending":
		direction = domain.Ascending
	case "desc", "descending":
		direction = domain.Descending
	default:
		return domain.Query{}, "", fmt.Errorf("invalid direction %q (want asc or desc)", flags.direction)
	}
	sort := domain.Sort{Field: domain.SortField(flags.sortField), Direction: direction}
	if err := sort.Validate(); err != nil {
		return domain.Query{}, "", err
	}

	return domain.Query{Filter: filter, Sort: sort}, "Customer export", nil
}

func filtersSet(flags exportFlags) bool {
	return flags.search != "" || len(flags.industry) > 0 ||
		flags.healthMin >= 0 || flags.healthMax >= 0 ||
		flags.arrMin >= 0 || flags.arrMax >= 0
}

// gatherAll pages through the query until the whole filtered set is in
// memory, since a single query is capped at the store's maximum limit.
func gatherAll(ctx context.Context, s *store.Store, q domain.Query) ([]*domain.Customer, error) {
	q.Limit = exportPageSize
	q.Offset = 0

	var records []*domain.Customer
	for {
		page, err := s.Customers.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Results...)
		if len(records) >= page.Total || len(page.Results) == 0 {
			return records, nil
		}
		q.Offset += len(page.Results)
	}
}
