package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/pipeline"
)

var (
	flagExportOut    string
	flagExportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all entries as CSV or an Excel workbook",
	Example: "  stakeledger export > ledger.csv\n" +
		"  stakeledger export --out ledger.xlsx",
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Write to this file instead of stdout")
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "", "csv or xlsx (default from --out extension, else csv)")
	rootCmd.AddCommand(exportCmd)
}

func exportFormat() (string, error) {
	format := strings.ToLower(flagExportFormat)
	if format == "" {
		format = "csv"
		if strings.EqualFold(filepath.Ext(flagExportOut), ".xlsx") {
			format = "xlsx"
		}
	}
	switch format {
	case "csv":
		return format, nil
	case "xlsx":
		if flagExportOut == "" {
			return "", fmt.Errorf("xlsx export needs --out")
		}
		return format, nil
	}
	return "", fmt.Errorf("unknown export format %q", flagExportFormat)
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, err := exportFormat()
	if err != nil {
		return err
	}

	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	rows := pipeline.ExportRows(l.State())
	write := writeCSV
	if format == "xlsx" {
		write = writeXLSX
	}

	if flagExportOut == "" {
		return write(cmd.OutOrStdout(), rows)
	}

	//nolint:gosec // export path is chosen by the local user
	f, err := os.OpenFile(flagExportOut, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := writeAndClose(f, func(w io.Writer) error { return write(w, rows) }); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  Exported %d entries to %s\n", len(rows), flagExportOut)
	return nil
}

// writeAndClose runs write against wc and closes it. A failed Close is
// reported since buffered data may not have reached disk.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, rows []model.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(pipeline.ExportHeaders); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(pipeline.Record(r)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

const xlsxSheet = "Ledger"

func writeXLSX(w io.Writer, rows []model.ExportRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(pipeline.ExportHeaders))
	for i, h := range pipeline.ExportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing xlsx header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.Date,
			r.Venue,
			r.Spent.InexactFloat64(),
			r.Won.InexactFloat64(),
			r.Net.InexactFloat64(),
			r.Currency,
			r.Notes,
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("writing xlsx row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}
