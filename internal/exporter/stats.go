package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"itemliquidity/internal/config"
	"itemliquidity/pkg/contracts/domain"
)

// StatsSheet is the worksheet name of XLSX reports
const StatsSheet = "Stats"

// StatsHeaders are the report columns, in order
var StatsHeaders = []string{"Item", "SKU", "AvgPrice7D", "AvgVolume7D", "VolPerDay7D", "Liquidity"}

// ReportOptions selects the rows of a stats report
type ReportOptions struct {
	MinLiquidity float64
	Limit        int // 0 means all
}

// StatsExporter writes stats reports ranked by liquidity
type StatsExporter struct {
	csvWriter *CSVWriter
	paths     *config.Paths
	logger    *slog.Logger
}

// NewStatsExporter creates a new stats report exporter
func NewStatsExporter(paths *config.Paths, logger *slog.Logger) *StatsExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsExporter{
		csvWriter: NewCSVWriter(paths),
		paths:     paths,
		logger:    logger.With(slog.String("component", "stats_exporter")),
	}
}

// SelectEntries ranks the stats and applies the report options
func SelectEntries(stats domain.StatsSet, opts ReportOptions) []domain.StatsEntry {
	entries := stats.Filter(opts.MinLiquidity).Ranked()
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	return entries
}

// StatsRecords renders entries as CSV records
func StatsRecords(entries []domain.StatsEntry) [][]string {
	records := make([][]string, 0, len(entries))
	for _, e := range entries {
		records = append(records, []string{
			e.Key,
			e.SKU,
			formatFloat(e.AvgPrice7D),
			formatFloat(e.AvgVolume7D),
			formatFloat(e.VolPerDay7D),
			formatScore(e.Liquidity),
		})
	}
	return records
}

// ExportCSV writes the report as CSV and returns the file path
func (e *StatsExporter) ExportCSV(stats domain.StatsSet, filename string, opts ReportOptions) (string, error) {
	entries := SelectEntries(stats, opts)
	path, err := e.csvWriter.WriteSimpleCSV(filename, StatsHeaders, StatsRecords(entries))
	if err != nil {
		return "", fmt.Errorf("export csv: %w", err)
	}

	e.logger.Info("Stats report written",
		slog.String("format", "csv"),
		slog.String("path", path),
		slog.Int("items", len(entries)))
	return path, nil
}

// ExportXLSX writes the report as an Excel workbook and returns the file path
func (e *StatsExporter) ExportXLSX(stats domain.StatsSet, filename string, opts ReportOptions) (string, error) {
	path := filename
	if !filepath.IsAbs(path) && e.paths != nil {
		path = e.paths.GetReportPath(filename)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	entries := SelectEntries(stats, opts)

	f := excelize.NewFile()
	defer f.Close()

	if err := writeStatsSheet(f, entries); err != nil {
		return "", fmt.Errorf("export xlsx: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info("Stats report written",
		slog.String("format", "xlsx"),
		slog.String("path", path),
		slog.Int("items", len(entries)))
	return path, nil
}

func writeStatsSheet(f *excelize.File, entries []domain.StatsEntry) error {
	if err := f.SetSheetName("Sheet1", StatsSheet); err != nil {
		return err
	}

	header := make([]interface{}, len(StatsHeaders))
	for i, h := range StatsHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(StatsSheet, "A1", &header); err != nil {
		return err
	}

	for i, entry := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{entry.Key, entry.SKU, entry.AvgPrice7D, entry.AvgVolume7D, entry.VolPerDay7D, entry.Liquidity}
		if err := f.SetSheetRow(StatsSheet, cell, &row); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(StatsSheet, "A1", "F1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(StatsSheet, "A", "A", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(StatsSheet, "B", "F", 14); err != nil {
		return err
	}

	// Header row stays visible while scrolling
	return f.SetPanes(StatsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
