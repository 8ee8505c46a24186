package publish

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"itemliquidity/pkg/contracts/domain"
)

// SheetHeader is the first row written to the stats sheet
var SheetHeader = []interface{}{"item", "sku", "7D_avg_price", "7D_avg_volume", "7D_vol_per_day", "liquidity"}

// NewSheetsService creates a Sheets client from a service account key file.
// Extra options are appended, so tests can point it at a local endpoint.
func NewSheetsService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*sheets.Service, error) {
	if credentialsFile != "" {
		credentialsJSON, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read sheets credentials: %w", err)
		}
		opts = append([]option.ClientOption{
			option.WithCredentialsJSON(credentialsJSON),
			option.WithScopes(sheets.SpreadsheetsScope),
		}, opts...)
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// SheetsPublisher overwrites a sheet with one row per item, ranked by liquidity
type SheetsPublisher struct {
	Service       *sheets.Service
	SpreadsheetID string
	Range         string
}

// Name implements Publisher
func (p SheetsPublisher) Name() string { return "sheets" }

// Publish implements Publisher. The whole sheet is cleared first so rows of
// items that dropped out of the catalog do not linger.
func (p SheetsPublisher) Publish(ctx context.Context, stats domain.StatsSet) error {
	if p.Service == nil {
		return fmt.Errorf("sheets publisher has no service")
	}

	_, err := p.Service.Spreadsheets.Values.
		Clear(p.SpreadsheetID, sheetName(p.Range), &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	_, err = p.Service.Spreadsheets.Values.
		Update(p.SpreadsheetID, p.Range, &sheets.ValueRange{Values: SheetRows(stats)}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet: %w", err)
	}
	return nil
}

// SheetRows renders the stats as sheet rows under SheetHeader
func SheetRows(stats domain.StatsSet) [][]interface{} {
	ranked := stats.Ranked()
	rows := make([][]interface{}, 0, len(ranked)+1)
	rows = append(rows, SheetHeader)
	for _, e := range ranked {
		rows = append(rows, []interface{}{e.Key, e.SKU, e.AvgPrice7D, e.AvgVolume7D, e.VolPerDay7D, e.Liquidity})
	}
	return rows
}

// sheetName strips the cell reference from an A1 range
func sheetName(a1 string) string {
	if i := strings.IndexByte(a1, '!'); i >= 0 {
		return a1[:i]
	}
	return a1
}
