package liquidity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"itemliquidity/pkg/contracts/domain"
)

// NewItemStats combines a score bundle and trailing averages into the published record
func NewItemStats(sku string, result Result, trailing TrailingStats) domain.ItemStats {
	return domain.ItemStats{
		SKU:         sku,
		AvgPrice7D:  trailing.AvgPrice,
		AvgVolume7D: trailing.AvgVolume,
		VolPerDay7D: trailing.VolumePerDay,
		Liquidity:   result.Liquidity,
	}
}

// EncodeStats renders the stats document as compact JSON
func EncodeStats(stats domain.StatsSet) ([]byte, error) {
	if stats == nil {
		stats = domain.StatsSet{}
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("encode stats: %w", err)
	}
	return data, nil
}

// SaveStatsJSON writes the stats document to outputPath. The file is written to a
// temporary sibling first and renamed, so readers never see a partial document.
func SaveStatsJSON(stats domain.StatsSet, outputPath string) error {
	data, err := EncodeStats(stats)
	if err != nil {
		return err
	}

	// Ensure output directory exists
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(outputPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write stats: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, outputPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace stats file: %w", err)
	}

	return nil
}

// LoadStatsJSON reads a stats document written by SaveStatsJSON
func LoadStatsJSON(path string) (domain.StatsSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stats file: %w", err)
	}

	stats := domain.StatsSet{}
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("decode stats file %s: %w", path, err)
	}
	return stats, nil
}
