package services

import (
	"context"
	"log/slog"

	"itemliquidity/internal/infrastructure"
)

// Helper functions for scan logging using centralized infrastructure logger

// logItemError logs a per-item failure of the scan pipeline
func logItemError(ctx context.Context, logger *slog.Logger, action, message string, attrs ...slog.Attr) {
	if logger == nil {
		logger = infrastructure.LoggerWithContext(ctx)
	}

	// Add standard attributes
	allAttrs := []slog.Attr{
		slog.String("component", "scan_service"),
		slog.String("action", action),
	}

	allAttrs = append(allAttrs, attrs...)

	logger.LogAttrs(ctx, slog.LevelError, message, allAttrs...)
}
