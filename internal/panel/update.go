package panel

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// InfoFetcher retrieves the full details of a single panel.
type InfoFetcher interface {
	PanelInfo(ctx context.Context, panelID int) (Entry, error)
}

// UpdateStats counts what Update did.
type UpdateStats struct {
	Unchanged int
	Refreshed int
	Added     int
	Failed    int
}

// Update merges a fresh PanelApp listing into reg and returns the result;
// reg itself is not modified. Panels whose version is unchanged only get a
// new DateOfCheck. Panels with a new version are refetched, keeping the old
// entry when that fails. Panels not yet in reg are fetched and appended,
// falling back to the listing when the fetch fails.
func Update(ctx context.Context, reg *Registry, listing []Summary, fetch InfoFetcher, now time.Time, logger *zap.Logger) (*Registry, UpdateStats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	today := now.Format(DateLayout)
	entries := reg.Entries()
	index := reg.byID()

	var stats UpdateStats
	var added []Entry
	for i, s := range listing {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		logger.Debug("processing panel", zap.Int("n", i+1), zap.Int("of", len(listing)), zap.Int("panel_id", s.PanelID))

		pos, known := index[s.PanelID]
		switch {
		case known && entries[pos].Version == s.Version:
			entries[pos].DateOfCheck = today
			stats.Unchanged++

		case known:
			logger.Info("panel version changed",
				zap.Int("panel_id", s.PanelID),
				zap.String("old", entries[pos].Version),
				zap.String("new", s.Version))
			info, err := fetch.PanelInfo(ctx, s.PanelID)
			if err != nil {
				logger.Warn("failed to fetch panel info; leaving entry unchanged", zap.Int("panel_id", s.PanelID), zap.Error(err))
				stats.Failed++
				continue
			}
			e := entries[pos]
			e.Version = firstNonEmpty(info.Version, s.Version)
			e.Genes = info.Genes
			e.GeneCount = len(info.Genes)
			e.DateOfCheck = today
			entries[pos] = e
			stats.Refreshed++

		default:
			logger.Info("new panel found", zap.Int("panel_id", s.PanelID), zap.String("version", s.Version))
			e := Entry{PanelID: s.PanelID, Name: s.Name, Version: s.Version, DateOfCheck: today}
			info, err := fetch.PanelInfo(ctx, s.PanelID)
			if err != nil {
				logger.Warn("failed to fetch panel info; using listing", zap.Int("panel_id", s.PanelID), zap.Error(err))
				stats.Failed++
			} else {
				e.Name = firstNonEmpty(info.Name, s.Name)
				e.Version = firstNonEmpty(info.Version, s.Version)
				e.Genes = info.Genes
				e.GeneCount = len(info.Genes)
			}
			added = append(added, e)
			stats.Added++
		}
	}

	return NewRegistry(append(entries, added...)), stats, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Backup copies the registry file at path into a backup directory next to
// it and returns the backup path.
func Backup(path string, now time.Time) (string, error) {
	dir := filepath.Join(filepath.Dir(path), "backup")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	dest := filepath.Join(dir, fmt.Sprintf("panels_summary_%s_backup.csv", now.Format(DateLayout)))

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open registry: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("copy registry: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close backup: %w", err)
	}
	return dest, nil
}
