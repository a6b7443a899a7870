// Package store persists OffsetReport run history to SQLite via gorm.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vhs-sync/timecode/pkg/vhs"
)

// Store is the persistence surface pkg/vhssync depends on.
type Store interface {
	SaveReport(report vhs.OffsetReport, sourceLabel string) (runID string, err error)
	ListRuns() ([]RunSummary, error)
	GetRun(runID string) (RunDetail, error)
	Close() error
}

// RunSummary is one row of run history, without the full match list.
type RunSummary struct {
	RunID           string
	SourceLabel     string
	CreatedAt       time.Time
	MeanOffset      float64
	StdDev          float64
	MatchCount      int
	MeanConfidence  float64
	OutliersTrimmed int
}

// RunDetail is one persisted run's full report.
type RunDetail struct {
	RunSummary
	Report vhs.OffsetReport
}

// runRow is the gorm model for a persisted analysis run.
type runRow struct {
	ID              string `gorm:"primaryKey;type:varchar(36)"`
	SourceLabel     string `gorm:"index:idx_run_source"`
	CreatedAt       time.Time
	MeanOffset      float64
	StdDev          float64
	MinOffset       float64
	MaxOffset       float64
	MatchCount      int
	MeanConfidence  float64
	OutliersTrimmed int
}

// matchRow is one OffsetMatch belonging to a run.
type matchRow struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	RunID            string `gorm:"type:varchar(36);index:idx_match_run"`
	FrameID          uint32
	VideoTimeSeconds float64
	AudioTimeSeconds float64
	OffsetSeconds    float64
	Confidence       float64
}

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (and migrates) a SQLite-backed Store at dbPath.
func NewSQLiteStore(dbPath string) (Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.AutoMigrate(&runRow{}, &matchRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) SaveReport(report vhs.OffsetReport, sourceLabel string) (string, error) {
	runID := uuid.NewString()

	row := runRow{
		ID:              runID,
		SourceLabel:     sourceLabel,
		MeanOffset:      report.MeanOffset,
		StdDev:          report.StdDev,
		MinOffset:       report.MinOffset,
		MaxOffset:       report.MaxOffset,
		MatchCount:      report.MatchCount,
		MeanConfidence:  report.MeanConfidence,
		OutliersTrimmed: report.OutliersTrimmed,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("creating run: %w", err)
		}

		matches := make([]matchRow, len(report.PerMatch))
		for i, m := range report.PerMatch {
			matches[i] = matchRow{
				RunID:            runID,
				FrameID:          m.FrameID,
				VideoTimeSeconds: m.VideoTimeSeconds,
				AudioTimeSeconds: m.AudioTimeSeconds,
				OffsetSeconds:    m.OffsetSeconds,
				Confidence:       m.Confidence,
			}
		}
		if len(matches) > 0 {
			if err := tx.CreateInBatches(matches, 500).Error; err != nil {
				return fmt.Errorf("creating matches: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return runID, nil
}

func (s *sqliteStore) ListRuns() ([]RunSummary, error) {
	var rows []runRow
	if err := s.db.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	out := make([]RunSummary, len(rows))
	for i, r := range rows {
		out[i] = summaryFromRow(r)
	}
	return out, nil
}

func (s *sqliteStore) GetRun(runID string) (RunDetail, error) {
	var row runRow
	if err := s.db.First(&row, "id = ?", runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RunDetail{}, fmt.Errorf("run %s not found", runID)
		}
		return RunDetail{}, fmt.Errorf("fetching run: %w", err)
	}

	var matches []matchRow
	if err := s.db.Where("run_id = ?", runID).Find(&matches).Error; err != nil {
		return RunDetail{}, fmt.Errorf("fetching matches: %w", err)
	}

	perMatch := make([]vhs.OffsetMatch, len(matches))
	for i, m := range matches {
		perMatch[i] = vhs.OffsetMatch{
			FrameID:          m.FrameID,
			VideoTimeSeconds: m.VideoTimeSeconds,
			AudioTimeSeconds: m.AudioTimeSeconds,
			OffsetSeconds:    m.OffsetSeconds,
			Confidence:       m.Confidence,
		}
	}

	return RunDetail{
		RunSummary: summaryFromRow(row),
		Report: vhs.OffsetReport{
			MeanOffset:      row.MeanOffset,
			StdDev:          row.StdDev,
			MinOffset:       row.MinOffset,
			MaxOffset:       row.MaxOffset,
			MatchCount:      row.MatchCount,
			MeanConfidence:  row.MeanConfidence,
			OutliersTrimmed: row.OutliersTrimmed,
			PerMatch:        perMatch,
		},
	}, nil
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func summaryFromRow(r runRow) RunSummary {
	return RunSummary{
		RunID:           r.ID,
		SourceLabel:     r.SourceLabel,
		CreatedAt:       r.CreatedAt,
		MeanOffset:      r.MeanOffset,
		StdDev:          r.StdDev,
		MatchCount:      r.MatchCount,
		MeanConfidence:  r.MeanConfidence,
		OutliersTrimmed: r.OutliersTrimmed,
	}
}
