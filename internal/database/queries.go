package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zombar/contentlens/internal/models"
)

// PageSize is the number of records per history page
const PageSize = 20

// ErrNotFound is returned when no analysis has the requested id
var ErrNotFound = errors.New("analysis not found")

// SaveAnalysis inserts an analysis or replaces the stored one with the same id
func (db *DB) SaveAnalysis(analysis *models.Analysis) error {
	reportJSON, err := json.Marshal(analysis.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	now := time.Now().UTC()
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = now
	}
	analysis.UpdatedAt = now
	if analysis.ProcessingStage == "" {
		analysis.ProcessingStage = models.StageCompleted
	}
	if analysis.Provider == "" {
		analysis.Provider = models.HeuristicProvider
	}

	_, err = db.conn.Exec(db.rebind(`
		INSERT INTO analyses (id, content, content_preview, content_type, overall_score, provider,
			report, processing_stage, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			content = excluded.content,
			content_preview = excluded.content_preview,
			content_type = excluded.content_type,
			overall_score = excluded.overall_score,
			provider = excluded.provider,
			report = excluded.report,
			processing_stage = excluded.processing_stage,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`), analysis.ID, analysis.Content, analysis.ContentPreview, string(analysis.ContentType), analysis.OverallScore,
		analysis.Provider, string(reportJSON), analysis.ProcessingStage, analysis.LastError,
		analysis.CreatedAt.UTC(), analysis.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// GetAnalysis retrieves an analysis by ID
func (db *DB) GetAnalysis(id string) (*models.Analysis, error) {
	var (
		analysis    models.Analysis
		contentType string
		reportJSON  string
	)

	err := db.conn.QueryRow(db.rebind(`
		SELECT id, content, content_preview, content_type, overall_score, provider,
			report, processing_stage, last_error, created_at, updated_at
		FROM analyses
		WHERE id = ?
	`), id).Scan(&analysis.ID, &analysis.Content, &analysis.ContentPreview, &contentType, &analysis.OverallScore,
		&analysis.Provider, &reportJSON, &analysis.ProcessingStage, &analysis.LastError,
		&analysis.CreatedAt, &analysis.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	analysis.ContentType = models.ContentType(contentType)
	if reportJSON != "" && reportJSON != "null" {
		var report models.Report
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		analysis.Report = &report
	}

	return &analysis, nil
}

// ListAnalyses returns one page of history, newest first. Records in the
// list carry the preview only, not the full content or report.
func (db *DB) ListAnalyses(page int) (*models.HistoryPage, error) {
	if page < 1 {
		page = 1
	}

	total, err := db.CountAnalyses()
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(db.rebind(`
		SELECT id, content_preview, content_type, overall_score, provider,
			processing_stage, last_error, created_at, updated_at
		FROM analyses
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`), PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	analyses := []*models.Analysis{}
	for rows.Next() {
		var (
			a           models.Analysis
			contentType string
		)
		if err := rows.Scan(&a.ID, &a.ContentPreview, &contentType, &a.OverallScore, &a.Provider,
			&a.ProcessingStage, &a.LastError, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		a.ContentType = models.ContentType(contentType)
		analyses = append(analyses, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return &models.HistoryPage{
		Analyses:   analyses,
		Total:      total,
		Page:       page,
		TotalPages: (total + PageSize - 1) / PageSize,
	}, nil
}

// CountAnalyses returns the number of stored analyses
func (db *DB) CountAnalyses() (int, error) {
	var total int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM analyses").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return total, nil
}

// DeleteAnalysis removes an analysis
func (db *DB) DeleteAnalysis(id string) error {
	result, err := db.conn.Exec(db.rebind("DELETE FROM analyses WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateStage records the processing stage and last error of an analysis
func (db *DB) UpdateStage(id, stage, lastError string) error {
	result, err := db.conn.Exec(db.rebind(`
		UPDATE analyses SET processing_stage = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`), stage, lastError, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
