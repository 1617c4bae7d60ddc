package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xvierd/keeper/internal/domain"
	"github.com/xvierd/keeper/internal/ports"
)

// phaseRepository implements ports.PhaseRepository using SQLite.
type phaseRepository struct {
	db *sql.DB
}

// newPhaseRepository creates a new phase repository.
func newPhaseRepository(db *sql.DB) ports.PhaseRepository {
	return &phaseRepository{db: db}
}

// Record appends a finished phase to the log.
func (r *phaseRepository) Record(ctx context.Context, record *domain.PhaseRecord) error {
	query := `
		INSERT INTO phases (id, mode, duration_seconds, completed_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		string(record.Mode),
		record.DurationSeconds,
		record.CompletedAt.UnixMilli(),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("phase %s already recorded", record.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to record phase: %w", err)
	}

	return nil
}

// FindRecent retrieves phases completed at or after since, newest first.
func (r *phaseRepository) FindRecent(ctx context.Context, since time.Time) ([]*domain.PhaseRecord, error) {
	query := `
		SELECT id, mode, duration_seconds, completed_at
		FROM phases
		WHERE completed_at >= ?
		ORDER BY completed_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query recent phases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.PhaseRecord
	for rows.Next() {
		var (
			rec         domain.PhaseRecord
			mode        string
			completedAt int64
		)
		if err := rows.Scan(&rec.ID, &mode, &rec.DurationSeconds, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan phase: %w", err)
		}
		rec.Mode = domain.Mode(mode)
		rec.CompletedAt = time.UnixMilli(completedAt)
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// GetDailyStats returns aggregated statistics for a specific date.
func (r *phaseRepository) GetDailyStats(ctx context.Context, date time.Time) (*domain.DailyStats, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	query := `
		SELECT
			COUNT(CASE WHEN mode = ? THEN 1 END) AS pomodoros,
			COUNT(CASE WHEN mode = ? THEN 1 END) AS short_breaks,
			COUNT(CASE WHEN mode = ? THEN 1 END) AS long_breaks,
			COALESCE(SUM(CASE WHEN mode = ? THEN duration_seconds END), 0) AS work_seconds
		FROM phases
		WHERE completed_at >= ? AND completed_at < ?
	`

	stats := &domain.DailyStats{
		Date: startOfDay,
	}

	var workSeconds int64
	err := r.db.QueryRowContext(ctx, query,
		string(domain.ModePomodoro),
		string(domain.ModeShortBreak),
		string(domain.ModeLongBreak),
		string(domain.ModePomodoro),
		startOfDay.UnixMilli(),
		endOfDay.UnixMilli(),
	).Scan(
		&stats.Pomodoros,
		&stats.ShortBreaks,
		&stats.LongBreaks,
		&workSeconds,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}

	stats.TotalWorkTime = time.Duration(workSeconds) * time.Second

	return stats, nil
}
