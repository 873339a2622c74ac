package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/classroom-monitor/internal/attention"
	"github.com/kozaktomas/classroom-monitor/internal/database"
	"github.com/lib/pq"
)

// SummaryRepository provides PostgreSQL-backed storage for finished sessions
type SummaryRepository struct {
	pool *Pool
	now  func() time.Time
}

// NewSummaryRepository creates a new PostgreSQL summary repository
func NewSummaryRepository(pool *Pool) *SummaryRepository {
	return &SummaryRepository{pool: pool, now: time.Now}
}

var _ database.SummaryStore = (*SummaryRepository)(nil)

const summaryColumns = `
	id, session_id, reason, started_at, stopped_at, session_duration,
	total_warnings, focused_frame_count, face_detected_count,
	no_face_count, look_away_count, archived_at`

// SaveSummary stores a summary and its warnings in one transaction
func (r *SummaryRepository) SaveSummary(ctx context.Context, summary attention.Summary, reason string) (*database.ArchivedSummary, error) {
	archived := &database.ArchivedSummary{
		ID:         uuid.New(),
		Reason:     reason,
		ArchivedAt: r.now().UTC(),
		Summary:    summary,
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attention_sessions (`+summaryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		archived.ID,
		summary.SessionID,
		reason,
		summary.StartedAt,
		summary.StoppedAt,
		summary.SessionDuration,
		summary.TotalWarnings,
		summary.FocusedFrameCount,
		summary.FaceFrameCount,
		summary.NoFaceStreakFinal,
		summary.LookAwayStreakFinal,
		archived.ArchivedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert summary: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attention_warnings (summary_id, position, type, severity, message, occurred_at, closure_duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare warning insert: %w", err)
	}
	defer stmt.Close()

	for i, w := range summary.Warnings {
		if _, err := stmt.ExecContext(ctx, archived.ID, i, string(w.Type), string(w.Severity), w.Message, w.Timestamp, w.ClosureDuration); err != nil {
			return nil, fmt.Errorf("insert warning %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit summary: %w", err)
	}
	return archived, nil
}

// ListSummaries returns the newest archived summaries with their warnings
func (r *SummaryRepository) ListSummaries(ctx context.Context, limit int) ([]database.ArchivedSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `SELECT `+summaryColumns+`
		FROM attention_sessions
		ORDER BY archived_at DESC, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []database.ArchivedSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}

	if err := r.attachWarnings(ctx, summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetSummary retrieves a single archived summary by its archive ID
func (r *SummaryRepository) GetSummary(ctx context.Context, id uuid.UUID) (*database.ArchivedSummary, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+summaryColumns+` FROM attention_sessions WHERE id = $1`, id)
	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	list := []database.ArchivedSummary{*s}
	if err := r.attachWarnings(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*database.ArchivedSummary, error) {
	var s database.ArchivedSummary
	err := row.Scan(
		&s.ID,
		&s.SessionID,
		&s.Reason,
		&s.StartedAt,
		&s.StoppedAt,
		&s.SessionDuration,
		&s.TotalWarnings,
		&s.FocusedFrameCount,
		&s.FaceFrameCount,
		&s.NoFaceStreakFinal,
		&s.LookAwayStreakFinal,
		&s.ArchivedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan summary: %w", err)
	}
	s.Warnings = []attention.Warning{}
	s.WarningCounts = map[attention.WarningType]int{}
	return &s, nil
}

// attachWarnings loads the warnings of all given summaries in a single query
// and rebuilds their per-type counts.
func (r *SummaryRepository) attachWarnings(ctx context.Context, summaries []database.ArchivedSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	ids := make([]string, len(summaries))
	index := make(map[uuid.UUID]int, len(summaries))
	for i, s := range summaries {
		ids[i] = s.ID.String()
		index[s.ID] = i
	}

	rows, err := r.pool.Query(ctx, `
		SELECT summary_id, type, severity, message, occurred_at, closure_duration
		FROM attention_warnings
		WHERE summary_id = ANY($1::uuid[])
		ORDER BY summary_id, position
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load warnings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			summaryID uuid.UUID
			w         attention.Warning
		)
		if err := rows.Scan(&summaryID, &w.Type, &w.Severity, &w.Message, &w.Timestamp, &w.ClosureDuration); err != nil {
			return fmt.Errorf("scan warning: %w", err)
		}
		w.PlaySound = w.Type == attention.WarningSleepiness
		s := &summaries[index[summaryID]]
		s.Warnings = append(s.Warnings, w)
		s.WarningCounts[w.Type]++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate warnings: %w", err)
	}
	return nil
}
