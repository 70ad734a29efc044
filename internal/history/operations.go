package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ibp/labeld/internal/render"
)

const OutcomeRejected = "rejected"

func (s *Store) RecordOutcome(ctx context.Context, jobID string, label render.Label, outcome string, attempts int, errMsg string) error {
	_, err := s.db.ExecContext(ctx, insertEntry,
		jobID, label.PackageID, label.InmateID, outcome, attempts, errMsg)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// RecordRejected logs a request refused at the boundary. Rejected payloads
// may be arbitrarily malformed, so only a best-effort package ID is kept.
func (s *Store) RecordRejected(ctx context.Context, packageID, reason string) error {
	_, err := s.db.ExecContext(ctx, insertEntry,
		"", packageID, "", OutcomeRejected, 0, reason)
	if err != nil {
		return fmt.Errorf("failed to insert rejection entry: %w", err)
	}
	return nil
}

func (s *Store) ListOutcomes(ctx context.Context, filter Filter) ([]Entry, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	query := selectEntries
	args := []any{}
	if filter.Outcome != "" {
		query += " WHERE outcome = ?"
		args = append(args, filter.Outcome)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.JobID, &e.PackageID, &e.InmateID,
			&e.Outcome, &e.Attempts, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query   string
		outcome string
		dest    *int64
	}{
		{countByOutcomeToday, "printed", &stats.TodayPrinted},
		{countByOutcomeToday, "dropped", &stats.TodayDropped},
		{countByOutcomeToday, OutcomeRejected, &stats.TodayRejected},
		{countByOutcome, "printed", &stats.TotalPrinted},
		{countByOutcome, "dropped", &stats.TotalDropped},
		{countByOutcome, OutcomeRejected, &stats.TotalRejected},
	}

	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.outcome).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s jobs: %w", c.outcome, err)
		}
	}

	return stats, nil
}

// GetSetting returns "" without error when the key does not exist.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, selectSetting, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, upsertSetting, key, value); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}
