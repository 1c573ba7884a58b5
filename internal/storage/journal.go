package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/micro-ha/netstate/internal/model"
	"github.com/micro-ha/netstate/internal/pkg/utils"
)

const defaultRecentLimit = 50

// Append stores one transition.
func (j *Journal) Append(ctx context.Context, transition model.Transition) error {
	if j.closed.Load() {
		return ErrJournalClosed
	}
	payload, err := json.Marshal(transition.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	recordedAt := transition.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = utils.NowUTC()
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO state_transitions (id, recorded_at, connection_type, is_connected, delivered, result_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		transition.ID,
		utils.FormatTimestamp(recordedAt),
		string(transition.Result.Type),
		transition.Result.IsConnected,
		transition.Delivered,
		string(payload),
	)
	if utils.IsUniqueConstraintError(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateTransition, transition.ID)
	}
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// Recent returns up to limit transitions, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]model.Transition, error) {
	if j.closed.Load() {
		return nil, ErrJournalClosed
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, recorded_at, delivered, result_json
		FROM state_transitions
		ORDER BY seq DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.Transition, 0, limit)
	for rows.Next() {
		var (
			item       model.Transition
			recordedAt string
			payload    string
		)
		if err := rows.Scan(&item.ID, &recordedAt, &item.Delivered, &payload); err != nil {
			return nil, err
		}
		item.RecordedAt = utils.ParseTimestamp(recordedAt)
		if err := json.Unmarshal([]byte(payload), &item.Result); err != nil {
			j.logger.Warn("skipping undecodable journal row", "id", item.ID, "err", err)
			continue
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// Prune keeps the newest keep rows and returns how many were removed.
func (j *Journal) Prune(ctx context.Context, keep int) (int64, error) {
	if j.closed.Load() {
		return 0, ErrJournalClosed
	}
	if keep < 0 {
		keep = 0
	}
	res, err := j.db.ExecContext(ctx, `
		DELETE FROM state_transitions
		WHERE seq NOT IN (SELECT seq FROM state_transitions ORDER BY seq DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune transitions: %w", err)
	}
	removed, _ := res.RowsAffected()
	if removed > 0 {
		j.logger.Debug("pruned journal", "rows", removed, "kept", keep)
	}
	return removed, nil
}
