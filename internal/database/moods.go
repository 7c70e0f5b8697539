package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/mood"
	"github.com/google/uuid"
)

// DefaultMoodHistoryLimit bounds GetByUserID when no limit is given.
const DefaultMoodHistoryLimit = 50

// MoodRepository handles mood entry database operations
type MoodRepository struct {
	db *DB
}

// NewMoodRepository creates a new mood repository
func NewMoodRepository(db *DB) *MoodRepository {
	return &MoodRepository{db: db}
}

func nullEnergy(level int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(level), Valid: level > 0}
}

// Create stores a mood entry. The label is always derived from the score.
func (r *MoodRepository) Create(ctx context.Context, entry *models.MoodEntry) error {
	query := `
		INSERT INTO mood_entries (id, user_id, score, label, energy_level, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.Label = mood.Label(entry.Score)

	err := r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Score,
		entry.Label,
		nullEnergy(entry.EnergyLevel),
		entry.Notes,
		entry.CreatedAt,
	).Scan(&entry.CreatedAt)
	return translateError(err, "failed to create mood entry")
}

// GetByUserID returns up to limit entries, newest first.
func (r *MoodRepository) GetByUserID(ctx context.Context, userID string, limit int) ([]models.MoodEntry, error) {
	if limit <= 0 {
		limit = DefaultMoodHistoryLimit
	}
	query := `
		SELECT id, user_id, score, label, energy_level, notes, created_at
		FROM mood_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query mood entries: %w", err)
	}
	defer rows.Close()

	entries := []models.MoodEntry{}
	for rows.Next() {
		var e models.MoodEntry
		var energy sql.NullInt64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Score, &e.Label, &energy, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mood entry: %w", err)
		}
		if energy.Valid {
			e.EnergyLevel = int(energy.Int64)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mood entries: %w", err)
	}
	return entries, nil
}

// Update applies an explicit edit to a mood entry.
func (r *MoodRepository) Update(ctx context.Context, entry *models.MoodEntry) error {
	query := `
		UPDATE mood_entries
		SET score = $3, label = $4, energy_level = $5, notes = $6
		WHERE id = $1 AND user_id = $2
		RETURNING created_at
	`
	entry.Label = mood.Label(entry.Score)
	err := r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Score,
		entry.Label,
		nullEnergy(entry.EnergyLevel),
		entry.Notes,
	).Scan(&entry.CreatedAt)
	return translateError(err, "failed to update mood entry")
}

// Delete deletes a mood entry
func (r *MoodRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM mood_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete mood entry: %w", err)
	}
	return requireAffected(result, "mood entry")
}
