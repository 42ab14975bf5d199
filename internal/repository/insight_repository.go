package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Oliverpt-1/Thymos/internal/database"
	"github.com/Oliverpt-1/Thymos/internal/models"
)

// PostgresInsightRepository implements InsightRepository for PostgreSQL
type PostgresInsightRepository struct {
	db *database.DB
}

// NewPostgresInsightRepository creates a new insight repository
func NewPostgresInsightRepository(db *database.DB) InsightRepository {
	return &PostgresInsightRepository{db: db}
}

// InsertBatch bulk-inserts a generated batch inside one transaction.
// Concurrent batches for the same owner are additive; nothing is overwritten.
func (r *PostgresInsightRepository) InsertBatch(ctx context.Context, batch []models.Insight) error {
	if len(batch) == 0 {
		return nil
	}

	query := `
		INSERT INTO insights (id, owner, insight_type, title, content, severity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, insight := range batch {
			_, err := tx.Exec(ctx, query,
				insight.ID, insight.Owner, insight.Type, insight.Title,
				insight.Content, insight.Severity, insight.CreatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert insight batch: %w", err)
	}

	return nil
}

// GetByOwner retrieves the owner's stored insights, newest first
func (r *PostgresInsightRepository) GetByOwner(ctx context.Context, owner string, limit int) ([]models.Insight, error) {
	query := `
		SELECT id, owner, insight_type, title, content, severity, created_at
		FROM insights
		WHERE owner = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	var batch []models.Insight
	for rows.Next() {
		var insight models.Insight
		err := rows.Scan(
			&insight.ID, &insight.Owner, &insight.Type, &insight.Title,
			&insight.Content, &insight.Severity, &insight.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		batch = append(batch, insight)
	}

	return batch, rows.Err()
}

// DeleteOlderThan removes insights created before the cutoff, returning the
// number of rows pruned. Used by the retention sweep.
func (r *PostgresInsightRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	commandTag, err := r.db.GetPool().Exec(ctx, `DELETE FROM insights WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune insights: %w", err)
	}
	return commandTag.RowsAffected(), nil
}
