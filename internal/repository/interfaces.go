package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Oliverpt-1/Thymos/internal/models"
)

// TradeRepository defines the interface for trade data access. Every
// operation is filtered by the owning user: one trader can never read or
// mutate another's journal.
type TradeRepository interface {
	Create(ctx context.Context, trade *models.Trade) error
	GetByID(ctx context.Context, owner string, id uuid.UUID) (*models.Trade, error)
	GetByOwner(ctx context.Context, owner string) ([]*models.Trade, error)
	Update(ctx context.Context, trade *models.Trade) error
	Delete(ctx context.Context, owner string, id uuid.UUID) error
}

// InsightRepository defines the interface for insight data access. Insights
// are immutable: there is no update operation, regeneration inserts a new
// batch.
type InsightRepository interface {
	InsertBatch(ctx context.Context, batch []models.Insight) error
	GetByOwner(ctx context.Context, owner string, limit int) ([]models.Insight, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
