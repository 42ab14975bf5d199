package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Oliverpt-1/Thymos/internal/database"
	"github.com/Oliverpt-1/Thymos/internal/models"
)

// PostgresTradeRepository implements TradeRepository for PostgreSQL
type PostgresTradeRepository struct {
	db *database.DB
}

// NewPostgresTradeRepository creates a new trade repository
func NewPostgresTradeRepository(db *database.DB) TradeRepository {
	return &PostgresTradeRepository{db: db}
}

const tradeColumns = `id, owner, ticker, entry_price, exit_price, size, confidence,
	       setup_tag, emotion_tag, notes, trade_date, created_at, updated_at`

// Create inserts a new trade
func (r *PostgresTradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	query := `
		INSERT INTO trades (id, owner, ticker, entry_price, exit_price, size, confidence,
		                    setup_tag, emotion_tag, notes, trade_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		trade.ID, trade.Owner, trade.Ticker, trade.EntryPrice, trade.ExitPrice, trade.Size,
		trade.Confidence, trade.SetupTag, trade.EmotionTag, trade.Notes, trade.TradeDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	return nil
}

// GetByID retrieves one of the owner's trades by ID
func (r *PostgresTradeRepository) GetByID(ctx context.Context, owner string, id uuid.UUID) (*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE owner = $1 AND id = $2`

	trade := &models.Trade{}
	err := r.db.GetPool().QueryRow(ctx, query, owner, id).Scan(
		&trade.ID, &trade.Owner, &trade.Ticker, &trade.EntryPrice, &trade.ExitPrice, &trade.Size,
		&trade.Confidence, &trade.SetupTag, &trade.EmotionTag, &trade.Notes, &trade.TradeDate,
		&trade.CreatedAt, &trade.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	return trade, nil
}

// GetByOwner retrieves all of an owner's trades ordered by trade date
// ascending, the order the aggregator expects
func (r *PostgresTradeRepository) GetByOwner(ctx context.Context, owner string) ([]*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE owner = $1 ORDER BY trade_date ASC, created_at ASC`

	rows, err := r.db.GetPool().Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		trade := &models.Trade{}
		err := rows.Scan(
			&trade.ID, &trade.Owner, &trade.Ticker, &trade.EntryPrice, &trade.ExitPrice, &trade.Size,
			&trade.Confidence, &trade.SetupTag, &trade.EmotionTag, &trade.Notes, &trade.TradeDate,
			&trade.CreatedAt, &trade.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	return trades, rows.Err()
}

// Update updates an existing trade owned by the caller
func (r *PostgresTradeRepository) Update(ctx context.Context, trade *models.Trade) error {
	query := `
		UPDATE trades SET
			ticker = $3, entry_price = $4, exit_price = $5, size = $6, confidence = $7,
			setup_tag = $8, emotion_tag = $9, notes = $10, trade_date = $11, updated_at = NOW()
		WHERE owner = $1 AND id = $2
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query,
		trade.Owner, trade.ID, trade.Ticker, trade.EntryPrice, trade.ExitPrice, trade.Size,
		trade.Confidence, trade.SetupTag, trade.EmotionTag, trade.Notes, trade.TradeDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes one of the owner's trades
func (r *PostgresTradeRepository) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	commandTag, err := r.db.GetPool().Exec(ctx, `DELETE FROM trades WHERE owner = $1 AND id = $2`, owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
