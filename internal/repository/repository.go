package repository

import (
	"fmt"

	"github.com/Oliverpt-1/Thymos/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Trade   TradeRepository
	Insight InsightRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Trade:   NewPostgresTradeRepository(db),
		Insight: NewPostgresInsightRepository(db),
	}, nil
}
