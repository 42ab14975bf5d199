package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SetupTag categorizes the rationale behind entering a trade
type SetupTag string

const (
	SetupBreakout          SetupTag = "Breakout"
	SetupPullback          SetupTag = "Pullback"
	SetupSupportResistance SetupTag = "Support/Resistance"
	SetupMovingAverage     SetupTag = "Moving Average"
	SetupChartPattern      SetupTag = "Chart Pattern"
	SetupNewsEvent         SetupTag = "News Event"
	SetupEarnings          SetupTag = "Earnings"
	SetupOther             SetupTag = "Other"
)

// EmotionTag categorizes the trader's emotional state when the trade was placed
type EmotionTag string

const (
	EmotionConfident   EmotionTag = "Confident"
	EmotionNervous     EmotionTag = "Nervous"
	EmotionExcited     EmotionTag = "Excited"
	EmotionFearful     EmotionTag = "Fearful"
	EmotionGreedy      EmotionTag = "Greedy"
	EmotionCalm        EmotionTag = "Calm"
	EmotionImpulsive   EmotionTag = "Impulsive"
	EmotionDisciplined EmotionTag = "Disciplined"
)

// TagUnspecified is the bucket used when a trade carries an empty or unknown tag.
// Grouping logic must never merge untagged trades into a real category.
const TagUnspecified = "unspecified"

// Trade represents a single journaled buy/sell position with optional close-out
type Trade struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Owner      string     `db:"owner" json:"owner" validate:"required"`
	Ticker     string     `db:"ticker" json:"ticker" validate:"required,max=12"`
	EntryPrice float64    `db:"entry_price" json:"entry_price" validate:"gte=0"`
	ExitPrice  *float64   `db:"exit_price" json:"exit_price" validate:"omitempty,gte=0"` // nil means open position
	Size       float64    `db:"size" json:"size" validate:"required,gt=0"`
	Confidence int        `db:"confidence" json:"confidence" validate:"required,min=1,max=5"`
	SetupTag   string     `db:"setup_tag" json:"setup_tag"`
	EmotionTag string     `db:"emotion_tag" json:"emotion_tag"`
	Notes      string     `db:"notes" json:"notes"`
	TradeDate  time.Time  `db:"trade_date" json:"trade_date" validate:"required"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// IsClosed reports whether the position has been exited
func (t *Trade) IsClosed() bool {
	return t.ExitPrice != nil
}

// ProfitLoss returns (exit - entry) * size for a closed trade, nil while the
// position is still open.
func (t *Trade) ProfitLoss() *float64 {
	if t.ExitPrice == nil {
		return nil
	}
	pl := (*t.ExitPrice - t.EntryPrice) * t.Size
	return &pl
}

// NormalizeTag maps an empty or blank tag to the unspecified bucket
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return TagUnspecified
	}
	return tag
}
