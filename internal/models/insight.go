package models

import (
	"time"

	"github.com/google/uuid"
)

// InsightType classifies what aspect of trading an insight speaks to
type InsightType string

const (
	InsightTypePerformance    InsightType = "performance"
	InsightTypePattern        InsightType = "pattern"
	InsightTypeRisk           InsightType = "risk"
	InsightTypeRecommendation InsightType = "recommendation"
)

// Severity classifies the tone of an insight
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
)

// Insight is a generated natural-language observation about trading
// performance. Insights are immutable once created; regeneration appends a
// new batch rather than mutating existing rows.
type Insight struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Owner     string      `db:"owner" json:"-"`
	Type      InsightType `db:"insight_type" json:"type"`
	Title     string      `db:"title" json:"title"`
	Content   string      `db:"content" json:"content"`
	Severity  Severity    `db:"severity" json:"severity"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// ValidType reports whether t is one of the known insight types
func ValidType(t InsightType) bool {
	switch t {
	case InsightTypePerformance, InsightTypePattern, InsightTypeRisk, InsightTypeRecommendation:
		return true
	default:
		return false
	}
}

// ValidSeverity reports whether s is one of the known severities
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeveritySuccess:
		return true
	default:
		return false
	}
}
