package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PromotionDecision is the audit row written for every processed event.
type PromotionDecision struct {
	DecisionID      uuid.UUID      `gorm:"type:uuid;primaryKey" json:"decision_id"`
	ProductID       string         `gorm:"type:varchar(64);index" json:"product_id"`
	InputEvent      datatypes.JSON `gorm:"type:jsonb" json:"input_event"`
	UpliftScore     float64        `gorm:"not null" json:"uplift_score"`
	Candidates      datatypes.JSON `gorm:"type:jsonb" json:"candidates"`
	ChosenCandidate datatypes.JSON `gorm:"type:jsonb" json:"chosen_candidate"`
	Presentation    datatypes.JSON `gorm:"type:jsonb" json:"presentation"`
	Outcome         Outcome        `gorm:"type:varchar(20);index;not null" json:"outcome"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
}

// TableName pins the audit table name.
func (PromotionDecision) TableName() string { return "promotion_decisions" }

// Product is the read model used for partner lookups.
type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string    `json:"name"`
	Price         float64   `gorm:"type:numeric" json:"price"`
	TrendingScore float64   `gorm:"type:numeric" json:"trending_score"`
	CategoryID    *string   `gorm:"type:uuid" json:"category_id"`
	Views         int64     `json:"views"`
}

func (Product) TableName() string { return "products" }
