package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TextChange is one annotated edit inside a correction.
type TextChange struct {
	Type        string `json:"type"` // grammar, spelling, punctuation, style
	Original    string `json:"original"`
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation"`
}

// Correction is the usage ledger row: one immutable record per successful
// correction. Quota accounting reads these rows and nothing else, so the
// count can never drift from what was actually persisted.
type Correction struct {
	ID            string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string         `gorm:"type:uuid;index;not null" json:"userId"`
	OriginalText  string         `gorm:"type:text;not null" json:"originalText"`
	CorrectedText string         `gorm:"type:text;not null" json:"correctedText"`
	Changes       datatypes.JSON `gorm:"type:jsonb" json:"changes,omitempty"`
	Language      string         `gorm:"type:varchar(10);default:'pt'" json:"language"`
	TokensUsed    int            `gorm:"default:0" json:"tokensUsed"`
	CreatedAt     time.Time      `gorm:"index" json:"createdAt"`
}

func (Correction) TableName() string {
	return "corrections"
}

// BeforeCreate assigns a UUID and creation time when the caller did not.
func (c *Correction) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return nil
}
