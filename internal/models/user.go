package models

import "time"

type User struct {
	BaseModel
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Name         string   `json:"name,omitempty"`
	Plan         UserPlan `gorm:"type:varchar(20);not null;default:'PRO'" json:"plan"`
	Role         UserRole `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`

	// Editor preferences; irrelevant to quota accounting.
	CorrectionStyle string `gorm:"type:varchar(20);default:'correct'" json:"correctionStyle"`
	Shortcut        string `gorm:"default:'Ctrl+Shift+Space'" json:"shortcut"`

	// Relations
	Subscription *Subscription `gorm:"foreignKey:UserID" json:"subscription,omitempty"`
}

// Subscription is one-to-one with User and mutated only by the billing
// event processor or administrative action.
type Subscription struct {
	BaseModel
	UserID             string             `gorm:"uniqueIndex;not null" json:"userId"`
	Plan               UserPlan           `gorm:"type:varchar(20);not null" json:"plan"`
	Status             SubscriptionStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	CurrentPeriodEnd   time.Time          `json:"currentPeriodEnd"`
	CancelAtPeriodEnd  bool               `gorm:"default:false" json:"cancelAtPeriodEnd"`
}
