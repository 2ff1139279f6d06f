// internal/domain/action/entity.go
package action

import (
	"time"
)

// Type classifies a recorded user action
type Type string

const (
	TypeView          Type = "view"
	TypeAddToCart     Type = "add_to_cart"
	TypePurchase      Type = "purchase"
	TypeSearch        Type = "search"
	TypeClick         Type = "click"
	TypeNotInterested Type = "not_interested"
)

// IsValidType reports whether t is a known action type
func IsValidType(t Type) bool {
	switch t {
	case TypeView, TypeAddToCart, TypePurchase, TypeSearch, TypeClick, TypeNotInterested:
		return true
	}
	return false
}

// UserAction is the persisted behavioral event that feeds the
// recommendation model.
type UserAction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_user_actions_user_action" json:"user_id"`
	Action    Type      `gorm:"not null;size:20;index:idx_user_actions_user_action" json:"action"`
	ProductID *uint     `gorm:"index" json:"product_id,omitempty"`
	SessionID string    `gorm:"size:64;index" json:"session_id,omitempty"`
	Metadata  string    `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name
func (UserAction) TableName() string {
	return "user_actions"
}

// Message is the queue envelope for one action event
type Message struct {
	UserID    uint      `json:"user_id"`
	Action    Type      `json:"action"`
	ProductID *uint     `json:"product_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	Occurred  time.Time `json:"occurred"`
}
