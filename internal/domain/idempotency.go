package domain

import "time"

// Idempotency represents a recorded result of a previously processed request,
// keyed by (user_id, scope, key). Scope names the operation (for example
// "recipes.create") so the same key can be reused across endpoints. A replay
// returns the originally created resource instead of re-executing the write.
type Idempotency struct {
	ID         string    `gorm:"size:36;primaryKey"`
	UserID     uint      `gorm:"not null;uniqueIndex:ux_idempotency_user_scope_key,priority:1"`
	Scope      string    `gorm:"size:64;not null;uniqueIndex:ux_idempotency_user_scope_key,priority:2"`
	Key        string    `gorm:"column:idem_key;size:128;not null;uniqueIndex:ux_idempotency_user_scope_key,priority:3"`
	ResourceID uint      `gorm:"not null"`
	Status     int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index:idx_idempotency_expires"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
