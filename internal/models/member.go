package models

import "time"

// Member is a read model synced from the account service: just enough to
// authorize token issuance and stamp display names onto entry records.
type Member struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DisplayName string    `gorm:"not null" json:"display_name"`
	Enabled     bool      `gorm:"not null;default:true" json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
