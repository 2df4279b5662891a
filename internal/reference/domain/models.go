package domain

import "time"

// State is a GST state or union territory keyed by its two digit code.
type State struct {
	Code             string    `json:"code" gorm:"type:char(2);primaryKey;column:code"`
	Name             string    `json:"name" gorm:"type:text;not null"`
	IsUnionTerritory bool      `json:"is_union_territory" gorm:"not null;default:false"`
	CreatedAt        time.Time `json:"created_at,omitempty" gorm:"not null"`
}

func (State) TableName() string { return "gst_states" }
