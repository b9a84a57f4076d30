package storage

import "time"

// PreferenceModel is the GORM model for the preferences table
type PreferenceModel struct {
	Key       string `gorm:"primaryKey"`
	UpdatedAt time.Time
	Value     string `gorm:"not null;default:''"`
}

// TableName specifies the table name for GORM
func (PreferenceModel) TableName() string { return "preferences" }
