package models

import "time"

// Scan is one processed card photo. Rows are insert-only: the persisted
// record in object storage is the source of truth and nothing updates
// history after the fact.
type Scan struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	ScanID          string `gorm:"size:64;uniqueIndex;not null"`
	Name            string `gorm:"size:128"`
	EvolutionStage  string `gorm:"size:32"`
	CardNumber      string `gorm:"size:32"`
	TotalCardsInSet string `gorm:"size:16"`
	SetID           string `gorm:"size:32"`
	SetName         string `gorm:"size:128"`
	Rarity          string `gorm:"size:64"`
	SelectedPrice   *float64
	ImageURL        string `gorm:"size:512"`
	FullText        string `gorm:"type:text"`
}
