package main

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cardscan/models"
)

var db *gorm.DB

// initDB connects to Postgres for the scan-history table. An empty DSN
// disables history entirely; every handler treats a nil db as "history
// off" rather than an error.
func initDB(dsn string) {
	if dsn == "" {
		log.Println("DB_DSN not set, scan history disabled")
		return
	}
	var err error
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	if err := db.AutoMigrate(&models.Scan{}); err != nil {
		log.Printf("migration warning (scans): %v", err)
	}
}

// saveScan records a processed card in history. Best-effort: the
// object-storage record is the source of truth, so a failed insert is
// logged and swallowed.
func saveScan(id string, rec CardRecord) {
	if db == nil {
		return
	}
	row := models.Scan{
		ScanID:          id,
		Name:            rec.Name,
		EvolutionStage:  rec.EvolutionStage,
		CardNumber:      rec.CardNumber,
		TotalCardsInSet: rec.TotalCardsInSet,
		SelectedPrice:   rec.SelectedPrice,
		ImageURL:        rec.ImageURL,
		FullText:        rec.FullText,
	}
	if rec.SetID != nil {
		row.SetID = *rec.SetID
	}
	if rec.SetName != nil {
		row.SetName = *rec.SetName
	}
	if rec.Rarity != nil {
		row.Rarity = *rec.Rarity
	}
	if err := db.Create(&row).Error; err != nil {
		log.Printf("scan history insert failed for %s: %v", id, err)
	}
}
