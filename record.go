package main

import (
	"cardscan/pkg/extract"
	"cardscan/pkg/pricing"
)

// CardRecord is the final persisted document: extracted attributes
// merged with the price quote, plus the verbatim OCR text and the
// image's public URL. Written once, never updated.
type CardRecord struct {
	Name            string   `json:"name"`
	EvolutionStage  string   `json:"evolutionStage"`
	CardNumber      string   `json:"cardNumber"`
	TotalCardsInSet string   `json:"totalCardsInSet"`
	SetID           *string  `json:"setId"`
	SetName         *string  `json:"setName"`
	Rarity          *string  `json:"rarity"`
	Subtypes        []string `json:"subtypes"`
	CardmarketPrice *float64 `json:"cardmarketPrice"`
	TcgplayerPrice  *float64 `json:"tcgplayerPrice"`
	SelectedPrice   *float64 `json:"selectedPrice"`
	FullText        string   `json:"fullText"`
	ImageURL        string   `json:"imageUrl"`
}

// buildRecord merges attributes and quote. The catalog's canonical
// spelling beats the OCR'd name when a match was found; the extracted
// fields are otherwise authoritative.
func buildRecord(attrs extract.Attributes, quote pricing.Quote, fullText, imageURL string) CardRecord {
	rec := CardRecord{
		Name:            attrs.Name,
		EvolutionStage:  attrs.EvolutionStage,
		CardNumber:      attrs.CardNumber,
		TotalCardsInSet: attrs.TotalCardsInSet,
		SetID:           quote.SetID,
		SetName:         quote.SetName,
		Rarity:          quote.Rarity,
		Subtypes:        quote.Subtypes,
		CardmarketPrice: quote.CardmarketPrice,
		TcgplayerPrice:  quote.TcgplayerPrice,
		SelectedPrice:   quote.SelectedPrice,
		FullText:        fullText,
		ImageURL:        imageURL,
	}
	if quote.Name != nil {
		rec.Name = *quote.Name
	}
	if rec.SetID == nil && attrs.SetID != "" {
		setID := attrs.SetID
		rec.SetID = &setID
	}
	return rec
}
