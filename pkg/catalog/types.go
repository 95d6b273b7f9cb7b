package catalog

// Set is one print run in the external catalog.
type Set struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Series       string `json:"series"`
	PrintedTotal int    `json:"printedTotal"`
	Total        int    `json:"total"`
}

// Card is a single catalog entry with its market pricing blocks. The
// pricing blocks are frequently absent, hence the pointers.
type Card struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Number     string      `json:"number"`
	Rarity     string      `json:"rarity"`
	Subtypes   []string    `json:"subtypes"`
	Set        Set         `json:"set"`
	Cardmarket *Cardmarket `json:"cardmarket,omitempty"`
	Tcgplayer  *Tcgplayer  `json:"tcgplayer,omitempty"`
}

type Cardmarket struct {
	Prices CardmarketPrices `json:"prices"`
}

type CardmarketPrices struct {
	AverageSellPrice *float64 `json:"averageSellPrice"`
	TrendPrice       *float64 `json:"trendPrice"`
	LowPrice         *float64 `json:"lowPrice"`
}

type Tcgplayer struct {
	Prices map[string]TcgplayerPrice `json:"prices"`
}

type TcgplayerPrice struct {
	Low    *float64 `json:"low"`
	Mid    *float64 `json:"mid"`
	High   *float64 `json:"high"`
	Market *float64 `json:"market"`
}
