// Package pricing turns extracted card attributes into a market price
// quote by querying the catalog with a progressively relaxed query
// ladder. Pricing is best-effort: every failure degrades to an
// all-null quote, never an error.
package pricing

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"cardscan/pkg/catalog"
	"cardscan/pkg/extract"
)

// totalTolerance bounds how far a candidate's printed total may drift
// from the OCR'd total hint and still count as the same print run.
const totalTolerance = 5

// CardSearcher is the slice of the catalog client the resolver needs.
type CardSearcher interface {
	SearchCards(ctx context.Context, query string) ([]catalog.Card, error)
}

// SetLookup resolves a printed total to a catalog set id.
type SetLookup interface {
	Lookup(total string) (string, bool)
}

// Quote is the resolved pricing record. Every field is nullable: a
// JSON null always means "no signal", never a deliberate zero.
type Quote struct {
	Name            *string  `json:"name"`
	Number          *string  `json:"number"`
	SetID           *string  `json:"setId"`
	SetName         *string  `json:"setName"`
	Rarity          *string  `json:"rarity"`
	Subtypes        []string `json:"subtypes"`
	CardmarketPrice *float64 `json:"cardmarketPrice"`
	TcgplayerPrice  *float64 `json:"tcgplayerPrice"`
	SelectedPrice   *float64 `json:"selectedPrice"`
}

type Resolver struct {
	catalog  CardSearcher
	index    SetLookup
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewResolver builds a resolver. cache may be nil, which disables
// quote caching.
func NewResolver(searcher CardSearcher, index SetLookup, cache *redis.Client) *Resolver {
	return &Resolver{
		catalog:  searcher,
		index:    index,
		cache:    cache,
		cacheTTL: 15 * time.Minute,
	}
}

// BuildQuery composes the most specific catalog query the attributes
// allow. The name clause is the weakest signal and is only included
// when neither a number nor a set clause could be built. totalHint is
// returned when a printed total existed but had no index mapping, so
// selection can still use it as a tie-breaker.
func (r *Resolver) BuildQuery(attrs extract.Attributes) (query, totalHint string) {
	var clauses []string
	if attrs.CardNumber != extract.Unknown {
		clauses = append(clauses, "number:"+attrs.CardNumber)
	}
	setID := attrs.SetID
	if setID == "" && attrs.TotalCardsInSet != extract.Unknown {
		if id, ok := r.index.Lookup(attrs.TotalCardsInSet); ok {
			setID = id
		} else {
			totalHint = attrs.TotalCardsInSet
		}
	}
	if setID != "" {
		clauses = append(clauses, "set.id:"+setID)
	}
	if len(clauses) == 0 && attrs.Name != extract.Unknown {
		clauses = append(clauses, nameClause(attrs.Name))
	}
	return strings.Join(clauses, " "), totalHint
}

// Resolve runs the query ladder and picks the best candidate. A zero
// Quote is returned when nothing could be priced.
func (r *Resolver) Resolve(ctx context.Context, attrs extract.Attributes) Quote {
	query, totalHint := r.BuildQuery(attrs)
	if query == "" {
		return Quote{}
	}

	if q, ok := r.cached(ctx, query); ok {
		return q
	}

	cards, err := r.catalog.SearchCards(ctx, query)
	if err != nil {
		log.Printf("price lookup failed for query %q: %v", query, err)
		return Quote{}
	}
	// Looser fallback: an unrelated printing of the same character
	// beats no price at all.
	if len(cards) == 0 && attrs.Name != extract.Unknown && !strings.HasPrefix(query, "name:") {
		fallback := nameClause(attrs.Name)
		cards, err = r.catalog.SearchCards(ctx, fallback)
		if err != nil {
			log.Printf("fallback price lookup failed for query %q: %v", fallback, err)
			return Quote{}
		}
	}
	if len(cards) == 0 {
		log.Printf("no catalog results for query %q", query)
		return Quote{}
	}

	quote := quoteFrom(selectCandidate(cards, totalHint))
	r.store(ctx, query, quote)
	return quote
}

// selectCandidate takes the first result, unless a total hint exists
// with no exact set mapping: then the first candidate whose printed
// total is within the tolerance of the hint wins.
func selectCandidate(cards []catalog.Card, totalHint string) catalog.Card {
	if totalHint == "" || len(cards) < 2 {
		return cards[0]
	}
	hint, err := strconv.Atoi(totalHint)
	if err != nil {
		return cards[0]
	}
	for _, c := range cards {
		d := c.Set.PrintedTotal - hint
		if d < 0 {
			d = -d
		}
		if d <= totalTolerance {
			return c
		}
	}
	return cards[0]
}

func quoteFrom(card catalog.Card) Quote {
	q := Quote{
		Name:     strPtr(card.Name),
		Number:   strPtr(card.Number),
		SetID:    strPtr(card.Set.ID),
		SetName:  strPtr(card.Set.Name),
		Rarity:   strPtr(card.Rarity),
		Subtypes: card.Subtypes,
	}
	if card.Cardmarket != nil {
		q.CardmarketPrice = card.Cardmarket.Prices.AverageSellPrice
	}
	if card.Tcgplayer != nil {
		if p, ok := card.Tcgplayer.Prices["normal"]; ok && p.Market != nil {
			q.TcgplayerPrice = p.Market
		} else if p, ok := card.Tcgplayer.Prices["holofoil"]; ok && p.Market != nil {
			q.TcgplayerPrice = p.Market
		}
	}
	switch {
	case q.CardmarketPrice != nil:
		q.SelectedPrice = q.CardmarketPrice
	case q.TcgplayerPrice != nil:
		q.SelectedPrice = q.TcgplayerPrice
	}
	return q
}

func (r *Resolver) cached(ctx context.Context, query string) (Quote, bool) {
	if r.cache == nil {
		return Quote{}, false
	}
	raw, err := r.cache.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		return Quote{}, false
	}
	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return Quote{}, false
	}
	return q, true
}

func (r *Resolver) store(ctx context.Context, query string, q Quote) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(query), raw, r.cacheTTL).Err(); err != nil {
		log.Printf("quote cache write failed: %v", err)
	}
}

func cacheKey(query string) string { return "quote:" + query }

func nameClause(name string) string {
	if strings.ContainsRune(name, ' ') {
		return `name:"` + name + `"`
	}
	return "name:" + name
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
