package catalog

import (
	"context"
	"log"
	"strconv"
	"sync/atomic"
	"time"
)

// SetLister is the slice of the catalog client the index needs.
type SetLister interface {
	ListSets(ctx context.Context) ([]Set, error)
}

// seedTable covers high-traffic sets so lookups work before the first
// successful refresh (or forever, if the catalog is unreachable).
var seedTable = map[string]string{
	"102": "base1",
	"64":  "jungle",
	"62":  "fossil",
	"202": "swsh1",
	"192": "swsh2",
	"203": "swsh7",
	"264": "swsh8",
	"172": "swsh9",
	"198": "sv1",
	"193": "sv2",
	"165": "sv3pt5",
}

// SetIndex maps a set's printed total card count to its catalog set
// identifier. Readers see an atomically swapped immutable snapshot, so
// the background refresh never blocks or races request handling.
// Multiple sets can collide on one total; last write wins.
type SetIndex struct {
	lister SetLister
	table  atomic.Pointer[map[string]string]
}

func NewSetIndex(lister SetLister) *SetIndex {
	idx := &SetIndex{lister: lister}
	seed := make(map[string]string, len(seedTable))
	for k, v := range seedTable {
		seed[k] = v
	}
	idx.table.Store(&seed)
	return idx
}

// Lookup resolves a printed total to a set id. Absence is an expected
// outcome, not an error: many totals are ambiguous or unindexed.
func (i *SetIndex) Lookup(total string) (string, bool) {
	id, ok := (*i.table.Load())[total]
	return id, ok
}

// Refresh rebuilds the table from the catalog's set listing. On fetch
// failure the previous snapshot is kept: availability over freshness.
func (i *SetIndex) Refresh(ctx context.Context) error {
	sets, err := i.lister.ListSets(ctx)
	if err != nil {
		log.Printf("set index refresh failed, keeping %d entries: %v", len(*i.table.Load()), err)
		return err
	}
	table := make(map[string]string, len(sets))
	for _, s := range sets {
		total := s.PrintedTotal
		if total <= 0 {
			total = s.Total
		}
		if total <= 0 {
			continue
		}
		table[strconv.Itoa(total)] = s.ID
	}
	i.table.Store(&table)
	log.Printf("set index refreshed: %d totals indexed from %d sets", len(table), len(sets))
	return nil
}

// Start refreshes once immediately and then on every interval tick,
// all in the background; requests arriving before the first success
// use the seed table.
func (i *SetIndex) Start(ctx context.Context, interval time.Duration) {
	go func() {
		_ = i.Refresh(ctx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = i.Refresh(ctx)
			}
		}
	}()
}
