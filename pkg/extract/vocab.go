package extract

import (
	"bufio"
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Vocabulary is the static list of valid card names the name rules
// match against. It is swapped atomically so a background reload never
// races with request handling.
type Vocabulary struct {
	entries atomic.Pointer[[]vocabEntry]
}

type vocabEntry struct {
	display string
	upper   string
}

// NewVocabulary builds a vocabulary from display names. Longer names
// sort first so a substring match prefers "Mewtwo" over "Mew".
func NewVocabulary(names ...string) *Vocabulary {
	v := &Vocabulary{}
	v.Replace(names)
	return v
}

// DefaultVocabulary returns the built-in card-name list.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(defaultNames...)
}

func (v *Vocabulary) Replace(names []string) {
	entries := make([]vocabEntry, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		entries = append(entries, vocabEntry{display: n, upper: strings.ToUpper(n)})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].upper) > len(entries[j].upper)
	})
	v.entries.Store(&entries)
}

func (v *Vocabulary) snapshot() []vocabEntry {
	p := v.entries.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Len reports the number of names currently loaded.
func (v *Vocabulary) Len() int { return len(v.snapshot()) }

// LoadFile replaces the vocabulary with the newline-separated names in
// path. Blank lines and #-comments are skipped.
func (v *Vocabulary) LoadFile(path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()
	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	v.Replace(names)
	return nil
}

// Watch reloads the vocabulary whenever the file changes, until ctx is
// done. The parent directory is watched because editors typically
// replace the file rather than write it in place.
func (v *Vocabulary) Watch(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}
	base := filepath.Base(path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := v.LoadFile(path); err != nil {
					log.Printf("vocabulary reload %s failed: %v", path, err)
					continue
				}
				log.Printf("vocabulary reloaded from %s (%d names)", path, v.Len())
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("vocabulary watcher error: %v", err)
			}
		}
	}()
	return nil
}

var defaultNames = []string{
	"Abra", "Alakazam", "Arcanine", "Arceus", "Articuno",
	"Blastoise", "Bulbasaur", "Celebi", "Charizard", "Charmander",
	"Charmeleon", "Darkrai", "Dialga", "Ditto", "Dragonite",
	"Eevee", "Espeon", "Flareon", "Garchomp", "Gardevoir",
	"Gengar", "Geodude", "Giratina", "Glaceon", "Golem",
	"Greninja", "Groudon", "Growlithe", "Gyarados", "Ho-Oh",
	"Hydreigon", "Ivysaur", "Jigglypuff", "Jolteon", "Kadabra",
	"Kyogre", "Lapras", "Leafeon", "Lucario", "Lugia",
	"Machamp", "Magikarp", "Meowth", "Metagross", "Mew",
	"Mewtwo", "Mimikyu", "Moltres", "Onix", "Palkia",
	"Pikachu", "Psyduck", "Raichu", "Rayquaza", "Reshiram",
	"Salamence", "Scizor", "Snorlax", "Squirtle", "Sylveon",
	"Tyranitar", "Umbreon", "Vaporeon", "Venusaur", "Wartortle",
	"Zacian", "Zamazenta", "Zapdos", "Zekrom",
}
