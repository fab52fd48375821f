package lexicon

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/samber/lo"
)

// fileEntry is the on-disk dictionary record. Older data files carry a
// flat definition list with a single part-of-speech tag; those collapse
// into one Definition on load.
type fileEntry struct {
	Word        string       `json:"word"`
	Lang        string       `json:"lang"`
	Pos         string       `json:"pos"`
	Definitions []string     `json:"definitions"`
	Defs        []Definition `json:"defs"`
	Synonyms    []string     `json:"synonyms"`
}

// Load reads a JSON dictionary file and returns its entries. Records
// without a word are skipped with a warning rather than failing the load.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}

	var raw []fileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", path, err)
	}

	entries := lo.FilterMap(raw, func(fe fileEntry, _ int) (Entry, bool) {
		if Fold(fe.Word) == "" {
			log.Printf("[Load] skipping dictionary record with empty word")
			return Entry{}, false
		}

		defs := fe.Defs
		if len(defs) == 0 && len(fe.Definitions) > 0 {
			defs = []Definition{{PartOfSpeech: fe.Pos, Glosses: fe.Definitions}}
		}

		return Entry{
			Word:        fe.Word,
			Language:    fe.Lang,
			Definitions: defs,
			Synonyms:    fe.Synonyms,
		}, true
	})

	return entries, nil
}
