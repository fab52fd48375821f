package lexicon

import (
	"strings"

	"github.com/samber/lo"
)

// Definition groups the glosses a word carries for one part of speech.
type Definition struct {
	PartOfSpeech string   `json:"pos"`
	Glosses      []string `json:"glosses"`
}

// Entry is one dictionary record. Entries are immutable after load and
// shared read-only by every validation call.
type Entry struct {
	Word        string       `json:"word"`
	Language    string       `json:"lang"`
	Definitions []Definition `json:"definitions"`
	Synonyms    []string     `json:"synonyms"`
}

// Index holds the case-folded lookup maps built once at startup:
// word -> entry, and synonym -> canonical word. Safe for unsynchronized
// concurrent reads.
type Index struct {
	words    map[string]Entry
	synonyms map[string]string
}

// Build normalizes every word and synonym to a case-folded form and
// returns the read-only index. When two entries share a folded synonym,
// the entry processed last wins; that is a data-dependent tie-break, not
// a claim about which mapping is correct.
func Build(entries []Entry) *Index {
	idx := &Index{
		words:    make(map[string]Entry, len(entries)),
		synonyms: make(map[string]string),
	}

	lo.ForEach(entries, func(entry Entry, _ int) {
		word := Fold(entry.Word)
		if word == "" {
			return
		}
		idx.words[word] = entry

		for _, syn := range entry.Synonyms {
			syn = Fold(syn)
			if syn != "" {
				idx.synonyms[syn] = word
			}
		}
	})

	return idx
}

// Lookup resolves a word to its entry: direct hit first, then one hop
// through the synonym map to a canonical word.
func (idx *Index) Lookup(word string) (Entry, bool) {
	word = Fold(word)

	if entry, ok := idx.words[word]; ok {
		return entry, true
	}
	if canonical, ok := idx.synonyms[word]; ok {
		entry, ok := idx.words[canonical]
		return entry, ok
	}
	return Entry{}, false
}

// Len reports the number of indexed words.
func (idx *Index) Len() int {
	return len(idx.words)
}

// Fold is the normalization applied to every word and synonym before
// indexing or lookup.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
