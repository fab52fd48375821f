package wordcheck

import (
	"fmt"

	"github.com/syllaclash/backend/internal/lexicon"
)

// Rejection reasons reported back to the submitting connection.
const (
	ReasonEmptySubmission      = "empty_submission"
	ReasonSyllableNotContained = "syllable_not_contained"
	ReasonNotInDictionary      = "not_in_dictionary"
)

// Result is the outcome of validating one submission. Entry is set only
// when the word was accepted.
type Result struct {
	Accepted bool
	Reason   string
	Message  string
	Entry    *lexicon.Entry
}

// Validate runs the acceptance pipeline for one submitted word against
// the active syllable: normalize both, reject empty input, require the
// syllable as a contiguous substring, then resolve the word through the
// lexicon (directly or via a synonym). Pure: no state is read besides
// the index and nothing is mutated, so identical inputs always produce
// identical results.
func Validate(idx *lexicon.Index, word, activeSyllable string) Result {
	normWord := lexicon.Fold(word)
	normSyllable := lexicon.Fold(activeSyllable)

	if normWord == "" {
		return Result{
			Reason:  ReasonEmptySubmission,
			Message: "Please enter a word!",
		}
	}

	if !containsPattern(normWord, normSyllable) {
		return Result{
			Reason:  ReasonSyllableNotContained,
			Message: fmt.Sprintf("Word must contain the syllable %q!", activeSyllable),
		}
	}

	entry, ok := idx.Lookup(normWord)
	if !ok {
		return Result{
			Reason:  ReasonNotInDictionary,
			Message: "Word not found in dictionary!",
		}
	}

	return Result{Accepted: true, Entry: &entry}
}
