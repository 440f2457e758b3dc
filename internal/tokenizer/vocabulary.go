package tokenizer

import (
	"fmt"
	"strings"
)

// UnknownWord is the reserved entry every vocabulary must contain.
const UnknownWord = "[UNK]"

// Vocabulary is a bidirectional mapping between words and dense ids.
//
// Ids are the zero-based positions of the words as given to NewVocabulary.
// A word listed twice keeps the id of its first occurrence; the later
// position still maps back to the word.
//
// Example:
//
//	v, err := tokenizer.NewVocabulary([]string{"a", "b", "[UNK]"})
//	v.ID("b")    // 1
//	v.ID("zzz")  // 2 ([UNK])
//	v.Word(0)    // "a", true
type Vocabulary struct {
	words  []string
	ids    map[string]int32
	unknID int32
}

// NewVocabulary builds a vocabulary from words, one entry per element.
//
// Surrounding whitespace is trimmed from every word. Fails with
// ErrEmptyVocabulary for no words and ErrMissingUnknown when [UNK] is absent.
func NewVocabulary(words []string) (*Vocabulary, error) {
	if len(words) == 0 {
		return nil, ErrEmptyVocabulary
	}

	v := &Vocabulary{
		words: make([]string, len(words)),
		ids:   make(map[string]int32, len(words)),
	}
	for i, w := range words {
		w = strings.TrimSpace(w)
		v.words[i] = w
		if _, dup := v.ids[w]; !dup {
			v.ids[w] = int32(i) //nolint:gosec // G115: vocabulary size fits in int32.
		}
	}

	unk, ok := v.ids[UnknownWord]
	if !ok {
		return nil, fmt.Errorf("%d words: %w", len(words), ErrMissingUnknown)
	}
	v.unknID = unk
	return v, nil
}

// Size returns the number of ids.
func (v *Vocabulary) Size() int {
	return len(v.words)
}

// ID returns the id of word, or the [UNK] id if word is not in the vocabulary.
func (v *Vocabulary) ID(word string) int32 {
	if id, ok := v.ids[word]; ok {
		return id
	}
	return v.unknID
}

// Contains reports whether word has its own id.
func (v *Vocabulary) Contains(word string) bool {
	_, ok := v.ids[word]
	return ok
}

// Word returns the word for id, or false if id is outside the vocabulary.
func (v *Vocabulary) Word(id int32) (string, bool) {
	if id < 0 || int(id) >= len(v.words) {
		return "", false
	}
	return v.words[id], true
}

// UnknownID returns the id of [UNK].
func (v *Vocabulary) UnknownID() int32 {
	return v.unknID
}

// Words returns a copy of the words in id order.
func (v *Vocabulary) Words() []string {
	out := make([]string, len(v.words))
	copy(out, v.words)
	return out
}
