package tokenizer

import (
	"strings"
)

// WordTokenizer splits text on whitespace and maps each word through a Vocabulary.
//
// Words not in the vocabulary encode to [UNK]; ids outside the vocabulary
// decode to the literal "[UNK]". Decode joins words with single spaces, so
// Decode(Encode(s)) == s for any in-vocabulary s with single-space separators.
//
// Example:
//
//	tok := tokenizer.NewWordTokenizer(vocab)
//	ids, _ := tok.Encode("a b c")     // [0 1 2] with vocab [a b [UNK]]
//	text, _ := tok.Decode(ids)         // "a b [UNK]"
type WordTokenizer struct {
	vocab *Vocabulary
}

// NewWordTokenizer creates a word-level tokenizer over vocab.
func NewWordTokenizer(vocab *Vocabulary) *WordTokenizer {
	return &WordTokenizer{vocab: vocab}
}

// Vocabulary returns the underlying vocabulary.
func (w *WordTokenizer) Vocabulary() *Vocabulary {
	return w.vocab
}

// Encode converts text to token IDs.
func (w *WordTokenizer) Encode(text string) ([]int32, error) {
	words := strings.Fields(text)
	ids := make([]int32, len(words))
	for i, word := range words {
		ids[i] = w.vocab.ID(word)
	}
	return ids, nil
}

// Decode converts token IDs back to text.
func (w *WordTokenizer) Decode(tokens []int32) (string, error) {
	words := make([]string, len(tokens))
	for i, id := range tokens {
		word, ok := w.vocab.Word(id)
		if !ok {
			word = UnknownWord
		}
		words[i] = word
	}
	return strings.Join(words, " "), nil
}

// VocabSize returns the total vocabulary size.
func (w *WordTokenizer) VocabSize() int {
	return w.vocab.Size()
}

// BosToken returns -1: word vocabularies have no BOS token.
func (w *WordTokenizer) BosToken() int32 {
	return -1
}

// EosToken returns -1: word vocabularies have no EOS token.
func (w *WordTokenizer) EosToken() int32 {
	return -1
}

// PadToken returns -1: sequences are never padded.
func (w *WordTokenizer) PadToken() int32 {
	return -1
}

// UnkToken returns the [UNK] id.
func (w *WordTokenizer) UnkToken() int32 {
	return w.vocab.UnknownID()
}

// IsSpecialToken reports whether token is [UNK].
func (w *WordTokenizer) IsSpecialToken(token int32) bool {
	return token == w.vocab.UnknownID()
}
