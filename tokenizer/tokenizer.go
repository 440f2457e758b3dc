// Package tokenizer provides text tokenization for the transformer.
//
// Two tokenizers are available:
//   - WordTokenizer: whitespace split over a fixed Vocabulary, unknown words map to [UNK]
//   - TikToken: OpenAI byte-pair encodings (cl100k_base, p50k_base, r50k_base)
//
// Example:
//
//	vocab, _ := tokenizer.NewVocabulary([]string{"[UNK]", "hello", "world"})
//	tok := tokenizer.NewWordTokenizer(vocab)
//	ids, _ := tok.Encode("hello world")  // [1 2]
package tokenizer

import (
	"github.com/VeryJokerJal/TransformerLib/internal/tokenizer"
)

// UnknownWord is the vocabulary entry that unknown words map to.
const UnknownWord = tokenizer.UnknownWord

// Common errors.
var (
	ErrMissingUnknown  = tokenizer.ErrMissingUnknown
	ErrEmptyVocabulary = tokenizer.ErrEmptyVocabulary
)

// Tokenizer is the core interface for text tokenization.
type Tokenizer = tokenizer.Tokenizer

// Vocabulary is a bidirectional word/id table.
type Vocabulary = tokenizer.Vocabulary

// WordTokenizer splits on whitespace and looks words up in a Vocabulary.
type WordTokenizer = tokenizer.WordTokenizer

// TikToken wraps a tiktoken byte-pair encoding.
type TikToken = tokenizer.TikToken

// NewVocabulary builds a vocabulary; ids follow the order of words.
func NewVocabulary(words []string) (*Vocabulary, error) {
	return tokenizer.NewVocabulary(words)
}

// NewWordTokenizer creates a word tokenizer over vocab.
func NewWordTokenizer(vocab *Vocabulary) *WordTokenizer {
	return tokenizer.NewWordTokenizer(vocab)
}

// NewTikToken loads a tiktoken encoding by name.
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenizer.NewTikToken(encodingName)
}
