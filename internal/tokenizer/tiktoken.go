package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// encodingInfo describes the id space of a tiktoken encoding.
type encodingInfo struct {
	size         int   // ids a model must embed: highest id + 1
	endOfText    int32 // <|endoftext|>
	specialStart int32 // special ids are [specialStart, specialEnd)
	specialEnd   int32
}

var encodings = map[string]encodingInfo{
	"cl100k_base": {size: 100277, endOfText: 100257, specialStart: 100257, specialEnd: 100277},
	"p50k_base":   {size: 50281, endOfText: 50256, specialStart: 50256, specialEnd: 50257},
	"r50k_base":   {size: 50257, endOfText: 50256, specialStart: 50256, specialEnd: 50257},
}

// TikToken wraps the pkoukk/tiktoken-go library as a subword alternative to WordTokenizer.
//
// VocabSize covers every id the encoding can emit, special tokens included,
// so it can be used directly as the model's vocabulary size.
//
// Supported encodings:
//   - cl100k_base: GPT-4, GPT-3.5-turbo
//   - p50k_base: Codex
//   - r50k_base: GPT-3
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
	info     encodingInfo
}

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// The BPE ranks are fetched (and cached) by tiktoken-go on first use.
func NewTikToken(encodingName string) (*TikToken, error) {
	info, ok := encodings[encodingName]
	if !ok {
		return nil, fmt.Errorf("unsupported tiktoken encoding %q", encodingName)
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}

	return &TikToken{
		encoding: encoding,
		name:     encodingName,
		info:     info,
	}, nil
}

// Encode converts text to token IDs. Special-token text is encoded as plain text.
func (t *TikToken) Encode(text string) ([]int32, error) {
	tokens := t.encoding.EncodeOrdinary(text)

	result := make([]int32, len(tokens))
	for i, tok := range tokens {
		result[i] = int32(tok) //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
	}
	return result, nil
}

// Decode converts token IDs back to text.
//
// Fails for ids outside [0, VocabSize).
func (t *TikToken) Decode(tokens []int32) (string, error) {
	intTokens := make([]int, len(tokens))
	for i, tok := range tokens {
		if tok < 0 || int(tok) >= t.info.size {
			return "", fmt.Errorf("tiktoken %s: token %d at position %d outside vocabulary of %d",
				t.name, tok, i, t.info.size)
		}
		intTokens[i] = int(tok)
	}
	return t.encoding.Decode(intTokens), nil
}

// VocabSize returns the size of the id space.
func (t *TikToken) VocabSize() int {
	return t.info.size
}

// BosToken returns -1: tiktoken encodings have no BOS token.
func (t *TikToken) BosToken() int32 {
	return -1
}

// EosToken returns the <|endoftext|> id.
func (t *TikToken) EosToken() int32 {
	return t.info.endOfText
}

// PadToken returns -1: tiktoken defines no padding token.
func (t *TikToken) PadToken() int32 {
	return -1
}

// UnkToken returns -1: byte-level BPE never produces unknown tokens.
func (t *TikToken) UnkToken() int32 {
	return -1
}

// IsSpecialToken reports whether token lies in the encoding's special range.
func (t *TikToken) IsSpecialToken(token int32) bool {
	return token >= t.info.specialStart && token < t.info.specialEnd
}

// Name returns the encoding name.
func (t *TikToken) Name() string {
	return t.name
}
