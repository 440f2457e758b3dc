// Package tokenizer converts between text and the token ids the model consumes.
//
// The tokenizer package implements:
//   - Vocabulary: word ↔ id table loaded from one word per line; must contain [UNK]
//   - WordTokenizer: whitespace splitting over a Vocabulary
//   - TikToken: BPE tokenizer used by GPT-3/GPT-4 (cl100k_base, p50k_base, r50k_base)
//
// Both tokenizers satisfy the Tokenizer interface.
//
// Example usage:
//
//	vocab, err := tokenizer.NewVocabulary([]string{"a", "b", "[UNK]"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tok := tokenizer.NewWordTokenizer(vocab)
//
//	ids, _ := tok.Encode("a b c")  // [0 1 2]
//	text, _ := tok.Decode(ids)     // "a b [UNK]"
package tokenizer
