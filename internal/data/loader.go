// Package data loads vocabularies and training corpora from plain-text files.
//
// Both formats are line oriented:
//   - vocabulary: one word per line, the zero-based line number is the id
//   - corpus: one example per line, blank lines skipped
//
// Every failure is reported as a *LoadError wrapping ErrLoad.
package data

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/VeryJokerJal/TransformerLib/internal/tokenizer"
)

// maxLineSize bounds a single line; long corpus lines are common.
const maxLineSize = 1 << 20

// ReadLines returns every line of r without line terminators.
//
// A trailing "\r" is stripped so that CRLF files read like LF files.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// LoadLines reads every line of the file at path.
func LoadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	lines, err := ReadLines(f)
	if err != nil {
		return nil, &LoadError{Path: path, Op: "read", Err: err}
	}
	return lines, nil
}

// LoadVocabulary reads a one-word-per-line vocabulary file.
func LoadVocabulary(path string) (*tokenizer.Vocabulary, error) {
	lines, err := LoadLines(path)
	if err != nil {
		return nil, err
	}
	vocab, err := tokenizer.NewVocabulary(lines)
	if err != nil {
		return nil, &LoadError{Path: path, Op: "vocabulary", Err: err}
	}
	return vocab, nil
}

// LoadCorpus reads the corpus at path and encodes every non-blank line with tok.
func LoadCorpus(path string, tok tokenizer.Tokenizer) ([][]int32, error) {
	lines, err := LoadLines(path)
	if err != nil {
		return nil, err
	}
	corpus, err := EncodeLines(lines, tok)
	if err != nil {
		return nil, &LoadError{Path: path, Op: "encode", Err: err}
	}
	return corpus, nil
}

// EncodeLines encodes every non-blank line with tok, in order.
func EncodeLines(lines []string, tok tokenizer.Tokenizer) ([][]int32, error) {
	corpus := make([][]int32, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ids, err := tok.Encode(line)
		if err != nil {
			return nil, err
		}
		corpus = append(corpus, ids)
	}
	return corpus, nil
}
