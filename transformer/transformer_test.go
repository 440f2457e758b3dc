// Copyright 2025 The TransformerLib Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package transformer_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeryJokerJal/TransformerLib/tokenizer"
	"github.com/VeryJokerJal/TransformerLib/transformer"
)

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	vocabPath := filepath.Join(dir, "vocab.txt")
	corpusPath := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(vocabPath, []byte("[UNK]\nthe\ncat\nsat\n"), 0o600))
	require.NoError(t, os.WriteFile(corpusPath, []byte("the cat sat\nthe cat\n"), 0o600))

	vocab, err := transformer.LoadVocabulary(vocabPath)
	require.NoError(t, err)
	tok := tokenizer.NewWordTokenizer(vocab)

	corpus, err := transformer.LoadCorpus(corpusPath, tok)
	require.NoError(t, err)
	require.Len(t, corpus, 2)

	cfg := transformer.DefaultConfig(vocab.Size())
	cfg.EmbeddingDim = 8
	cfg.NumHeads = 2
	cfg.HiddenDim = 16
	cfg.MaxLen = 8
	cfg.Epochs = 2
	cfg.LearningRate = 0.05

	model, err := transformer.New(cfg)
	require.NoError(t, err)

	result, err := model.Train(context.Background(), corpus)
	require.NoError(t, err)
	assert.Len(t, result.EpochLosses, 2)

	text, err := model.PredictText(tok, "the cat sat")
	require.NoError(t, err)
	out, err := tok.Encode(text)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestErrors(t *testing.T) {
	_, err := transformer.New(transformer.Config{})
	assert.ErrorIs(t, err, transformer.ErrInvalidConfig)

	_, err = transformer.LoadVocabulary(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, transformer.ErrLoad)
}

func TestLicenseHeaders(t *testing.T) {
	const header = "// Copyright 2025 The TransformerLib Authors. All rights reserved.\n"

	for _, dir := range []string{"../nn", "../optim", "../tensor", "."} {
		files, err := filepath.Glob(filepath.Join(dir, "*.go"))
		require.NoError(t, err)
		require.NotEmpty(t, files, dir)

		for _, f := range files {
			src, err := os.ReadFile(f)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(src), header), "%s header", f)
		}
	}
}
