// Copyright 2025 The TransformerLib Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package transformer provides the encoder-decoder language model.
//
// # Basic Usage
//
//	vocab, err := transformer.LoadVocabulary("vocab.txt")
//	tok := tokenizer.NewWordTokenizer(vocab)
//	corpus, err := transformer.LoadCorpus("corpus.txt", tok)
//
//	cfg := transformer.DefaultConfig(vocab.Size())
//	cfg.Logger = slog.Default()
//
//	model, err := transformer.New(cfg)
//	result, err := model.Train(ctx, corpus)
//	text, err := model.PredictText(tok, "the cat")
package transformer

import (
	"github.com/VeryJokerJal/TransformerLib/internal/data"
	"github.com/VeryJokerJal/TransformerLib/internal/model"
	"github.com/VeryJokerJal/TransformerLib/internal/tokenizer"
)

// Optimizer names accepted by Config.Optimizer.
const (
	OptimizerSGD  = model.OptimizerSGD
	OptimizerAdam = model.OptimizerAdam
)

// Errors.
var (
	ErrInvalidConfig    = model.ErrInvalidConfig
	ErrSequenceTooShort = model.ErrSequenceTooShort
	ErrLoad             = data.ErrLoad
)

// Config holds the hyperparameters of a Transformer.
type Config = model.Config

// Transformer is the encoder-decoder model.
type Transformer = model.Transformer

// TrainResult reports the mean loss of every epoch.
type TrainResult = model.TrainResult

// LoadError describes a failed vocabulary or corpus read.
type LoadError = data.LoadError

// DefaultConfig returns the reference configuration for vocabSize tokens.
func DefaultConfig(vocabSize int) Config {
	return model.DefaultConfig(vocabSize)
}

// New builds a Transformer with freshly initialized weights.
func New(cfg Config) (*Transformer, error) {
	return model.New(cfg)
}

// LoadVocabulary reads one word per line.
func LoadVocabulary(path string) (*tokenizer.Vocabulary, error) {
	return data.LoadVocabulary(path)
}

// LoadCorpus reads one example per line and encodes it with tok.
func LoadCorpus(path string, tok tokenizer.Tokenizer) ([][]int32, error) {
	return data.LoadCorpus(path, tok)
}
