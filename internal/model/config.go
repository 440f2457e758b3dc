package model

import (
	"errors"
	"fmt"
	"log/slog"
)

// Optimizer names accepted by Config.Optimizer.
const (
	OptimizerSGD  = "sgd"
	OptimizerAdam = "adam"
)

// Common errors.
var (
	ErrInvalidConfig    = errors.New("invalid model config")
	ErrSequenceTooShort = errors.New("sequence needs at least two tokens")
)

// Config holds the hyperparameters of a Transformer.
type Config struct {
	VocabSize    int `yaml:"vocab_size"`    // Number of token ids
	EmbeddingDim int `yaml:"embedding_dim"` // d_model
	MaxLen       int `yaml:"max_len"`       // Longest sequence; longer inputs are truncated
	NumHeads     int `yaml:"num_heads"`     // Attention heads, must divide EmbeddingDim
	HiddenDim    int `yaml:"hidden_dim"`    // Feed-forward hidden dimension
	NumLayers    int `yaml:"num_layers"`    // Encoder and decoder blocks (one of each per layer)

	LearningRate float32 `yaml:"learning_rate"`
	Epochs       int     `yaml:"epochs"`
	Seed         uint64  `yaml:"seed"`
	InitScale    float64 `yaml:"init_scale"`   // Embedding init std; 0 selects 1/sqrt(EmbeddingDim)
	Optimizer    string  `yaml:"optimizer"`    // "sgd" or "adam"
	Momentum     float32 `yaml:"momentum"`     // SGD momentum
	EvalWorkers  int     `yaml:"eval_workers"` // Evaluate goroutines; 0 uses every CPU, 1 is sequential

	// Logger receives training progress. Nil discards.
	Logger *slog.Logger `yaml:"-"`

	// OnEpoch, if set, is called after every epoch with its 1-based index and mean loss.
	OnEpoch func(epoch int, loss float32) `yaml:"-"`
}

// DefaultConfig returns the reference configuration for a vocabulary of vocabSize tokens.
func DefaultConfig(vocabSize int) Config {
	return Config{
		VocabSize:    vocabSize,
		EmbeddingDim: 512,
		MaxLen:       128,
		NumHeads:     8,
		HiddenDim:    2048,
		NumLayers:    1,
		LearningRate: 0.001,
		Epochs:       100,
		Seed:         42,
		Optimizer:    OptimizerSGD,
	}
}

// Validate checks if the configuration is valid and consistent.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"vocab_size", c.VocabSize},
		{"embedding_dim", c.EmbeddingDim},
		{"max_len", c.MaxLen},
		{"num_heads", c.NumHeads},
		{"hidden_dim", c.HiddenDim},
		{"num_layers", c.NumLayers},
		{"epochs", c.Epochs},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d: %w", p.name, p.value, ErrInvalidConfig)
		}
	}

	if c.EmbeddingDim%c.NumHeads != 0 {
		return fmt.Errorf("embedding_dim (%d) must be divisible by num_heads (%d): %w",
			c.EmbeddingDim, c.NumHeads, ErrInvalidConfig)
	}
	if c.MaxLen < 2 {
		return fmt.Errorf("max_len must be at least 2, got %d: %w", c.MaxLen, ErrInvalidConfig)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be positive, got %g: %w", c.LearningRate, ErrInvalidConfig)
	}
	if c.InitScale < 0 {
		return fmt.Errorf("init_scale must not be negative, got %g: %w", c.InitScale, ErrInvalidConfig)
	}
	if c.EvalWorkers < 0 {
		return fmt.Errorf("eval_workers must not be negative, got %d: %w", c.EvalWorkers, ErrInvalidConfig)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("momentum must be in [0, 1), got %g: %w", c.Momentum, ErrInvalidConfig)
	}

	switch c.Optimizer {
	case "", OptimizerSGD, OptimizerAdam:
	default:
		return fmt.Errorf("unknown optimizer %q: %w", c.Optimizer, ErrInvalidConfig)
	}
	return nil
}

// HeadDimension returns the dimension per attention head.
func (c Config) HeadDimension() int {
	return c.EmbeddingDim / c.NumHeads
}
