package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig(10000)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, float32(0.001), cfg.LearningRate)
	assert.Equal(t, 100, cfg.Epochs)
	assert.Equal(t, 64, cfg.HeadDimension())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero_vocab", func(c *Config) { c.VocabSize = 0 }},
		{"negative_dim", func(c *Config) { c.EmbeddingDim = -4 }},
		{"zero_heads", func(c *Config) { c.NumHeads = 0 }},
		{"zero_hidden", func(c *Config) { c.HiddenDim = 0 }},
		{"zero_layers", func(c *Config) { c.NumLayers = 0 }},
		{"zero_epochs", func(c *Config) { c.Epochs = 0 }},
		{"heads_do_not_divide", func(c *Config) { c.NumHeads = 3 }},
		{"max_len_one", func(c *Config) { c.MaxLen = 1 }},
		{"zero_learning_rate", func(c *Config) { c.LearningRate = 0 }},
		{"negative_init_scale", func(c *Config) { c.InitScale = -1 }},
		{"momentum_one", func(c *Config) { c.Momentum = 1 }},
		{"negative_eval_workers", func(c *Config) { c.EvalWorkers = -1 }},
		{"unknown_optimizer", func(c *Config) { c.Optimizer = "rmsprop" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tinyConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_OptimizerNames(t *testing.T) {
	for _, name := range []string{"", OptimizerSGD, OptimizerAdam} {
		cfg := tinyConfig()
		cfg.Optimizer = name
		assert.NoError(t, cfg.Validate(), "optimizer %q", name)
	}
}
