package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/VeryJokerJal/TransformerLib/internal/nn"
	"github.com/VeryJokerJal/TransformerLib/internal/optim"
	"github.com/VeryJokerJal/TransformerLib/internal/parallel"
	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
	"github.com/VeryJokerJal/TransformerLib/internal/tokenizer"
)

// Transformer is an encoder/decoder sequence model over token ids.
//
// Architecture:
//
//	input ids  → Embedding → PositionalEncoding → Encoder × N ──┐ memory
//	target ids → Embedding → PositionalEncoding → Decoder × N ←─┘
//	           → Linear (d_model → vocab) → softmax
//
// Training uses the shifted sequence as target: for tokens t, the encoder sees
// t[:MaxLen] and the decoder sees (and is scored against) t[1:][:MaxLen].
// Every gradient is derived by hand; there is no autodiff.
//
// Example:
//
//	cfg := model.DefaultConfig(vocab.Size())
//	m, err := model.New(cfg)
//	result, err := m.Train(ctx, corpus)
//	ids, err := m.Predict([]int32{4, 8, 15})
type Transformer struct {
	cfg Config

	embedding  *nn.Embedding
	positional *nn.SinusoidalPositionalEncoding
	encoders   []*nn.Encoder
	decoders   []*nn.Decoder
	projection *nn.Linear

	optimizer optim.Optimizer
	logger    *slog.Logger
}

// TrainResult summarizes a training run.
type TrainResult struct {
	// EpochLosses holds the mean example loss for every completed epoch.
	EpochLosses []float32
}

// FinalLoss returns the loss of the last completed epoch, or 0 if none completed.
func (r TrainResult) FinalLoss() float32 {
	if len(r.EpochLosses) == 0 {
		return 0
	}
	return r.EpochLosses[len(r.EpochLosses)-1]
}

// New builds a Transformer from a validated config.
//
// All weights are drawn from a generator seeded with cfg.Seed, so two models
// built from the same config are identical.
func New(cfg Config) (*Transformer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := nn.NewRand(cfg.Seed)
	t := &Transformer{
		cfg:        cfg,
		embedding:  nn.NewEmbedding(cfg.VocabSize, cfg.EmbeddingDim, cfg.InitScale, rng),
		positional: nn.NewSinusoidalPositionalEncoding(cfg.MaxLen, cfg.EmbeddingDim),
		encoders:   make([]*nn.Encoder, cfg.NumLayers),
		decoders:   make([]*nn.Decoder, cfg.NumLayers),
		logger:     cfg.Logger,
	}
	for i := range cfg.NumLayers {
		t.encoders[i] = nn.NewEncoder(cfg.NumHeads, cfg.EmbeddingDim, cfg.HiddenDim, rng)
	}
	for i := range cfg.NumLayers {
		t.decoders[i] = nn.NewDecoder(cfg.NumHeads, cfg.EmbeddingDim, cfg.HiddenDim, rng)
	}
	t.projection = nn.NewLinear(cfg.EmbeddingDim, cfg.VocabSize, true, rng)

	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}

	switch cfg.Optimizer {
	case OptimizerAdam:
		t.optimizer = optim.NewAdam(t.Parameters(), optim.AdamConfig{LR: cfg.LearningRate})
	default:
		t.optimizer = optim.NewSGD(t.Parameters(), optim.SGDConfig{LR: cfg.LearningRate, Momentum: cfg.Momentum})
	}

	return t, nil
}

// Config returns the configuration the model was built with.
func (t *Transformer) Config() Config {
	return t.cfg
}

// Parameters returns every trainable parameter: embedding, encoders,
// decoders, then the output projection.
func (t *Transformer) Parameters() []*nn.Parameter {
	params := t.embedding.Parameters()
	for _, enc := range t.encoders {
		params = append(params, enc.Parameters()...)
	}
	for _, dec := range t.decoders {
		params = append(params, dec.Parameters()...)
	}
	return append(params, t.projection.Parameters()...)
}

// NumParameters returns the number of scalar weights.
func (t *Transformer) NumParameters() int {
	var n int
	for _, p := range t.Parameters() {
		n += p.NumElements()
	}
	return n
}

// pass holds the activations of one training forward pass.
type pass struct {
	input, target []int32

	inputEmbed  *nn.EmbeddingContext
	targetEmbed *nn.EmbeddingContext
	encoders    []nn.Context
	decoders    []*nn.DecoderContext
	projection  nn.Context

	probs *tensor.Matrix
	loss  float32
}

// shift splits tokens into the encoder input and the decoder target.
func (t *Transformer) shift(tokens []int32) (input, target []int32, err error) {
	if len(tokens) < 2 {
		return nil, nil, fmt.Errorf("%d tokens: %w", len(tokens), ErrSequenceTooShort)
	}
	return truncate(tokens, t.cfg.MaxLen), truncate(tokens[1:], t.cfg.MaxLen), nil
}

func truncate(tokens []int32, n int) []int32 {
	if len(tokens) > n {
		return tokens[:n]
	}
	return tokens
}

// embed looks up ids and adds the positional encoding.
func (t *Transformer) embed(ids []int32) (*tensor.Matrix, *nn.EmbeddingContext, error) {
	x, ctx, err := t.embedding.Lookup(ids)
	if err != nil {
		return nil, nil, err
	}
	x, _, err = t.positional.Forward(x)
	if err != nil {
		return nil, nil, err
	}
	return x, ctx, nil
}

// encode runs the encoder stack, returning the memory and one context per block.
func (t *Transformer) encode(x *tensor.Matrix) (*tensor.Matrix, []nn.Context, error) {
	ctxs := make([]nn.Context, len(t.encoders))
	for i, enc := range t.encoders {
		var err error
		x, ctxs[i], err = enc.Forward(x)
		if err != nil {
			return nil, nil, fmt.Errorf("encoder %d: %w", i, err)
		}
	}
	return x, ctxs, nil
}

// decode runs the decoder stack; every block attends to the same memory.
func (t *Transformer) decode(x, memory *tensor.Matrix) (*tensor.Matrix, []*nn.DecoderContext, error) {
	ctxs := make([]*nn.DecoderContext, len(t.decoders))
	for i, dec := range t.decoders {
		var err error
		x, ctxs[i], err = dec.ForwardWithMemory(x, memory)
		if err != nil {
			return nil, nil, fmt.Errorf("decoder %d: %w", i, err)
		}
	}
	return x, ctxs, nil
}

// forward runs both paths of one example and scores it.
func (t *Transformer) forward(tokens []int32) (*pass, error) {
	input, target, err := t.shift(tokens)
	if err != nil {
		return nil, err
	}
	p := &pass{input: input, target: target}

	x, inCtx, err := t.embed(input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	p.inputEmbed = inCtx

	memory, encCtxs, err := t.encode(x)
	if err != nil {
		return nil, err
	}
	p.encoders = encCtxs

	y, tgtCtx, err := t.embed(target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	p.targetEmbed = tgtCtx

	h, decCtxs, err := t.decode(y, memory)
	if err != nil {
		return nil, err
	}
	p.decoders = decCtxs

	logits, projCtx, err := t.projection.Forward(h)
	if err != nil {
		return nil, fmt.Errorf("projection: %w", err)
	}
	p.projection = projCtx

	p.probs = tensor.SoftmaxRows(logits)
	p.loss, err = nn.NLLLoss(p.probs, target)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// backward propagates the loss gradient of p into every parameter.
//
// Order: loss → softmax → projection → decoders (collecting the memory
// gradient of each block) → encoders → embedding, for both the input and
// the target paths.
func (t *Transformer) backward(p *pass) error {
	dProbs, err := nn.NLLLossGrad(p.probs, p.target)
	if err != nil {
		return err
	}
	dLogits, err := tensor.SoftmaxBackward(p.probs, dProbs)
	if err != nil {
		return fmt.Errorf("softmax backward: %w", err)
	}
	g, err := t.projection.Backward(p.projection, dLogits)
	if err != nil {
		return fmt.Errorf("projection backward: %w", err)
	}

	var dMemory *tensor.Matrix
	for i := len(t.decoders) - 1; i >= 0; i-- {
		var dm *tensor.Matrix
		g, dm, err = t.decoders[i].BackwardWithMemory(p.decoders[i], g)
		if err != nil {
			return fmt.Errorf("decoder %d backward: %w", i, err)
		}
		if dMemory == nil {
			dMemory = dm
		} else if err := dMemory.AddInPlace(dm); err != nil {
			return fmt.Errorf("decoder %d memory gradient: %w", i, err)
		}
	}

	// The positional encoding is additive, so its gradient is the identity.
	if _, err := t.embedding.Backward(p.targetEmbed, g); err != nil {
		return fmt.Errorf("target embedding backward: %w", err)
	}

	g = dMemory
	for i := len(t.encoders) - 1; i >= 0; i-- {
		g, err = t.encoders[i].Backward(p.encoders[i], g)
		if err != nil {
			return fmt.Errorf("encoder %d backward: %w", i, err)
		}
	}
	if _, err := t.embedding.Backward(p.inputEmbed, g); err != nil {
		return fmt.Errorf("input embedding backward: %w", err)
	}
	return nil
}

// TrainExample runs one forward → backward → update step on tokens and
// returns the example loss.
//
// Fails with ErrSequenceTooShort for fewer than two tokens; nothing is
// updated in that case.
func (t *Transformer) TrainExample(tokens []int32) (float32, error) {
	p, err := t.forward(tokens)
	if err != nil {
		return 0, fmt.Errorf("train example: %w", err)
	}
	if err := t.backward(p); err != nil {
		t.optimizer.ZeroGrad()
		return 0, fmt.Errorf("train example: %w", err)
	}

	t.optimizer.Step()
	t.optimizer.ZeroGrad()
	return p.loss, nil
}

// Train runs Epochs passes over corpus, one example at a time, in order.
//
// Examples with fewer than two tokens are skipped. The mean loss of every
// epoch is logged and appended to the result. ctx is checked before every
// epoch and between examples; on cancellation the epochs completed so far
// are returned together with the wrapped context error.
func (t *Transformer) Train(ctx context.Context, corpus [][]int32) (TrainResult, error) {
	var result TrainResult

	usable := 0
	for _, tokens := range corpus {
		if len(tokens) >= 2 {
			usable++
		}
	}
	if usable == 0 {
		return result, fmt.Errorf("train: no example in corpus of %d: %w", len(corpus), ErrSequenceTooShort)
	}

	t.logger.Info("training started",
		"examples", usable,
		"skipped", len(corpus)-usable,
		"epochs", t.cfg.Epochs,
		"parameters", t.NumParameters(),
		"optimizer", t.optimizerName(),
	)

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("train: before epoch %d: %w", epoch, err)
		}

		var total float64
		var trained int
		for i, tokens := range corpus {
			if err := ctx.Err(); err != nil {
				return result, fmt.Errorf("train: epoch %d, example %d: %w", epoch, i, err)
			}

			loss, err := t.TrainExample(tokens)
			if errors.Is(err, ErrSequenceTooShort) {
				continue
			}
			if err != nil {
				return result, fmt.Errorf("train: epoch %d, example %d: %w", epoch, i, err)
			}
			total += float64(loss)
			trained++
		}

		mean := float32(total / float64(trained))
		result.EpochLosses = append(result.EpochLosses, mean)
		t.logger.Info("epoch", "epoch", epoch, "loss", mean)
		if t.cfg.OnEpoch != nil {
			t.cfg.OnEpoch(epoch, mean)
		}
	}

	return result, nil
}

// Evaluate returns the mean loss over corpus without updating any weight.
//
// Examples with fewer than two tokens are skipped.
func (t *Transformer) Evaluate(corpus [][]int32) (float32, error) {
	losses := make([]float32, len(corpus))
	errs := make([]error, len(corpus))
	parallel.For(len(corpus), func(i int) {
		p, err := t.forward(corpus[i])
		if err != nil {
			errs[i] = err
			return
		}
		losses[i] = p.loss
	}, parallel.Workers(t.cfg.EvalWorkers))

	var total float64
	var n int
	for i, err := range errs {
		if errors.Is(err, ErrSequenceTooShort) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("evaluate: example %d: %w", i, err)
		}
		total += float64(losses[i])
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("evaluate: no example in corpus of %d: %w", len(corpus), ErrSequenceTooShort)
	}
	return float32(total / float64(n)), nil
}

// Predict returns the greedy next-token choice for every position of tokens.
//
// The input is truncated to MaxLen and encoded; the decoder then runs over
// the encoder output, attending to that same output as memory. The result
// has one id per (truncated) input position. Empty input yields an empty
// result.
func (t *Transformer) Predict(tokens []int32) ([]int32, error) {
	tokens = truncate(tokens, t.cfg.MaxLen)
	if len(tokens) == 0 {
		return []int32{}, nil
	}

	x, _, err := t.embed(tokens)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	memory, _, err := t.encode(x)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	h, _, err := t.decode(memory, memory)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	logits, _, err := t.projection.Forward(h)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	out := make([]int32, logits.Rows)
	for i := range out {
		out[i] = int32(tensor.Argmax(logits.Row(i)))
	}
	return out, nil
}

// PredictText encodes text with tok, runs Predict and decodes the result.
func (t *Transformer) PredictText(tok tokenizer.Tokenizer, text string) (string, error) {
	ids, err := tok.Encode(text)
	if err != nil {
		return "", fmt.Errorf("predict text: %w", err)
	}
	out, err := t.Predict(ids)
	if err != nil {
		return "", err
	}
	return tok.Decode(out)
}

func (t *Transformer) optimizerName() string {
	if t.cfg.Optimizer == "" {
		return OptimizerSGD
	}
	return t.cfg.Optimizer
}
