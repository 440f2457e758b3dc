package model

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeryJokerJal/TransformerLib/internal/nn"
)

func tinyConfig() Config {
	return Config{
		VocabSize:    6,
		EmbeddingDim: 8,
		MaxLen:       8,
		NumHeads:     2,
		HiddenDim:    16,
		NumLayers:    1,
		LearningRate: 0.01,
		Epochs:       3,
		Seed:         7,
		Optimizer:    OptimizerSGD,
	}
}

func mustNew(t *testing.T, cfg Config) *Transformer {
	t.Helper()
	m, err := New(cfg)
	require.NoError(t, err)
	return m
}

var tinyCorpus = [][]int32{
	{0, 1, 2, 3},
	{1, 2, 3, 4, 5},
	{5, 4, 3},
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := tinyConfig()
	cfg.NumHeads = 3

	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTransformer_Parameters(t *testing.T) {
	cfg := tinyConfig()
	cfg.NumLayers = 2
	m := mustNew(t, cfg)

	// embedding 1 + encoders 2*10 + decoders 2*16 + projection 2
	assert.Len(t, m.Parameters(), 55)

	d, h, v := cfg.EmbeddingDim, cfg.HiddenDim, cfg.VocabSize
	encoder := 4*d*d + 2*d*h + 4*d
	decoder := 8*d*d + 2*d*h + 6*d
	want := v*d + 2*encoder + 2*decoder + d*v + v
	assert.Equal(t, want, m.NumParameters())
}

func TestTrainExample_TooShort(t *testing.T) {
	m := mustNew(t, tinyConfig())
	before := m.projection.Weight.Value().Clone()

	for _, tokens := range [][]int32{nil, {3}} {
		_, err := m.TrainExample(tokens)
		assert.ErrorIs(t, err, ErrSequenceTooShort)
	}
	assert.Equal(t, before.Data, m.projection.Weight.Value().Data)
}

func TestTrainExample_OutOfVocabulary(t *testing.T) {
	m := mustNew(t, tinyConfig())

	_, err := m.TrainExample([]int32{1, 9})
	assert.ErrorIs(t, err, nn.ErrOutOfRange)
}

func TestTrainExample_Truncates(t *testing.T) {
	cfg := tinyConfig()
	cfg.MaxLen = 3
	m := mustNew(t, cfg)

	p, err := m.forward([]int32{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 2}, p.input)
	assert.Equal(t, []int32{1, 2, 3}, p.target)

	p, err = m.forward([]int32{4, 5})
	require.NoError(t, err)
	assert.Equal(t, []int32{4, 5}, p.input)
	assert.Equal(t, []int32{5}, p.target)
}

func TestTrain_LossDecreases(t *testing.T) {
	for _, opt := range []string{OptimizerSGD, OptimizerAdam} {
		t.Run(opt, func(t *testing.T) {
			cfg := tinyConfig()
			cfg.Optimizer = opt
			cfg.Epochs = 30
			if opt == OptimizerSGD {
				cfg.LearningRate = 0.05
			}
			m := mustNew(t, cfg)

			result, err := m.Train(context.Background(), tinyCorpus)
			require.NoError(t, err)
			require.Len(t, result.EpochLosses, cfg.Epochs)
			assert.Less(t, result.FinalLoss(), result.EpochLosses[0])
		})
	}
}

func TestTrain_SkipsShortExamples(t *testing.T) {
	m := mustNew(t, tinyConfig())

	result, err := m.Train(context.Background(), [][]int32{{1}, {0, 1, 2}, {}})
	require.NoError(t, err)
	assert.Len(t, result.EpochLosses, 3)

	_, err = m.Train(context.Background(), [][]int32{{1}, {}})
	assert.ErrorIs(t, err, ErrSequenceTooShort)
}

func TestTrain_LogsAndCallback(t *testing.T) {
	var buf bytes.Buffer
	cfg := tinyConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	var epochs []int
	cfg.OnEpoch = func(epoch int, loss float32) {
		epochs = append(epochs, epoch)
		assert.False(t, math.IsNaN(float64(loss)))
	}
	m := mustNew(t, cfg)

	_, err := m.Train(context.Background(), tinyCorpus)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, epochs)
	assert.Equal(t, 3, strings.Count(buf.String(), "msg=epoch"))
	assert.Contains(t, buf.String(), "training started")
}

func TestTrain_ContextCanceled(t *testing.T) {
	m := mustNew(t, tinyConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := m.Train(ctx, tinyCorpus)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.EpochLosses)
}

func TestTrain_CanceledBetweenEpochs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := tinyConfig()
	cfg.Epochs = 10
	cfg.OnEpoch = func(epoch int, _ float32) {
		if epoch == 2 {
			cancel()
		}
	}
	m := mustNew(t, cfg)

	result, err := m.Train(ctx, tinyCorpus)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, result.EpochLosses, 2)
}

func TestTrain_SeededDeterminism(t *testing.T) {
	train := func(seed uint64) []*nn.Parameter {
		cfg := tinyConfig()
		cfg.Seed = seed
		m := mustNew(t, cfg)
		_, err := m.TrainExample(tinyCorpus[1])
		require.NoError(t, err)
		return m.Parameters()
	}

	a, b, c := train(1), train(1), train(2)
	for i := range a {
		assert.Equal(t, a[i].Value().Data, b[i].Value().Data, a[i].Name())
	}
	assert.NotEqual(t, a[0].Value().Data, c[0].Value().Data)
}

func TestEvaluate_NoUpdate(t *testing.T) {
	m := mustNew(t, tinyConfig())
	before := m.embedding.Weight.Value().Clone()

	loss, err := m.Evaluate(tinyCorpus)
	require.NoError(t, err)
	assert.Greater(t, loss, float32(0))
	assert.Equal(t, before.Data, m.embedding.Weight.Value().Data)

	again, err := m.Evaluate(tinyCorpus)
	require.NoError(t, err)
	assert.Equal(t, loss, again)

	_, err = m.Evaluate([][]int32{{1}})
	assert.ErrorIs(t, err, ErrSequenceTooShort)
}

func TestEvaluate_WorkersAgree(t *testing.T) {
	corpus := append([][]int32{{2}}, tinyCorpus...)
	corpus = append(corpus, tinyCorpus...)

	cfg := tinyConfig()
	cfg.EvalWorkers = 1
	seq, err := mustNew(t, cfg).Evaluate(corpus)
	require.NoError(t, err)

	cfg.EvalWorkers = 4
	par, err := mustNew(t, cfg).Evaluate(corpus)
	require.NoError(t, err)

	assert.Equal(t, seq, par)
}

func TestPredict(t *testing.T) {
	cfg := tinyConfig()
	cfg.MaxLen = 4
	m := mustNew(t, cfg)

	out, err := m.Predict([]int32{0, 1, 2})
	require.NoError(t, err)
	assert.Len(t, out, 3)
	for _, id := range out {
		assert.GreaterOrEqual(t, id, int32(0))
		assert.Less(t, id, int32(cfg.VocabSize))
	}

	out, err = m.Predict([]int32{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Len(t, out, 4, "input is truncated to MaxLen")

	out, err = m.Predict(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = m.Predict([]int32{6})
	assert.ErrorIs(t, err, nn.ErrOutOfRange)
}

func TestLossGradient_FiniteDifference(t *testing.T) {
	m := mustNew(t, tinyConfig())
	tokens := []int32{0, 3, 1, 4}

	p, err := m.forward(tokens)
	require.NoError(t, err)
	require.NoError(t, m.backward(p))

	const eps = 1e-3
	lossAt := func() float64 {
		p, err := m.forward(tokens)
		require.NoError(t, err)
		return float64(p.loss)
	}

	check := func(param *nn.Parameter, idx []int) {
		for _, i := range idx {
			analytic := float64(param.Grad().Data[i])
			v := param.Value().Data
			orig := v[i]

			v[i] = orig + eps
			plus := lossAt()
			v[i] = orig - eps
			minus := lossAt()
			v[i] = orig

			numeric := (plus - minus) / (2 * eps)
			assert.InDeltaf(t, numeric, analytic, 1e-2*(1+math.Abs(numeric)),
				"%s[%d]: numeric %v, analytic %v", param.Name(), i, numeric, analytic)
		}
	}

	d := m.cfg.EmbeddingDim
	check(m.projection.Bias, []int{0, 1, 2, 3, 4, 5})
	check(m.projection.Weight, []int{0, 7, 13, 40})
	// Embedding rows of ids used on the input path (0) and both paths (3, 1).
	check(m.embedding.Weight, []int{0, 3*d + 2, 1*d + 5})
	check(m.encoders[0].SelfAttention.WQ, []int{0, 9, 27})
	check(m.encoders[0].Norm2.Gamma, []int{1, 6})
	check(m.decoders[0].CrossAttention.WK, []int{2, 33})
	check(m.decoders[0].Norm1.Beta, []int{4})
}
