// Package model assembles the nn layers into a trainable encoder/decoder Transformer.
//
// The model consumes token ids ([]int32); turning text into ids is the job of
// a tokenizer.Tokenizer. Training is synchronous and processes one example
// at a time:
//
//	m, err := model.New(model.Config{
//	    VocabSize:    vocab.Size(),
//	    EmbeddingDim: 16,
//	    MaxLen:       32,
//	    NumHeads:     2,
//	    HiddenDim:    64,
//	    NumLayers:    1,
//	    LearningRate: 0.01,
//	    Epochs:       50,
//	    Optimizer:    model.OptimizerAdam,
//	    Logger:       slog.Default(),
//	})
//	result, err := m.Train(ctx, corpus)
//	fmt.Println(result.FinalLoss())
package model
