// Package main provides the transformer CLI.
//
// Usage:
//
//	transformer train   -config run.yaml -vocab vocab.txt -corpus corpus.txt
//	transformer predict -config run.yaml -corpus corpus.txt -text "the cat"
//	transformer version
//
// Nothing is persisted: predict trains on the corpus first, then runs the
// model over -text (or every line of stdin when -text is empty).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"

	"github.com/VeryJokerJal/TransformerLib/internal/data"
	"github.com/VeryJokerJal/TransformerLib/internal/model"
	"github.com/VeryJokerJal/TransformerLib/internal/tokenizer"
)

const version = "v0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: transformer <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  train      Train on a corpus and report per-epoch and final loss")
	fmt.Fprintln(w, "  predict    Train on a corpus, then predict from -text or stdin")
	fmt.Fprintln(w, "  version    Show version")
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errors.New("missing command")
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "transformer %s\n", version)
		return nil
	case "train":
		return runTrain(ctx, args[1:], stdout, stderr)
	case "predict":
		return runPredict(ctx, args[1:], stdin, stdout, stderr)
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return nil
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// session is a trained model with the tokenizer that fed it.
type session struct {
	model  *model.Transformer
	tok    tokenizer.Tokenizer
	corpus [][]int32
	result model.TrainResult
}

func train(ctx context.Context, name string, args []string, stderr io.Writer, withText bool) (*session, *flagValues, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var fv flagValues
	fv.register(fs, withText)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg, err := fv.resolve(fs)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil)).With("run", uuid.NewString())

	tok, err := newTokenizer(cfg, data.LoadVocabulary)
	if err != nil {
		return nil, nil, fmt.Errorf("tokenizer: %w", err)
	}

	corpus, err := data.LoadCorpus(cfg.Corpus, tok)
	if err != nil {
		return nil, nil, err
	}

	mc := cfg.Model
	mc.VocabSize = tok.VocabSize()
	mc.Logger = logger

	m, err := model.New(mc)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("model built",
		"tokenizer", cfg.Tokenizer,
		"vocab_size", mc.VocabSize,
		"parameters", m.NumParameters(),
		"examples", len(corpus),
	)

	result, err := m.Train(ctx, corpus)
	if err != nil {
		return nil, nil, err
	}
	return &session{model: m, tok: tok, corpus: corpus, result: result}, &fv, nil
}

func runTrain(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	s, _, err := train(ctx, "train", args, stderr, false)
	if err != nil {
		return err
	}
	for i, loss := range s.result.EpochLosses {
		fmt.Fprintf(stdout, "epoch %d\tloss %.6f\n", i+1, loss)
	}

	loss, err := s.model.Evaluate(s.corpus)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "eval\tloss %.6f\n", loss)
	return nil
}

func runPredict(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	s, fv, err := train(ctx, "predict", args, stderr, true)
	if err != nil {
		return err
	}

	inputs := []string{fv.text}
	if fv.text == "" {
		lines, err := data.ReadLines(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		inputs = lines
	}

	for _, text := range inputs {
		if strings.TrimSpace(text) == "" {
			continue
		}
		out, err := s.model.PredictText(s.tok, text)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, out)
	}
	return nil
}
