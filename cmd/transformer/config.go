package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/VeryJokerJal/TransformerLib/internal/model"
	"github.com/VeryJokerJal/TransformerLib/internal/tokenizer"
)

// TokenizerWord selects the whitespace tokenizer over the vocabulary file.
const TokenizerWord = "word"

// runConfig is the YAML configuration file layout.
//
//	vocab: vocab.txt
//	corpus: corpus.txt
//	tokenizer: word
//	embedding_dim: 64
//	epochs: 20
type runConfig struct {
	Model     model.Config `yaml:",inline"`
	Vocab     string       `yaml:"vocab"`
	Corpus    string       `yaml:"corpus"`
	Tokenizer string       `yaml:"tokenizer"`
}

func defaultRunConfig() runConfig {
	return runConfig{
		Model:     model.DefaultConfig(0),
		Tokenizer: TokenizerWord,
	}
}

// loadRunConfig decodes path over the defaults. Unknown keys are rejected.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// flagValues holds the command-line overrides of a subcommand.
type flagValues struct {
	config    string
	vocab     string
	corpus    string
	tokenizer string
	epochs    int
	seed      uint64
	text      string
}

func (f *flagValues) register(fs *flag.FlagSet, withText bool) {
	fs.StringVar(&f.config, "config", "", "YAML configuration file")
	fs.StringVar(&f.vocab, "vocab", "", "vocabulary file, one word per line")
	fs.StringVar(&f.corpus, "corpus", "", "training corpus, one example per line")
	fs.StringVar(&f.tokenizer, "tokenizer", "", `"word" or a tiktoken encoding (cl100k_base, p50k_base, r50k_base)`)
	fs.IntVar(&f.epochs, "epochs", 0, "number of training epochs")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed for weight initialization")
	if withText {
		fs.StringVar(&f.text, "text", "", "input text to predict from")
	}
}

// resolve loads the config file and applies every flag that was set explicitly.
func (f *flagValues) resolve(fs *flag.FlagSet) (runConfig, error) {
	cfg, err := loadRunConfig(f.config)
	if err != nil {
		return cfg, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "vocab":
			cfg.Vocab = f.vocab
		case "corpus":
			cfg.Corpus = f.corpus
		case "tokenizer":
			cfg.Tokenizer = f.tokenizer
		case "epochs":
			cfg.Model.Epochs = f.epochs
		case "seed":
			cfg.Model.Seed = f.seed
		}
	})

	if cfg.Corpus == "" {
		return cfg, errors.New("no corpus given (-corpus or corpus:)")
	}
	if cfg.Tokenizer == TokenizerWord && cfg.Vocab == "" {
		return cfg, errors.New("word tokenizer needs a vocabulary (-vocab or vocab:)")
	}
	return cfg, nil
}

// newTokenizer builds the tokenizer named by cfg.Tokenizer.
func newTokenizer(cfg runConfig, loadVocab func(string) (*tokenizer.Vocabulary, error)) (tokenizer.Tokenizer, error) {
	if cfg.Tokenizer == TokenizerWord {
		vocab, err := loadVocab(cfg.Vocab)
		if err != nil {
			return nil, err
		}
		return tokenizer.NewWordTokenizer(vocab), nil
	}
	return tokenizer.NewTikToken(cfg.Tokenizer)
}
