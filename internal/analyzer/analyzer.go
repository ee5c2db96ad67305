// Package analyzer turns named analyzer configurations into bluge text-analysis chains.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/blugelabs/bluge/analysis"
	"github.com/blugelabs/bluge/analysis/lang/en"
	"github.com/blugelabs/bluge/analysis/token"
	"github.com/blugelabs/bluge/analysis/tokenizer"
	"golang.org/x/text/unicode/norm"

	"github.com/ricesearch/rice-eval/internal/config"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

// Option values accepted in an analyzer configuration.
const (
	TokenizerUnicode    = "unicode"
	TokenizerWhitespace = "whitespace"
	TokenizerLetter     = "letter"

	StopwordsNone    = "none"
	StopwordsEnglish = "english"
	StopwordsCustom  = "custom"

	StemmerNone     = "none"
	StemmerPorter   = "porter"
	StemmerSnowball = "snowball"

	NormalizeNone = "none"
	NormalizeNFKC = "nfkc"
)

// EnglishStopwords is the default English stop set of the reference analyzer.
var EnglishStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by",
	"for", "if", "in", "into", "is", "it",
	"no", "not", "of", "on", "or", "such",
	"that", "the", "their", "then", "there", "these",
	"they", "this", "to", "was", "will", "with",
}

// pipeline is a fully resolved analyzer configuration.
type pipeline struct {
	tokenizer  string
	lowercase  bool
	possessive bool
	asciiFold  bool
	normalize  string
	stopwords  string
	stemmer    string
}

var presets = map[string]pipeline{
	"standard": {
		tokenizer: TokenizerUnicode,
		lowercase: true,
		stopwords: StopwordsNone,
		stemmer:   StemmerNone,
		normalize: NormalizeNone,
	},
	"whitespace": {
		tokenizer: TokenizerWhitespace,
		stopwords: StopwordsNone,
		stemmer:   StemmerNone,
		normalize: NormalizeNone,
	},
	"simple": {
		tokenizer: TokenizerLetter,
		lowercase: true,
		stopwords: StopwordsNone,
		stemmer:   StemmerNone,
		normalize: NormalizeNone,
	},
	"english": {
		tokenizer:  TokenizerUnicode,
		lowercase:  true,
		possessive: true,
		stopwords:  StopwordsEnglish,
		stemmer:    StemmerPorter,
		normalize:  NormalizeNone,
	},
}

// Presets returns the known preset names, sorted.
func Presets() []string {
	return []string{"english", "simple", "standard", "whitespace"}
}

// Build constructs the analyzer described by cfg. custom is the stopword list
// used when the configuration asks for custom stopwords. A configuration that
// cannot be constructed yields an ANALYZER_UNAVAILABLE error.
func Build(cfg config.AnalyzerConfig, custom []string) (*analysis.Analyzer, error) {
	p, err := resolve(cfg)
	if err != nil {
		return nil, err
	}

	a := &analysis.Analyzer{}

	switch p.tokenizer {
	case TokenizerUnicode:
		a.Tokenizer = tokenizer.NewUnicodeTokenizer()
	case TokenizerWhitespace:
		a.Tokenizer = tokenizer.NewWhitespaceTokenizer()
	case TokenizerLetter:
		a.Tokenizer = tokenizer.NewLetterTokenizer()
	}

	if p.normalize == NormalizeNFKC {
		a.TokenFilters = append(a.TokenFilters, token.NewUnicodeNormalizeFilter(norm.NFKC))
	}
	if p.possessive {
		a.TokenFilters = append(a.TokenFilters, en.NewPossessiveFilter())
	}
	if p.lowercase {
		a.TokenFilters = append(a.TokenFilters, token.NewLowerCaseFilter())
	}
	if p.asciiFold {
		a.TokenFilters = append(a.TokenFilters, asciiFoldFilter{})
	}

	switch p.stopwords {
	case StopwordsEnglish:
		a.TokenFilters = append(a.TokenFilters, token.NewStopTokensFilter(tokenMap(EnglishStopwords, p.lowercase)))
	case StopwordsCustom:
		if len(custom) == 0 {
			return nil, errors.AnalyzerUnavailableError(cfg.Name, "custom stopwords requested but no stopword list is loaded")
		}
		a.TokenFilters = append(a.TokenFilters, token.NewStopTokensFilter(tokenMap(custom, p.lowercase)))
	}

	switch p.stemmer {
	case StemmerPorter:
		a.TokenFilters = append(a.TokenFilters, token.NewPorterStemmer())
	case StemmerSnowball:
		a.TokenFilters = append(a.TokenFilters, snowballFilter{})
	}

	a.TokenFilters = append(a.TokenFilters, emptyTermFilter{})

	return a, nil
}

// resolve applies cfg's overrides on top of its preset.
func resolve(cfg config.AnalyzerConfig) (pipeline, error) {
	preset := strings.ToLower(strings.TrimSpace(cfg.Preset))
	if preset == "" {
		preset = "standard"
	}
	p, ok := presets[preset]
	if !ok {
		return pipeline{}, errors.AnalyzerUnavailableError(cfg.Name, fmt.Sprintf("unknown preset %q", cfg.Preset))
	}

	if cfg.Tokenizer != "" {
		p.tokenizer = strings.ToLower(cfg.Tokenizer)
	}
	if cfg.Lowercase != nil {
		p.lowercase = *cfg.Lowercase
	}
	if cfg.Possessive != nil {
		p.possessive = *cfg.Possessive
	}
	if cfg.ASCIIFold != nil {
		p.asciiFold = *cfg.ASCIIFold
	}
	if cfg.Normalize != "" {
		p.normalize = strings.ToLower(cfg.Normalize)
	}
	if cfg.Stopwords != "" {
		p.stopwords = strings.ToLower(cfg.Stopwords)
	}
	if cfg.Stemmer != "" {
		p.stemmer = strings.ToLower(cfg.Stemmer)
	}

	checks := []struct {
		field, value string
		allowed      []string
	}{
		{"tokenizer", p.tokenizer, []string{TokenizerUnicode, TokenizerWhitespace, TokenizerLetter}},
		{"stopwords", p.stopwords, []string{StopwordsNone, StopwordsEnglish, StopwordsCustom}},
		{"stemmer", p.stemmer, []string{StemmerNone, StemmerPorter, StemmerSnowball}},
		{"normalize", p.normalize, []string{NormalizeNone, NormalizeNFKC}},
	}
	for _, c := range checks {
		if !contains(c.allowed, c.value) {
			return pipeline{}, errors.AnalyzerUnavailableError(cfg.Name,
				fmt.Sprintf("unsupported %s %q (supported: %s)", c.field, c.value, strings.Join(c.allowed, ", ")))
		}
	}

	return p, nil
}

// tokenMap builds a bluge stop set. Words are lowercased when the chain
// lowercases terms before the stop filter.
func tokenMap(words []string, lower bool) analysis.TokenMap {
	m := make(analysis.TokenMap, len(words))
	for _, w := range words {
		if lower {
			w = strings.ToLower(w)
		}
		m[w] = true
	}
	return m
}

// Terms runs text through a and returns the resulting terms.
func Terms(a *analysis.Analyzer, text string) []string {
	stream := a.Analyze([]byte(text))
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		terms = append(terms, string(tok.Term))
	}
	return terms
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
