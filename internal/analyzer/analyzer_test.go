package analyzer

import (
	"reflect"
	"testing"

	"github.com/ricesearch/rice-eval/internal/config"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

func boolPtr(b bool) *bool { return &b }

func TestBuild_DefaultAnalyzers(t *testing.T) {
	stopwords := []string{"Running", "about"}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"Standard", "The Quick-Brown fox's Den", []string{"the", "quick", "brown", "fox's", "den"}},
		{"Whitespace", "The Quick-Brown fox's", []string{"The", "Quick-Brown", "fox's"}},
		{"English", "The computers running fox's", []string{"comput", "run", "fox"}},
		{"English with custom stopwords", "The running fox", []string{"the", "fox"}},
	}

	analyzers := config.DefaultAnalyzers()
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := analyzers[i]
			if cfg.Name != tt.name {
				t.Fatalf("DefaultAnalyzers()[%d] = %s, want %s", i, cfg.Name, tt.name)
			}

			a, err := Build(cfg, stopwords)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			if got := Terms(a, tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Terms(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestBuild_StemmingConflatesVariants(t *testing.T) {
	a, err := Build(config.AnalyzerConfig{Name: "English", Preset: "english"}, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	got := Terms(a, "computers computing computed")
	for _, term := range got {
		if term != got[0] {
			t.Errorf("Terms() = %v, want one stem for all variants", got)
			break
		}
	}
}

func TestBuild_Overrides(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AnalyzerConfig
		text string
		want []string
	}{
		{
			name: "ascii folding",
			cfg:  config.AnalyzerConfig{Name: "Folded", Preset: "standard", ASCIIFold: boolPtr(true)},
			text: "Café Zürich",
			want: []string{"cafe", "zurich"},
		},
		{
			name: "nfkc normalization",
			cfg:  config.AnalyzerConfig{Name: "NFKC", Preset: "standard", Normalize: "nfkc"},
			text: "ﬁle",
			want: []string{"file"},
		},
		{
			name: "english stems with porter",
			cfg:  config.AnalyzerConfig{Name: "English", Preset: "english"},
			text: "generously generalizations computers' systems",
			want: []string{"gener", "gener", "comput", "system"},
		},
		{
			name: "snowball stemmer on request",
			cfg:  config.AnalyzerConfig{Name: "Snowball", Preset: "english", Stemmer: "snowball"},
			text: "generously generalizations computers' systems",
			want: []string{"generous", "general", "comput", "system"},
		},
		{
			name: "possessive with every apostrophe form",
			cfg:  config.AnalyzerConfig{Name: "Possessive", Preset: "english", Stemmer: "none"},
			text: "O＇Neil＇s Knuth's Hoare’s",
			want: []string{"o＇neil", "knuth", "hoare"},
		},
		{
			name: "english without stemming",
			cfg:  config.AnalyzerConfig{Name: "NoStem", Preset: "english", Stemmer: "none"},
			text: "the running dogs",
			want: []string{"running", "dogs"},
		},
		{
			name: "english without lowercase keeps case but stops lowercase words",
			cfg:  config.AnalyzerConfig{Name: "Cased", Preset: "english", Lowercase: boolPtr(false), Stemmer: "none"},
			text: "The the Dogs",
			want: []string{"The", "Dogs"},
		},
		{
			name: "standard with english stopwords",
			cfg:  config.AnalyzerConfig{Name: "StdStop", Preset: "standard", Stopwords: "english"},
			text: "the art of computer programming",
			want: []string{"art", "computer", "programming"},
		},
		{
			name: "simple splits on non-letters",
			cfg:  config.AnalyzerConfig{Name: "Simple", Preset: "simple"},
			text: "IBM-360 Assembler",
			want: []string{"ibm", "assembler"},
		},
		{
			name: "empty preset means standard",
			cfg:  config.AnalyzerConfig{Name: "Default"},
			text: "Hello World",
			want: []string{"hello", "world"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Build(tt.cfg, nil)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got := Terms(a, tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Terms(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestBuild_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.AnalyzerConfig
		custom []string
	}{
		{"unknown preset", config.AnalyzerConfig{Name: "Lancaster", Preset: "lancaster"}, nil},
		{"unknown stemmer", config.AnalyzerConfig{Name: "Krovetz", Preset: "english", Stemmer: "krovetz"}, nil},
		{"unknown tokenizer", config.AnalyzerConfig{Name: "NGram", Tokenizer: "ngram"}, nil},
		{"unknown normalization", config.AnalyzerConfig{Name: "NFD", Normalize: "nfd"}, nil},
		{"custom stopwords without list", config.AnalyzerConfig{Name: "Custom", Preset: "english", Stopwords: "custom"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Build(tt.cfg, tt.custom)
			if !errors.IsAnalyzerUnavailable(err) {
				t.Fatalf("Build() error = %v, want ANALYZER_UNAVAILABLE", err)
			}
			if a != nil {
				t.Error("Build() returned an analyzer alongside an error")
			}
		})
	}
}

func TestTerms_Empty(t *testing.T) {
	a, err := Build(config.AnalyzerConfig{Name: "English", Preset: "english"}, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := Terms(a, "   "); len(got) != 0 {
		t.Errorf("Terms() = %v, want none", got)
	}
	if got := Terms(a, "the and of"); len(got) != 0 {
		t.Errorf("Terms() = %v, want all stopped", got)
	}
}

func TestPresets(t *testing.T) {
	for _, name := range Presets() {
		if _, ok := presets[name]; !ok {
			t.Errorf("Presets() lists %q which is not defined", name)
		}
	}
	if len(Presets()) != len(presets) {
		t.Errorf("Presets() = %v, want %d entries", Presets(), len(presets))
	}
}
