package analyzer

import (
	"unicode/utf8"

	"github.com/blugelabs/bluge/analysis"
	"github.com/kljensen/snowball/english"
	"github.com/mozillazg/go-unidecode"
)

// snowballFilter applies the Snowball English (Porter2) stemmer.
type snowballFilter struct{}

func (snowballFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, tok := range input {
		if tok.KeyWord || !utf8.Valid(tok.Term) {
			continue
		}
		tok.Term = []byte(english.Stem(string(tok.Term), false))
	}
	return input
}

// asciiFoldFilter transliterates every term to ASCII ("café" -> "cafe").
type asciiFoldFilter struct{}

func (asciiFoldFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, tok := range input {
		if isASCII(tok.Term) {
			continue
		}
		tok.Term = []byte(unidecode.Unidecode(string(tok.Term)))
	}
	return input
}

// emptyTermFilter drops tokens that earlier filters reduced to nothing.
type emptyTermFilter struct{}

func (emptyTermFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	out := input[:0]
	for _, tok := range input {
		if len(tok.Term) > 0 {
			out = append(out, tok)
		}
	}
	return out
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
