package index

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/blugelabs/bluge/analysis"
	"github.com/blugelabs/bluge/analysis/token"
	"github.com/blugelabs/bluge/analysis/tokenizer"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

const collection = "1\tSmith, J.\tComputer programming languages\tA survey of languages for computers\n" +
	"2\tDoe, A.\tMatrix inversion\tNumerical methods for inverting matrices\n" +
	"\n" +
	"3\t\tOperating systems\tTime-sharing systems and scheduling\n"

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cacm.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func lowercaseAnalyzer() *analysis.Analyzer {
	return &analysis.Analyzer{
		Tokenizer:    tokenizer.NewUnicodeTokenizer(),
		TokenFilters: []analysis.TokenFilter{token.NewLowerCaseFilter()},
	}
}

func buildIndex(t *testing.T, maxResults int) *Index {
	t.Helper()
	idx, err := NewProvider(maxResults, nil).Build(context.Background(), writeFile(t, collection), lowercaseAnalyzer())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestLoadDocuments(t *testing.T) {
	coll, err := LoadDocuments(writeFile(t, collection+"7\n"))
	if err != nil {
		t.Fatalf("LoadDocuments() error = %v", err)
	}

	want := []Document{
		{ID: 1, Authors: "Smith, J.", Title: "Computer programming languages", Summary: "A survey of languages for computers"},
		{ID: 2, Authors: "Doe, A.", Title: "Matrix inversion", Summary: "Numerical methods for inverting matrices"},
		{ID: 3, Title: "Operating systems", Summary: "Time-sharing systems and scheduling"},
		{ID: 7},
	}
	if !reflect.DeepEqual(coll.Documents, want) {
		t.Errorf("Documents = %+v, want %+v", coll.Documents, want)
	}
	if coll.Hash != ComputeHash([]byte(collection+"7\n")) {
		t.Errorf("Hash = %s, want hash of file content", coll.Hash)
	}
}

func TestLoadDocuments_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"non-numeric id", func(t *testing.T) string { return writeFile(t, "X1\tauthor\ttitle\tsummary\n") }},
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.txt") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDocuments(tt.path(t))
			if !errors.IsIndexBuild(err) {
				t.Errorf("LoadDocuments() error = %v, want INDEX_BUILD_ERROR", err)
			}
		})
	}
}

func TestDocument_Content(t *testing.T) {
	if got := (Document{Title: "T"}).Content(); got != "T" {
		t.Errorf("Content() = %q, want %q", got, "T")
	}
	if got := (Document{Title: "T", Summary: "S"}).Content(); got != "T\nS" {
		t.Errorf("Content() = %q, want %q", got, "T\nS")
	}
}

func TestIndex_Search(t *testing.T) {
	idx := buildIndex(t, 0)

	if idx.DocumentCount() != 3 {
		t.Errorf("DocumentCount() = %d, want 3", idx.DocumentCount())
	}
	if idx.Hash() != ComputeHash([]byte(collection)) {
		t.Errorf("Hash() = %s, want hash of the collection", idx.Hash())
	}

	tests := []struct {
		query string
		want  []int
	}{
		{"MATRIX", []int{2}},
		{"scheduling systems", []int{3}},
		{"zebra", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := idx.Search(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != len(tt.want) || (len(got) > 0 && !reflect.DeepEqual(got, tt.want)) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestIndex_SearchMatchesAnyTerm(t *testing.T) {
	idx := buildIndex(t, 0)

	got, err := idx.Search(context.Background(), "languages matrix")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search() = %v, want documents 1 and 2", got)
	}
	seen := map[int]bool{got[0]: true, got[1]: true}
	if !seen[1] || !seen[2] {
		t.Errorf("Search() = %v, want documents 1 and 2", got)
	}
}

func TestIndex_SearchRanksBetterMatchFirst(t *testing.T) {
	idx := buildIndex(t, 0)

	got, err := idx.Search(context.Background(), "languages computers programming inversion")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 || got[0] != 1 {
		t.Errorf("Search() = %v, want document 1 ranked first", got)
	}
}

func TestIndex_MaxResults(t *testing.T) {
	idx := buildIndex(t, 1)

	got, err := idx.Search(context.Background(), "languages matrix systems")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Search() = %v, want a single result", got)
	}
}

func TestProvider_BuildErrors(t *testing.T) {
	p := NewProvider(10, nil)

	if _, err := p.Build(context.Background(), writeFile(t, collection), nil); !errors.IsIndexBuild(err) {
		t.Errorf("Build(nil analyzer) error = %v, want INDEX_BUILD_ERROR", err)
	}
	if _, err := p.Build(context.Background(), writeFile(t, "bad\n"), lowercaseAnalyzer()); !errors.IsIndexBuild(err) {
		t.Errorf("Build(malformed) error = %v, want INDEX_BUILD_ERROR", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Build(ctx, writeFile(t, collection), lowercaseAnalyzer()); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Build(cancelled) error = %v, want context.Canceled", err)
	}
}
