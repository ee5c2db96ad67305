package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ricesearch/rice-eval/internal/config"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadQueries(t *testing.T) {
	path := writeFile(t, "query.txt", "1\tWhat articles exist which deal with TSS?\n\n  2\tparallel  languages \n3\tcompilers\twith tabs\n")

	queries, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("LoadQueries() error = %v", err)
	}

	want := []Query{
		{ID: 1, Text: "What articles exist which deal with TSS?"},
		{ID: 2, Text: "parallel  languages"},
		{ID: 3, Text: "compilers"},
	}
	if !reflect.DeepEqual(queries, want) {
		t.Errorf("LoadQueries() = %+v, want %+v", queries, want)
	}
}

func TestLoadQueries_OrdinalIgnored(t *testing.T) {
	// IDs follow line order, not the ordinal column.
	path := writeFile(t, "query.txt", "7\tfirst\n3\tsecond\n")

	queries, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("LoadQueries() error = %v", err)
	}
	if queries[0].ID != 1 || queries[1].ID != 2 {
		t.Errorf("IDs = %d, %d, want 1, 2", queries[0].ID, queries[1].ID)
	}
}

func TestLoadQueries_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing tab", "1 no tab here\n"},
		{"non-numeric ordinal", "one\tquery\n"},
		{"empty text", "1\t   \n2\tok\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadQueries(writeFile(t, "query.txt", tt.content))
			if !errors.IsDataFormat(err) {
				t.Errorf("LoadQueries() error = %v, want DATA_FORMAT_ERROR", err)
			}
		})
	}
}

func TestLoadQrels(t *testing.T) {
	path := writeFile(t, "qrels.txt", "1;10,20\n2;30\n1; 20 ,40\n3;5,5,5\n")

	qrels, err := LoadQrels(path)
	if err != nil {
		t.Fatalf("LoadQrels() error = %v", err)
	}

	tests := []struct {
		query int
		want  []int
	}{
		{1, []int{10, 20, 40}}, // two lines merged, duplicate 20 collapsed
		{2, []int{30}},
		{3, []int{5}},
	}
	for _, tt := range tests {
		if got := qrels.Relevant(tt.query).Sorted(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("qrels[%d] = %v, want %v", tt.query, got, tt.want)
		}
	}

	if qrels.Relevant(4) != nil {
		t.Error("absent query should have no judgments")
	}
}

func TestLoadQrels_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    string
	}{
		{"no separator", "1 10,20\n", "1"},
		{"two separators", "1;10;20\n", "1"},
		{"non-numeric query", "1;10\nx;20\n", "2"},
		{"non-numeric doc", "1;10,abc\n", "1"},
		{"empty doc list", "1;\n", "1"},
		{"trailing comma", "1;10,\n", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadQrels(writeFile(t, "qrels.txt", tt.content))
			if !errors.IsDataFormat(err) {
				t.Fatalf("LoadQrels() error = %v, want DATA_FORMAT_ERROR", err)
			}
			appErr := err.(*errors.AppError)
			if appErr.Details["line"] != tt.line {
				t.Errorf("line = %s, want %s", appErr.Details["line"], tt.line)
			}
		})
	}
}

func TestLoadStopwords(t *testing.T) {
	path := writeFile(t, "common_words.txt", "a\nabout\n\n  the  \n")

	words, err := LoadStopwords(path)
	if err != nil {
		t.Fatalf("LoadStopwords() error = %v", err)
	}

	want := []string{"a", "about", "the"}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("LoadStopwords() = %v, want %v", words, want)
	}

	_, err = LoadStopwords(writeFile(t, "bad.txt", "two words\n"))
	if !errors.IsDataFormat(err) {
		t.Errorf("LoadStopwords() error = %v, want DATA_FORMAT_ERROR", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadQueries(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.IsNotFound(err) {
		t.Errorf("LoadQueries() error = %v, want NOT_FOUND", err)
	}
}

func TestLoad(t *testing.T) {
	cfg := config.DatasetConfig{
		Queries: writeFile(t, "query.txt", "1\ta b\n2\tc\n"),
		Qrels:   writeFile(t, "qrels.txt", "1;10,20\n2;30\n"),
	}

	ds, err := Load(cfg)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(ds.Queries) != 2 || len(ds.Qrels) != 2 {
		t.Errorf("Load() = %d queries, %d qrels", len(ds.Queries), len(ds.Qrels))
	}
	if ds.Stopwords != nil {
		t.Errorf("Stopwords = %v, want nil without a path", ds.Stopwords)
	}

	cfg.Stopwords = writeFile(t, "stop.txt", "the\n")
	ds, err = Load(cfg)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(ds.Stopwords) != 1 {
		t.Errorf("Stopwords = %v, want [the]", ds.Stopwords)
	}
}

func TestWriteQrels_RoundTrip(t *testing.T) {
	path := writeFile(t, "qrels.txt", "2;30\n1;20,10\n1;10\n")

	original, err := LoadQrels(path)
	if err != nil {
		t.Fatalf("LoadQrels() error = %v", err)
	}

	var buf bytes.Buffer
	if err := WriteQrels(&buf, original); err != nil {
		t.Fatalf("WriteQrels() error = %v", err)
	}

	if got, want := buf.String(), "1;10,20\n2;30\n"; got != want {
		t.Errorf("WriteQrels() = %q, want %q", got, want)
	}

	reloaded, err := LoadQrels(writeFile(t, "again.txt", buf.String()))
	if err != nil {
		t.Fatalf("LoadQrels() error = %v", err)
	}
	if !reflect.DeepEqual(original, reloaded) {
		t.Errorf("round trip = %v, want %v", reloaded, original)
	}
}

func TestComputeStats(t *testing.T) {
	queries := []Query{{ID: 1, Text: "a b"}, {ID: 2, Text: "c"}, {ID: 3, Text: "d"}}
	qrels := Qrels{
		1: NewRelevantSet(10, 20),
		2: NewRelevantSet(30, 40, 50, 60),
	}

	stats := ComputeStats(queries, qrels)
	if stats.QueryCount != 3 {
		t.Errorf("QueryCount = %d, want 3", stats.QueryCount)
	}
	if stats.QrelCount != 2 {
		t.Errorf("QrelCount = %d, want 2", stats.QrelCount)
	}
	if stats.AvgRelevantPerQuery != 3 {
		t.Errorf("AvgRelevantPerQuery = %v, want 3", stats.AvgRelevantPerQuery)
	}

	if empty := ComputeStats(nil, nil); empty.AvgRelevantPerQuery != 0 {
		t.Errorf("AvgRelevantPerQuery = %v, want 0 without qrels", empty.AvgRelevantPerQuery)
	}
}

func TestRelevantSet(t *testing.T) {
	s := NewRelevantSet(3, 1, 3)
	if len(s) != 2 {
		t.Errorf("len = %d, want 2", len(s))
	}
	if !s.Contains(1) || s.Contains(2) {
		t.Error("Contains() mismatch")
	}
	if got := s.Sorted(); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("Sorted() = %v", got)
	}
}
