package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ricesearch/rice-eval/internal/config"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

const (
	querySeparator = "\t"
	qrelSeparator  = ";"
	docSeparator   = ","
)

// Load reads queries, qrels and (when configured) stopwords.
// Any malformed line aborts the load.
func Load(cfg config.DatasetConfig) (*Dataset, error) {
	queries, err := LoadQueries(cfg.Queries)
	if err != nil {
		return nil, err
	}

	qrels, err := LoadQrels(cfg.Qrels)
	if err != nil {
		return nil, err
	}

	var stopwords []string
	if cfg.Stopwords != "" {
		stopwords, err = LoadStopwords(cfg.Stopwords)
		if err != nil {
			return nil, err
		}
	}

	return &Dataset{
		Queries:   queries,
		Qrels:     qrels,
		Stopwords: stopwords,
	}, nil
}

// LoadQueries reads `<ordinal>\t<text>` lines. The ordinal is checked but
// discarded; line order defines the query ID.
func LoadQueries(path string) ([]Query, error) {
	var queries []Query
	err := readLines(path, func(lineNo int, line string) error {
		q, err := parseQuery(line)
		if err != nil {
			return errors.DataFormatError(path, lineNo, err.Error())
		}
		q.ID = len(queries) + 1
		queries = append(queries, q)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return queries, nil
}

func parseQuery(line string) (Query, error) {
	// Only the second field is the query text; later fields are dropped.
	parts := strings.Split(line, querySeparator)
	if len(parts) < 2 {
		return Query{}, fmt.Errorf("expected <ordinal>%q<text>", querySeparator)
	}
	if _, err := strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return Query{}, fmt.Errorf("non-numeric query ordinal %q", parts[0])
	}
	text := strings.TrimSpace(parts[1])
	if text == "" {
		return Query{}, fmt.Errorf("empty query text")
	}
	return Query{Text: text}, nil
}

// LoadQrels reads `<queryId>;<doc1>,<doc2>,...` lines. Lines for the same
// query are merged and repeated document IDs collapse.
func LoadQrels(path string) (Qrels, error) {
	qrels := make(Qrels)
	err := readLines(path, func(lineNo int, line string) error {
		queryID, docs, err := parseQrel(line)
		if err != nil {
			return errors.DataFormatError(path, lineNo, err.Error())
		}
		rel, ok := qrels[queryID]
		if !ok {
			rel = make(RelevantSet, len(docs))
			qrels[queryID] = rel
		}
		for _, d := range docs {
			rel[d] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return qrels, nil
}

func parseQrel(line string) (int, []int, error) {
	parts := strings.Split(line, qrelSeparator)
	if len(parts) != 2 {
		return 0, nil, fmt.Errorf("expected exactly one %q, found %d", qrelSeparator, len(parts)-1)
	}

	queryID, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, nil, fmt.Errorf("non-numeric query id %q", parts[0])
	}

	fields := strings.Split(parts[1], docSeparator)
	docs := make([]int, 0, len(fields))
	for _, f := range fields {
		doc, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return 0, nil, fmt.Errorf("non-numeric document id %q", f)
		}
		docs = append(docs, doc)
	}
	return queryID, docs, nil
}

// LoadStopwords reads one word per line.
func LoadStopwords(path string) ([]string, error) {
	var words []string
	err := readLines(path, func(lineNo int, line string) error {
		if strings.ContainsAny(line, " \t") {
			return errors.DataFormatError(path, lineNo, fmt.Sprintf("stopword %q contains whitespace", line))
		}
		words = append(words, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return words, nil
}

// WriteQrels serializes qrels in the format LoadQrels reads, sorted by
// query ID and then document ID.
func WriteQrels(w io.Writer, qrels Qrels) error {
	ids := make([]int, 0, len(qrels))
	for id := range qrels {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	bw := bufio.NewWriter(w)
	for _, id := range ids {
		docs := qrels[id].Sorted()
		if len(docs) == 0 {
			continue
		}
		strs := make([]string, len(docs))
		for i, d := range docs {
			strs[i] = strconv.Itoa(d)
		}
		if _, err := fmt.Fprintf(bw, "%d%s%s\n", id, qrelSeparator, strings.Join(strs, docSeparator)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// readLines calls fn for every trimmed, non-blank line of path with its
// 1-based line number.
func readLines(path string, fn func(lineNo int, line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.CodeNotFound, fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(errors.CodeInternal, fmt.Sprintf("reading %s", path), err)
	}
	return nil
}
