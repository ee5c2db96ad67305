package index

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/blugelabs/bluge/analysis"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
)

const (
	idField      = "_id"
	contentField = "content"
	authorsField = "authors"

	// DefaultMaxResults caps the ranked list returned per query.
	DefaultMaxResults = 1000
)

// Provider builds indexes of a document collection.
type Provider struct {
	maxResults int
	log        *logger.Logger
}

// NewProvider creates a provider whose indexes return at most maxResults
// documents per query.
func NewProvider(maxResults int, log *logger.Logger) *Provider {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Provider{maxResults: maxResults, log: log}
}

// Index is a read-only, in-memory index built under one analyzer.
type Index struct {
	writer     *bluge.Writer
	reader     *bluge.Reader
	analyzer   *analysis.Analyzer
	maxResults int
	documents  int
	hash       string
}

// DocumentCount returns the number of indexed documents.
func (idx *Index) DocumentCount() int { return idx.documents }

// Hash returns the SHA256 of the indexed document file.
func (idx *Index) Hash() string { return idx.hash }

// Build indexes the collection at documentsPath with a. Every failure is an
// INDEX_BUILD_ERROR.
func (p *Provider) Build(ctx context.Context, documentsPath string, a *analysis.Analyzer) (*Index, error) {
	if a == nil {
		return nil, errors.IndexBuildError("no analyzer", nil)
	}

	start := time.Now()

	coll, err := LoadDocuments(documentsPath)
	if err != nil {
		return nil, err
	}

	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, errors.IndexBuildError("opening index writer", err)
	}

	batch := bluge.NewBatch()
	for i, d := range coll.Documents {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				_ = writer.Close()
				return nil, err
			}
		}

		doc := bluge.NewDocument(strconv.Itoa(d.ID)).
			AddField(bluge.NewTextField(contentField, d.Content()).WithAnalyzer(a)).
			AddField(bluge.NewStoredOnlyField(authorsField, []byte(d.Authors)))
		batch.Update(doc.ID(), doc)
	}

	if err := writer.Batch(batch); err != nil {
		_ = writer.Close()
		return nil, errors.IndexBuildError("writing documents", err)
	}

	reader, err := writer.Reader()
	if err != nil {
		_ = writer.Close()
		return nil, errors.IndexBuildError("opening index reader", err)
	}

	p.log.Debug("Index built",
		"documents", len(coll.Documents),
		"duration", time.Since(start),
	)

	return &Index{
		writer:     writer,
		reader:     reader,
		analyzer:   a,
		maxResults: p.maxResults,
		documents:  len(coll.Documents),
		hash:       coll.Hash,
	}, nil
}

// Search returns the ids of the documents matching text, best first.
// No match is an empty result, not an error.
func (idx *Index) Search(ctx context.Context, text string) ([]int, error) {
	q := bluge.NewMatchQuery(text).
		SetField(contentField).
		SetAnalyzer(idx.analyzer)

	req := bluge.NewTopNSearch(idx.maxResults, q)
	it, err := idx.reader.Search(ctx, req)
	if err != nil {
		return nil, errors.SearchError("executing query", err)
	}

	var ids []int
	for {
		match, err := it.Next()
		if err != nil {
			return nil, errors.SearchError("reading results", err)
		}
		if match == nil {
			break
		}

		id := -1
		var parseErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == idField {
				id, parseErr = strconv.Atoi(string(value))
				return false
			}
			return true
		})
		if err != nil {
			return nil, errors.SearchError("loading stored fields", err)
		}
		if parseErr != nil || id < 0 {
			return nil, errors.SearchError(fmt.Sprintf("document without numeric id (%v)", parseErr), nil)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// Close releases the reader and the writer.
func (idx *Index) Close() error {
	rerr := idx.reader.Close()
	werr := idx.writer.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}
