// Package index builds in-memory bluge indexes of a document collection and
// answers ranked queries against them.
package index

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/hash"
)

const documentSeparator = "\t"

// Document is one record of the collection.
type Document struct {
	ID      int    `json:"id"`
	Authors string `json:"authors"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Content returns the indexed text of the document.
func (d Document) Content() string {
	if d.Summary == "" {
		return d.Title
	}
	return d.Title + "\n" + d.Summary
}

// Collection is a parsed document file.
type Collection struct {
	Documents []Document
	Hash      string
}

// ComputeHash computes the SHA256 hash of content.
func ComputeHash(content []byte) string {
	return hash.SHA256(content)
}

// LoadDocuments parses a CACM file: one `<id>\t<authors>\t<title>\t<summary>`
// record per line. Authors, title and summary may be missing.
func LoadDocuments(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IndexBuildError(fmt.Sprintf("reading documents %s", path), err)
	}

	coll := &Collection{Hash: ComputeHash(data)}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		doc, err := parseDocument(line)
		if err != nil {
			return nil, errors.IndexBuildError(fmt.Sprintf("%s:%d", path, lineNo), err)
		}
		coll.Documents = append(coll.Documents, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.IndexBuildError(fmt.Sprintf("reading documents %s", path), err)
	}

	return coll, nil
}

func parseDocument(line string) (Document, error) {
	fields := strings.SplitN(line, documentSeparator, 4)

	id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Document{}, fmt.Errorf("invalid document id %q", fields[0])
	}

	doc := Document{ID: id}
	if len(fields) > 1 {
		doc.Authors = strings.TrimSpace(fields[1])
	}
	if len(fields) > 2 {
		doc.Title = strings.TrimSpace(fields[2])
	}
	if len(fields) > 3 {
		doc.Summary = strings.TrimSpace(fields[3])
	}
	return doc, nil
}
