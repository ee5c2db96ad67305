// Package dataset loads the evaluation inputs: queries, relevance judgments and stopwords.
package dataset

import "sort"

// Query is one test query. ID is its 1-based position in the query file.
type Query struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// RelevantSet holds the document IDs judged relevant for one query.
type RelevantSet map[int]struct{}

// NewRelevantSet builds a set from ids, collapsing duplicates.
func NewRelevantSet(ids ...int) RelevantSet {
	s := make(RelevantSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether doc is relevant.
func (s RelevantSet) Contains(doc int) bool {
	_, ok := s[doc]
	return ok
}

// Sorted returns the IDs in ascending order.
func (s RelevantSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Qrels maps a query ID to its relevant documents. Queries with no known
// relevant document have no entry.
type Qrels map[int]RelevantSet

// Relevant returns the judgments for a query; nil if it has none.
func (q Qrels) Relevant(queryID int) RelevantSet {
	return q[queryID]
}

// Dataset bundles everything a run needs besides the document collection.
type Dataset struct {
	Queries   []Query
	Qrels     Qrels
	Stopwords []string
}

// Stats summarizes a dataset the way the report prints it.
type Stats struct {
	QueryCount          int     `json:"query_count"`
	QrelCount           int     `json:"qrel_count"`
	AvgRelevantPerQuery float64 `json:"avg_relevant_per_query"`
}

// ComputeStats counts queries and qrel entries. The average is taken over
// qrel entries, not over queries.
func ComputeStats(queries []Query, qrels Qrels) Stats {
	stats := Stats{
		QueryCount: len(queries),
		QrelCount:  len(qrels),
	}

	total := 0
	for _, rel := range qrels {
		total += len(rel)
	}
	if stats.QrelCount > 0 {
		stats.AvgRelevantPerQuery = float64(total) / float64(stats.QrelCount)
	}

	return stats
}
