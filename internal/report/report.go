// Package report renders evaluation results.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ricesearch/rice-eval/internal/dataset"
	"github.com/ricesearch/rice-eval/internal/evaluation"
	"github.com/ricesearch/rice-eval/internal/history"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/hash"
	"github.com/ricesearch/rice-eval/internal/runner"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Renderer writes a run report. Dataset is called once, then Outcome once
// per configuration, then Close.
type Renderer interface {
	Dataset(stats dataset.Stats) error
	Outcome(o runner.Outcome) error
	Close() error
}

// New returns the renderer for format. Results go to out, notices to errOut.
func New(format string, out, errOut io.Writer) (Renderer, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return NewText(out, errOut), nil
	case FormatJSON:
		return NewJSON(out), nil
	default:
		return nil, errors.ValidationError(fmt.Sprintf("unknown output format: %s", format))
	}
}

// TextRenderer prints the plain-text report.
type TextRenderer struct {
	out    io.Writer
	errOut io.Writer
}

// NewText creates a text renderer.
func NewText(out, errOut io.Writer) *TextRenderer {
	return &TextRenderer{out: out, errOut: errOut}
}

// Dataset implements Renderer.
func (r *TextRenderer) Dataset(stats dataset.Stats) error {
	_, err := fmt.Fprintf(r.out,
		"Number of queries: %d\nNumber of qrels: %d\nAverage number of relevant docs per query: %s\n",
		stats.QueryCount, stats.QrelCount, FormatFloat(stats.AvgRelevantPerQuery))
	return err
}

// Outcome implements Renderer.
func (r *TextRenderer) Outcome(o runner.Outcome) error {
	switch o.Status {
	case runner.StatusUnavailable:
		_, err := fmt.Fprintf(r.errOut, "The analyzer %q has not been implemented\n", o.Analyzer)
		return err
	case runner.StatusFailed:
		_, err := fmt.Fprintf(r.errOut, "The analyzer %q failed: %s\n", o.Analyzer, o.Error)
		return err
	}

	if _, err := fmt.Fprintf(r.out, "\n=== Using analyzer: %s\n", o.Analyzer); err != nil {
		return err
	}
	if o.Summary == nil {
		return nil
	}
	return WriteSummary(r.out, *o.Summary)
}

// Close implements Renderer.
func (r *TextRenderer) Close() error { return nil }

// WriteSummary prints the metric block of one configuration.
func WriteSummary(w io.Writer, s evaluation.Summary) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Number of retrieved documents: %d\n", s.TotalRetrieved)
	fmt.Fprintf(&sb, "Number of relevant documents: %d\n", s.TotalRelevant)
	fmt.Fprintf(&sb, "Number of relevant documents retrieved: %d\n", s.TotalRelevantRetrieved)
	fmt.Fprintf(&sb, "Average precision: %s\n", FormatFloat(s.MeanPrecision))
	fmt.Fprintf(&sb, "Average recall: %s\n", FormatFloat(s.MeanRecall))
	fmt.Fprintf(&sb, "F-measure: %s\n", FormatFloat(s.FMeasure))
	fmt.Fprintf(&sb, "MAP: %s\n", FormatFloat(s.MAP))
	fmt.Fprintf(&sb, "Average R-Precision: %s\n", FormatFloat(s.MeanRPrecision))
	sb.WriteString("Average precision at recall levels: \n")
	for i, p := range s.Interpolated {
		fmt.Fprintf(&sb, "\t%d: %s\n", i, FormatFloat(p))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// JSONRenderer collects the run and writes it as one document on Close.
type JSONRenderer struct {
	out io.Writer
	doc jsonReport
}

type jsonReport struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Dataset     *dataset.Stats   `json:"dataset,omitempty"`
	Results     []runner.Outcome `json:"results"`
}

// NewJSON creates a JSON renderer.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out, doc: jsonReport{Results: []runner.Outcome{}}}
}

// Dataset implements Renderer.
func (r *JSONRenderer) Dataset(stats dataset.Stats) error {
	r.doc.Dataset = &stats
	return nil
}

// Outcome implements Renderer.
func (r *JSONRenderer) Outcome(o runner.Outcome) error {
	r.doc.Results = append(r.doc.Results, o)
	return nil
}

// Close implements Renderer.
func (r *JSONRenderer) Close() error {
	r.doc.GeneratedAt = time.Now().UTC()
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(r.doc)
}

// WriteHistory prints past runs as an aligned table, or as JSON.
func WriteHistory(w io.Writer, format string, entries []history.Entry) error {
	if strings.ToLower(format) == FormatJSON {
		if entries == nil {
			entries = []history.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No evaluation history.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tANALYZER\tMAP\tR-PREC\tF\tPRECISION\tRECALL\tDURATION\tCOLLECTION\tRUN")
	for _, e := range entries {
		s := e.Summary
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format(time.DateTime),
			e.Analyzer,
			s.MAP, s.MeanRPrecision, s.FMeasure, s.MeanPrecision, s.MeanRecall,
			e.Duration.Round(time.Millisecond),
			hash.Short(e.CollectionHash, 12),
			hash.Short(e.RunID, 8),
		)
	}
	return tw.Flush()
}
