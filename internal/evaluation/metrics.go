package evaluation

import (
	"github.com/ricesearch/rice-eval/internal/dataset"
)

// Scorer computes per-query metrics. The zero value measures R-Precision at
// the last available rank.
type Scorer struct {
	RPrecision RPrecisionMode
}

// ScoreQuery scores one ranked result list with the default Scorer.
func ScoreQuery(retrieved []int, relevant dataset.RelevantSet) QueryMetrics {
	return Scorer{}.Score(retrieved, relevant)
}

// Score scans retrieved in rank order against the judged relevant set.
func (s Scorer) Score(retrieved []int, relevant dataset.RelevantSet) QueryMetrics {
	m := QueryMetrics{
		Relevant:  len(relevant),
		Retrieved: len(retrieved),
	}

	var (
		hits         int
		apSum        float64
		rPrecisionAt = -1.0
	)

	for i, doc := range retrieved {
		rank := i + 1
		if relevant.Contains(doc) {
			hits++
			apSum += precisionAt(hits, rank)
		}

		current := precisionAt(hits, rank)

		// Slot k is eligible once recall >= k/10, compared in integers.
		// Eligibility only grows with rank, so slot k never drops below slot k+1.
		if m.Relevant > 0 {
			for k := 0; k < RecallLevels; k++ {
				if hits*(RecallLevels-1) < k*m.Relevant {
					break
				}
				if current > m.Interpolated[k] {
					m.Interpolated[k] = current
				}
			}
		}

		if rank == m.Relevant {
			rPrecisionAt = current
		}
	}

	m.RelevantRetrieved = hits
	m.Precision = ratio(hits, m.Retrieved)
	m.Recall = ratio(hits, m.Relevant)
	if m.Relevant > 0 {
		m.AveragePrecision = apSum / float64(m.Relevant)
	}

	switch {
	case m.Relevant == 0:
		m.RPrecision = 0
	case rPrecisionAt >= 0:
		m.RPrecision = rPrecisionAt
	case s.RPrecision == RPrecisionStrict:
		m.RPrecision = ratio(hits, m.Relevant)
	default:
		// Fewer results than relevant documents: precision at the last rank.
		m.RPrecision = m.Precision
	}

	return m
}

// Aggregate averages per-query metrics over every query, including queries
// without relevant documents.
func Aggregate(perQuery []QueryMetrics) Summary {
	summary := Summary{QueryCount: len(perQuery)}
	if len(perQuery) == 0 {
		return summary
	}

	for _, m := range perQuery {
		summary.TotalRelevant += m.Relevant
		summary.TotalRetrieved += m.Retrieved
		summary.TotalRelevantRetrieved += m.RelevantRetrieved

		summary.MeanPrecision += m.Precision
		summary.MeanRecall += m.Recall
		summary.MAP += m.AveragePrecision
		summary.MeanRPrecision += m.RPrecision

		for k, v := range m.Interpolated {
			summary.Interpolated[k] += v
		}
	}

	n := float64(len(perQuery))
	summary.MeanPrecision /= n
	summary.MeanRecall /= n
	summary.MAP /= n
	summary.MeanRPrecision /= n
	for k := range summary.Interpolated {
		summary.Interpolated[k] /= n
	}

	summary.FMeasure = FMeasure(summary.MeanPrecision, summary.MeanRecall)

	return summary
}

// FMeasure is the harmonic mean of precision p and recall r, or 0 when both are 0.
func FMeasure(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func precisionAt(hits, rank int) float64 {
	return float64(hits) / float64(rank)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
