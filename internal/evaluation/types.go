package evaluation

// RecallLevels is the number of points on the interpolated precision-recall
// curve: recall 0.0, 0.1, ..., 1.0.
const RecallLevels = 11

// RPrecisionMode selects how R-Precision is measured for a query that
// retrieved fewer documents than it has relevant ones.
type RPrecisionMode int

const (
	// RPrecisionLastRank uses the precision at the last retrieved rank.
	RPrecisionLastRank RPrecisionMode = iota
	// RPrecisionStrict treats the missing ranks as non-relevant, giving hits / |relevant|.
	RPrecisionStrict
)

// QueryMetrics contains metrics for a single query
type QueryMetrics struct {
	QueryID           int                   `json:"query_id"`
	Relevant          int                   `json:"relevant"`
	Retrieved         int                   `json:"retrieved"`
	RelevantRetrieved int                   `json:"relevant_retrieved"`
	Precision         float64               `json:"precision"`
	Recall            float64               `json:"recall"`
	RPrecision        float64               `json:"r_precision"`
	AveragePrecision  float64               `json:"average_precision"`
	Interpolated      [RecallLevels]float64 `json:"interpolated_precision"`
}

// Summary aggregates metrics across every query of a set
type Summary struct {
	QueryCount             int                   `json:"query_count"`
	TotalRelevant          int                   `json:"total_relevant"`
	TotalRetrieved         int                   `json:"total_retrieved"`
	TotalRelevantRetrieved int                   `json:"total_relevant_retrieved"`
	MeanPrecision          float64               `json:"mean_precision"`
	MeanRecall             float64               `json:"mean_recall"`
	FMeasure               float64               `json:"f_measure"`
	MAP                    float64               `json:"map"`
	MeanRPrecision         float64               `json:"mean_r_precision"`
	Interpolated           [RecallLevels]float64 `json:"interpolated_precision"`
}
