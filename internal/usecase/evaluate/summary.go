package evaluate

import (
	"math"
	"sort"
)

// TopN is the number of best cases listed per metric.
const TopN = 5

// Distribution bucket labels.
const (
	BucketExcellent = ">=0.9"
	BucketGood      = "0.7-0.9"
	BucketFair      = "0.5-0.7"
	BucketPoor      = "<0.5"
)

// Summary aggregates a run.
type Summary struct {
	Cases          int                    `json:"cases"`
	Succeeded      int                    `json:"succeeded"`
	Failed         int                    `json:"failed"`
	OverThreshold  int                    `json:"over_threshold"`
	RiskThreshold  float64                `json:"risk_threshold"`
	Metrics        map[string]MetricStats `json:"metrics"`
	ByQuestionType map[string]GroupStats  `json:"by_question_type"`
}

// MetricStats describes one metric across successful cases.
type MetricStats struct {
	Mean    float64        `json:"mean"`
	Std     float64        `json:"std"`
	Min     float64        `json:"min"`
	Max     float64        `json:"max"`
	Median  float64        `json:"median"`
	Buckets map[string]int `json:"buckets"`
	Top     []string       `json:"top"`
}

// GroupStats holds per-metric means for one question type.
type GroupStats struct {
	Count int                `json:"count"`
	Means map[string]float64 `json:"means"`
}

func metricNames(ragas bool) []string {
	names := []string{
		MetricF1, MetricExactMatch, MetricContextPrecision, MetricContextRecall,
		MetricFaithfulness, MetricContextOverlap, MetricHallucinationRisk, MetricConfidence,
	}
	if ragas {
		names = append(names, MetricAnswerRelevancy, MetricContextMRR)
	}
	return names
}

// Summarize aggregates case results. Failed cases count toward Failed only.
func Summarize(cases []CaseResult, threshold float64, ragas bool) Summary {
	s := Summary{
		Cases:          len(cases),
		RiskThreshold:  threshold,
		Metrics:        make(map[string]MetricStats),
		ByQuestionType: make(map[string]GroupStats),
	}

	ok := make([]*CaseResult, 0, len(cases))
	for i := range cases {
		c := &cases[i]
		if c.Failed() {
			s.Failed++
			continue
		}
		ok = append(ok, c)
		if c.OverThreshold {
			s.OverThreshold++
		}
	}
	s.Succeeded = len(ok)
	if len(ok) == 0 {
		return s
	}

	names := metricNames(ragas)
	for _, name := range names {
		if st, found := metricStats(ok, name); found {
			s.Metrics[name] = st
		}
	}

	groups := make(map[string][]*CaseResult)
	for _, c := range ok {
		groups[c.QuestionType] = append(groups[c.QuestionType], c)
	}
	for qt, members := range groups {
		g := GroupStats{Count: len(members), Means: make(map[string]float64)}
		for _, name := range names {
			values, _ := collect(members, name)
			if len(values) > 0 {
				g.Means[name] = mean(values)
			}
		}
		s.ByQuestionType[qt] = g
	}
	return s
}

func metricStats(cases []*CaseResult, name string) (MetricStats, bool) {
	values, ids := collect(cases, name)
	if len(values) == 0 {
		return MetricStats{}, false
	}

	st := MetricStats{
		Mean:    mean(values),
		Std:     stddev(values),
		Min:     math.Inf(1),
		Max:     math.Inf(-1),
		Buckets: map[string]int{BucketExcellent: 0, BucketGood: 0, BucketFair: 0, BucketPoor: 0},
	}
	for _, v := range values {
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
		st.Buckets[bucket(v)]++
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		st.Median = sorted[n/2]
	} else {
		st.Median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if values[order[a]] != values[order[b]] {
			return values[order[a]] > values[order[b]]
		}
		return ids[order[a]] < ids[order[b]]
	})
	for _, i := range order[:min(TopN, n)] {
		st.Top = append(st.Top, ids[i])
	}
	return st, true
}

func collect(cases []*CaseResult, name string) (values []float64, ids []string) {
	for _, c := range cases {
		if v, ok := c.Metric(name); ok {
			values = append(values, v)
			ids = append(ids, c.ID)
		}
	}
	return values, ids
}

func bucket(v float64) string {
	switch {
	case v >= 0.9:
		return BucketExcellent
	case v >= 0.7:
		return BucketGood
	case v >= 0.5:
		return BucketFair
	default:
		return BucketPoor
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation; zero for fewer than two values.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
