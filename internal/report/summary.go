// Package report summarizes a generated dataset: sizes, outcome rate,
// weekly metric distributions and the naive confidence-retention gap that
// confounding inflates.
package report

import (
	"errors"
	"math"
	"sort"

	"github.com/HdrHistogram/hdrhistogram-go"
	"gonum.org/v1/gonum/stat"

	"retention-dgp/internal/dgp"
	"retention-dgp/internal/schema"
)

var ErrUnlabeled = errors.New("report: user table has no retention labels")

// Moments is the population mean and standard deviation of one column.
type Moments struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

type Summary struct {
	Users     int `json:"users"`
	UserWeeks int `json:"user_weeks"`

	RetentionRate  float64 `json:"retention_rate"`
	MeanConfidence float64 `json:"mean_confidence"`
	MeanEditRate   float64 `json:"mean_edit_rate"`

	NTxnMean float64 `json:"n_txn_mean"`
	NTxnP50  int64   `json:"n_txn_p50"`
	NTxnP95  int64   `json:"n_txn_p95"`
	NTxnP99  int64   `json:"n_txn_p99"`
	NTxnMax  int64   `json:"n_txn_max"`

	ZScores map[string]Moments `json:"z_scores"`

	// NaiveConfidenceLift is the retention rate of users whose exposure
	// confidence is above the median minus the rate of the rest. It mixes
	// the causal effect with the confounders.
	NaiveConfidenceLift float64 `json:"naive_confidence_lift"`
}

// Summarize computes the summary of a labeled dataset.
func Summarize(ds *dgp.Dataset) (*Summary, error) {
	if ds == nil {
		return nil, ErrUnlabeled
	}
	u, w := ds.Users, ds.UserWeeks
	if u == nil || w == nil || u.Wk4Retention == nil || u.ConfMean == nil {
		return nil, ErrUnlabeled
	}

	s := &Summary{
		Users:          u.Len(),
		UserWeeks:      w.Len(),
		RetentionRate:  meanInt(u.Wk4Retention),
		MeanConfidence: stat.Mean(w.Confidence, nil),
		MeanEditRate:   stat.Mean(w.EditRate, nil),
		ZScores: map[string]Moments{
			schema.FeedQualityZ:        moments(u.FeedQualityZ),
			schema.TxnComplexityZ:      moments(u.TxnComplexityZ),
			schema.BaselineEngagementZ: moments(u.BaselineEngagementZ),
		},
	}

	if len(w.NTxn) > 0 {
		var highest int64
		for _, v := range w.NTxn {
			highest = max(highest, v)
		}
		histogram := hdrhistogram.New(1, max(highest, 2), 3)
		for _, v := range w.NTxn {
			_ = histogram.RecordValue(v)
		}
		// quantiles are bucketed to 3 significant figures; mean and max are exact
		s.NTxnMean = meanInt(w.NTxn)
		s.NTxnP50 = min(histogram.ValueAtQuantile(50), highest)
		s.NTxnP95 = min(histogram.ValueAtQuantile(95), highest)
		s.NTxnP99 = min(histogram.ValueAtQuantile(99), highest)
		s.NTxnMax = highest
	}

	s.NaiveConfidenceLift = naiveLift(u.ConfMean, u.Wk4Retention)
	return s, nil
}

func naiveLift(conf []float64, retained []int64) float64 {
	if len(conf) < 2 {
		return 0
	}
	sorted := append([]float64(nil), conf...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	var hiSum, loSum, hiN, loN float64
	for i, c := range conf {
		if c > median {
			hiSum += float64(retained[i])
			hiN++
		} else {
			loSum += float64(retained[i])
			loN++
		}
	}
	if hiN == 0 || loN == 0 {
		return 0
	}
	return hiSum/hiN - loSum/loN
}

func moments(x []float64) Moments {
	if len(x) == 0 {
		return Moments{}
	}
	mean, variance := stat.PopMeanVariance(x, nil)
	return Moments{Mean: mean, Std: math.Sqrt(variance)}
}

func meanInt(x []int64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum int64
	for _, v := range x {
		sum += v
	}
	return float64(sum) / float64(len(x))
}
