package dgp

import (
	"fmt"

	"retention-dgp/internal/schema"

	"gonum.org/v1/gonum/stat/distuv"
)

// ExposureWeeks is the length of the window aggregated into the retention model.
const ExposureWeeks = 4

// BuildRetention aggregates each user's confidence and edit rate over weeks
// [t0Week, t0Week+3], then draws the binary wk4_retention outcome. The
// returned table is a copy of users with Wk4Retention, ConfMean and EditMean
// set; users itself is not modified.
//
// retentionWeek names the week the outcome stands for. It does not move the
// exposure window.
func BuildRetention(users *Users, weeks *UserWeeks, t0Week, retentionWeek int, params Params, seed int64) (*Users, error) {
	if err := checkTraits(users); err != nil {
		return nil, err
	}
	if weeks == nil {
		return nil, fmt.Errorf("%w: user-week table is nil", ErrInvalidInput)
	}
	needed := []string{schema.UserID, schema.Week, schema.Confidence, schema.EditRate}
	if err := schema.RequireColumns(weeks, needed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := schema.RequireNoNulls(weeks, needed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if t0Week < 1 {
		return nil, fmt.Errorf("%w: t0_week must be >= 1, got %d", ErrInvalidInput, t0Week)
	}
	if retentionWeek < 1 {
		return nil, fmt.Errorf("%w: retention_week must be >= 1, got %d", ErrInvalidInput, retentionWeek)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	src := newSource(seed)

	confMean, editMean, err := exposureMeans(users, weeks, t0Week)
	if err != nil {
		return nil, err
	}

	n := users.Len()
	noise := distuv.Normal{Mu: 0, Sigma: params.SigmaR, Src: src}
	prob := make([]float64, n)
	for i := range prob {
		latent := params.AlphaR +
			params.DeltaE*users.BaselineEngagementZ[i] +
			params.DeltaF*users.FeedQualityZ[i] +
			params.DeltaC*users.TxnComplexityZ[i] +
			params.TauR*confMean[i] -
			params.KappaR*editMean[i] +
			noise.Rand()
		prob[i] = sigmoid(latent)
	}

	retained := make([]int64, n)
	for i, p := range prob {
		retained[i] = int64(distuv.Bernoulli{P: p, Src: src}.Rand())
	}

	out := users.clone()
	out.ConfMean = confMean
	out.EditMean = editMean
	out.Wk4Retention = retained
	return out, nil
}

// exposureMeans left-joins per-user window means onto the user order. Users
// with no rows in the window get the mean over users that have them.
func exposureMeans(users *Users, weeks *UserWeeks, t0Week int) (conf, edit []float64, err error) {
	index := make(map[int64]int, users.Len())
	for i, id := range users.UserID {
		index[id] = i
	}

	n := users.Len()
	confSum := make([]float64, n)
	editSum := make([]float64, n)
	count := make([]int, n)
	lo, hi := int64(t0Week), int64(t0Week+ExposureWeeks-1)
	for r, week := range weeks.Week {
		if week < lo || week > hi {
			continue
		}
		i, ok := index[weeks.UserID[r]]
		if !ok {
			continue
		}
		confSum[i] += weeks.Confidence[r]
		editSum[i] += weeks.EditRate[r]
		count[i]++
	}

	conf = make([]float64, n)
	edit = make([]float64, n)
	var confTotal, editTotal float64
	covered := 0
	for i := range conf {
		if count[i] == 0 {
			continue
		}
		conf[i] = confSum[i] / float64(count[i])
		edit[i] = editSum[i] / float64(count[i])
		confTotal += conf[i]
		editTotal += edit[i]
		covered++
	}
	if covered == 0 {
		return nil, nil, fmt.Errorf("%w: weeks %d..%d", ErrEmptyExposureWindow, lo, hi)
	}
	if covered < n {
		confFill := confTotal / float64(covered)
		editFill := editTotal / float64(covered)
		for i := range conf {
			if count[i] == 0 {
				conf[i] = confFill
				edit[i] = editFill
			}
		}
	}
	return conf, edit, nil
}
