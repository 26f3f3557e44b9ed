package dgp

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// Trait distributions. Feed quality leans toward the top of [0,1]; the two
// log-normal traits are positive and right-skewed.
const (
	feedQualityAlpha   = 5.0
	feedQualityBeta    = 2.2
	txnComplexitySigma = 0.6
	engagementSigma    = 0.7
)

// GenerateUserTraits draws the per-user confounders for users 1..nUsers and
// their population z-scores. The same seed and count always give the same table.
func GenerateUserTraits(nUsers int, seed int64) (*Users, error) {
	if nUsers <= 0 {
		return nil, fmt.Errorf("%w: n_users must be positive, got %d", ErrInvalidInput, nUsers)
	}
	src := newSource(seed)

	u := &Users{
		UserID:             make([]int64, nUsers),
		FeedQuality:        make([]float64, nUsers),
		TxnComplexity:      make([]float64, nUsers),
		BaselineEngagement: make([]float64, nUsers),
	}
	for i := range u.UserID {
		u.UserID[i] = int64(i + 1)
	}

	feed := distuv.Beta{Alpha: feedQualityAlpha, Beta: feedQualityBeta, Src: src}
	for i := range u.FeedQuality {
		u.FeedQuality[i] = feed.Rand()
	}
	complexity := distuv.LogNormal{Mu: 0, Sigma: txnComplexitySigma, Src: src}
	for i := range u.TxnComplexity {
		u.TxnComplexity[i] = complexity.Rand()
	}
	engagement := distuv.LogNormal{Mu: 0, Sigma: engagementSigma, Src: src}
	for i := range u.BaselineEngagement {
		u.BaselineEngagement[i] = engagement.Rand()
	}

	u.FeedQualityZ = zscore(u.FeedQuality)
	u.TxnComplexityZ = zscore(u.TxnComplexity)
	u.BaselineEngagementZ = zscore(u.BaselineEngagement)

	return u, nil
}
