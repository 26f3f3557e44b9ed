package dgp

import (
	"fmt"
	"math"

	"retention-dgp/internal/schema"

	"gonum.org/v1/gonum/stat/distuv"
)

// maxTxnRate caps the Poisson rate of n_txn so every draw is exact in a float64
// and fits an int64.
const maxTxnRate = 1 << 53

// GenerateUserWeeks expands every user into nWeeks rows and draws the weekly
// transaction count, confidence and edit rate from the user's z-scored traits.
//
// Edit rate depends on the realized confidence of the same week, so it sits
// downstream of confidence in the causal graph.
func GenerateUserWeeks(users *Users, nWeeks int, params Params, seed int64) (*UserWeeks, error) {
	if err := checkTraits(users); err != nil {
		return nil, err
	}
	if nWeeks <= 0 {
		return nil, fmt.Errorf("%w: n_weeks must be positive, got %d", ErrInvalidInput, nWeeks)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	src := newSource(seed)

	nUsers := users.Len()
	rows := nUsers * nWeeks
	w := &UserWeeks{
		UserID:     make([]int64, 0, rows),
		Week:       make([]int64, 0, rows),
		NTxn:       make([]int64, rows),
		Confidence: make([]float64, rows),
		EditRate:   make([]float64, rows),
	}
	for _, id := range users.UserID {
		for week := 1; week <= nWeeks; week++ {
			w.UserID = append(w.UserID, id)
			w.Week = append(w.Week, int64(week))
		}
	}

	fz := repeatEach(users.FeedQualityZ, nWeeks)
	cz := repeatEach(users.TxnComplexityZ, nWeeks)
	ez := repeatEach(users.BaselineEngagementZ, nWeeks)

	lambdas := make([]float64, rows)
	for i := range lambdas {
		lambdas[i] = math.Exp(params.AlphaN + params.BetaNE*ez[i])
		if math.IsNaN(lambdas[i]) || lambdas[i] > maxTxnRate {
			return nil, fmt.Errorf("%w: alpha_n=%g and beta_ne=%g give a weekly transaction rate of %g, above %g",
				ErrInvalidInput, params.AlphaN, params.BetaNE, lambdas[i], float64(maxTxnRate))
		}
	}

	for i, lambda := range lambdas {
		if lambda > 0 {
			w.NTxn[i] = int64(distuv.Poisson{Lambda: lambda, Src: src}.Rand())
		}
	}

	confNoise := distuv.Normal{Mu: 0, Sigma: params.SigmaCWeek, Src: src}
	for i := range w.Confidence {
		latent := params.AlphaC + params.BF*fz[i] - params.BC*cz[i] + params.BE*ez[i] + confNoise.Rand()
		w.Confidence[i] = sigmoid(latent)
	}

	editNoise := distuv.Normal{Mu: 0, Sigma: params.SigmaE, Src: src}
	for i := range w.EditRate {
		latent := params.AlphaE -
			params.TauE*w.Confidence[i] +
			params.GC*cz[i] +
			params.GE*ez[i] +
			params.GF*(-fz[i]) +
			editNoise.Rand()
		w.EditRate[i] = sigmoid(latent)
	}

	return w, nil
}

func checkTraits(users *Users) error {
	if users == nil || users.Len() == 0 {
		return fmt.Errorf("%w: user table is empty", ErrInvalidInput)
	}
	n := users.Len()
	for _, name := range []string{schema.FeedQualityZ, schema.TxnComplexityZ, schema.BaselineEngagementZ} {
		col, ok := users.Column(name)
		if !ok || col.Len() != n {
			return fmt.Errorf("%w: user column %s must have %d rows", ErrInvalidInput, name, n)
		}
	}
	return nil
}
