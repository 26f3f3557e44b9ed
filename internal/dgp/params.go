package dgp

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrEmptyExposureWindow = errors.New("no user-week rows fall inside the exposure window")
)

// Params holds the structural coefficients of the synthetic world. Every
// causal strength in the generated data comes from here.
type Params struct {
	// confidence model
	AlphaC     float64 `yaml:"alpha_c" json:"alpha_c" env:"ALPHA_C"`
	BF         float64 `yaml:"b_f" json:"b_f" env:"B_F"`
	BC         float64 `yaml:"b_c" json:"b_c" env:"B_C"`
	BE         float64 `yaml:"b_e" json:"b_e" env:"B_E"`
	SigmaCWeek float64 `yaml:"sigma_c_week" json:"sigma_c_week" env:"SIGMA_C_WEEK"`

	// edit model
	AlphaE float64 `yaml:"alpha_e" json:"alpha_e" env:"ALPHA_E"`
	TauE   float64 `yaml:"tau_e" json:"tau_e" env:"TAU_E"`
	GC     float64 `yaml:"g_c" json:"g_c" env:"G_C"`
	GE     float64 `yaml:"g_e" json:"g_e" env:"G_E"`
	GF     float64 `yaml:"g_f" json:"g_f" env:"G_F"`
	SigmaE float64 `yaml:"sigma_e" json:"sigma_e" env:"SIGMA_E"`

	// transaction volume model
	AlphaN float64 `yaml:"alpha_n" json:"alpha_n" env:"ALPHA_N"`
	BetaNE float64 `yaml:"beta_ne" json:"beta_ne" env:"BETA_NE"`

	// retention model
	AlphaR float64 `yaml:"alpha_r" json:"alpha_r" env:"ALPHA_R"`
	DeltaE float64 `yaml:"delta_e" json:"delta_e" env:"DELTA_E"`
	DeltaF float64 `yaml:"delta_f" json:"delta_f" env:"DELTA_F"`
	DeltaC float64 `yaml:"delta_c" json:"delta_c" env:"DELTA_C"`
	TauR   float64 `yaml:"tau_r" json:"tau_r" env:"TAU_R"`
	KappaR float64 `yaml:"kappa_r" json:"kappa_r" env:"KAPPA_R"`
	SigmaR float64 `yaml:"sigma_r" json:"sigma_r" env:"SIGMA_R"`
}

// DefaultParams returns the coefficients the synthetic world is calibrated with.
func DefaultParams() Params {
	return Params{
		AlphaC:     1.0,
		BF:         1.2,
		BC:         1.0,
		BE:         0.2,
		SigmaCWeek: 0.6,

		AlphaE: -1.8,
		TauE:   2.0,
		GC:     0.8,
		GE:     0.4,
		GF:     0.3,
		SigmaE: 0.5,

		AlphaN: 2.2,
		BetaNE: 0.55,

		AlphaR: -0.3,
		DeltaE: 1.4,
		DeltaF: 0.4,
		DeltaC: 0.1,
		TauR:   0.8,
		KappaR: 1.0,
		SigmaR: 0.4,
	}
}

type namedValue struct {
	name  string
	value float64
}

func (p Params) named() []namedValue {
	return []namedValue{
		{"alpha_c", p.AlphaC}, {"b_f", p.BF}, {"b_c", p.BC}, {"b_e", p.BE}, {"sigma_c_week", p.SigmaCWeek},
		{"alpha_e", p.AlphaE}, {"tau_e", p.TauE}, {"g_c", p.GC}, {"g_e", p.GE}, {"g_f", p.GF}, {"sigma_e", p.SigmaE},
		{"alpha_n", p.AlphaN}, {"beta_ne", p.BetaNE},
		{"alpha_r", p.AlphaR}, {"delta_e", p.DeltaE}, {"delta_f", p.DeltaF}, {"delta_c", p.DeltaC},
		{"tau_r", p.TauR}, {"kappa_r", p.KappaR}, {"sigma_r", p.SigmaR},
	}
}

// Validate rejects non-finite coefficients and negative noise scales.
func (p Params) Validate() error {
	for _, c := range p.named() {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%w: param %s is not finite", ErrInvalidInput, c.name)
		}
		if strings.HasPrefix(c.name, "sigma_") && c.value < 0 {
			return fmt.Errorf("%w: param %s must be non-negative, got %g", ErrInvalidInput, c.name, c.value)
		}
	}
	return nil
}

// Options bundles the run-level knobs with the structural parameters.
type Options struct {
	Seed          int64  `json:"seed"`
	NUsers        int    `json:"n_users"`
	NWeeks        int    `json:"n_weeks"`
	T0Week        int    `json:"t0_week"`
	RetentionWeek int    `json:"retention_week"`
	Params        Params `json:"params"`
}

// DefaultOptions returns the standard dataset size and retention definition.
// RetentionWeek is t0 + 4.
func DefaultOptions() Options {
	return Options{
		Seed:          7,
		NUsers:        25_000,
		NWeeks:        8,
		T0Week:        1,
		RetentionWeek: 5,
		Params:        DefaultParams(),
	}
}

func (o Options) Validate() error {
	if o.NUsers <= 0 {
		return fmt.Errorf("%w: n_users must be positive, got %d", ErrInvalidInput, o.NUsers)
	}
	if o.NWeeks <= 0 {
		return fmt.Errorf("%w: n_weeks must be positive, got %d", ErrInvalidInput, o.NWeeks)
	}
	if o.T0Week < 1 {
		return fmt.Errorf("%w: t0_week must be >= 1, got %d", ErrInvalidInput, o.T0Week)
	}
	if o.RetentionWeek < 1 {
		return fmt.Errorf("%w: retention_week must be >= 1, got %d", ErrInvalidInput, o.RetentionWeek)
	}
	return o.Params.Validate()
}
