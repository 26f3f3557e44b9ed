package dgp

import (
	"fmt"

	"retention-dgp/internal/schema"
)

// Generate runs trait generation, weekly behavior and retention labeling with
// one seed and one parameter bundle, then validates both tables. Nothing is
// returned unless both tables pass.
func Generate(opts Options) (*Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	users, err := GenerateUserTraits(opts.NUsers, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("generate user traits: %w", err)
	}
	weeks, err := GenerateUserWeeks(users, opts.NWeeks, opts.Params, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("generate user weeks: %w", err)
	}
	users, err = BuildRetention(users, weeks, opts.T0Week, opts.RetentionWeek, opts.Params, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("build retention: %w", err)
	}

	if err := schema.ValidateUserWeeks(weeks); err != nil {
		return nil, err
	}
	if err := schema.ValidateUsers(users); err != nil {
		return nil, err
	}

	return &Dataset{Users: users, UserWeeks: weeks, Options: opts}, nil
}
