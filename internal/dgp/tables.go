package dgp

import "retention-dgp/internal/schema"

// Users is the user-level table in columnar form. The z-scored columns are
// derived from their source columns by GenerateUserTraits and are never set
// on their own. Wk4Retention, ConfMean and EditMean stay nil until
// BuildRetention labels the table.
type Users struct {
	UserID             []int64
	FeedQuality        []float64
	TxnComplexity      []float64
	BaselineEngagement []float64

	FeedQualityZ        []float64
	TxnComplexityZ      []float64
	BaselineEngagementZ []float64

	Wk4Retention []int64
	ConfMean     []float64
	EditMean     []float64
}

func (u *Users) Name() string { return schema.UsersTable }
func (u *Users) Len() int     { return len(u.UserID) }

func (u *Users) Column(name string) (schema.Column, bool) {
	switch name {
	case schema.UserID:
		return ints(u.UserID)
	case schema.FeedQuality:
		return floats(u.FeedQuality)
	case schema.TxnComplexity:
		return floats(u.TxnComplexity)
	case schema.BaselineEngagement:
		return floats(u.BaselineEngagement)
	case schema.FeedQualityZ:
		return floats(u.FeedQualityZ)
	case schema.TxnComplexityZ:
		return floats(u.TxnComplexityZ)
	case schema.BaselineEngagementZ:
		return floats(u.BaselineEngagementZ)
	case schema.Wk4Retention:
		return ints(u.Wk4Retention)
	case schema.ConfMean:
		return floats(u.ConfMean)
	case schema.EditMean:
		return floats(u.EditMean)
	}
	return nil, false
}

// clone copies the slice headers so appending label columns to the copy
// leaves the receiver untouched. Trait data is shared and read-only.
func (u *Users) clone() *Users {
	c := *u
	return &c
}

// UserWeeks holds one row per (user, week), users outermost.
type UserWeeks struct {
	UserID     []int64
	Week       []int64
	NTxn       []int64
	Confidence []float64
	EditRate   []float64
}

func (w *UserWeeks) Name() string { return schema.UserWeekTable }
func (w *UserWeeks) Len() int     { return len(w.UserID) }

func (w *UserWeeks) Column(name string) (schema.Column, bool) {
	switch name {
	case schema.UserID:
		return ints(w.UserID)
	case schema.Week:
		return ints(w.Week)
	case schema.NTxn:
		return ints(w.NTxn)
	case schema.Confidence:
		return floats(w.Confidence)
	case schema.EditRate:
		return floats(w.EditRate)
	}
	return nil, false
}

// Dataset is the pipeline output: both tables plus the options that produced them.
type Dataset struct {
	Users     *Users
	UserWeeks *UserWeeks
	Options   Options
}

func ints(v []int64) (schema.Column, bool) {
	if v == nil {
		return nil, false
	}
	return schema.Int64s(v), true
}

func floats(v []float64) (schema.Column, bool) {
	if v == nil {
		return nil, false
	}
	return schema.Float64s(v), true
}
